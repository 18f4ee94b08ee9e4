package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"evaltool/internal/domain/evaluation"
)

func (c *cli) newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all employees and evaluations as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			data, err := svc.Store().ExportAll(cmd.Context())
			if err != nil {
				return err
			}
			return writeFile(c.out, out, data)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", evaluation.ExportFileName, `Output file, "-" for stdout`)
	return cmd
}

func (c *cli) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: `Replace all data with an exported JSON file ("-" reads stdin)`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Store().ImportAll(cmd.Context(), data)
			if err != nil {
				return err
			}
			warnSync(res)
			employees, err := svc.Store().List(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.out, "imported %d employees\n", len(employees))
			return err
		},
	}
}

func (c *cli) newClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Erase the local cache (the remote store is not touched)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear local data without --yes")
			}
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Store().ClearLocal(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, "local data cleared")
			return err
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm erasing local data")
	return cmd
}
