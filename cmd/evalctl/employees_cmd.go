package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"evaltool/internal/domain/scoring"
)

func (c *cli) newEmployeesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "employees",
		Aliases: []string{"emp"},
		Short:   "Manage employees",
	}
	cmd.AddCommand(c.newEmployeesAddCmd(), c.newEmployeesListCmd(), c.newEmployeesRemoveCmd())
	return cmd
}

func (c *cli) newEmployeesAddCmd() *cobra.Command {
	var name, matricule, role string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			if r := strings.ToLower(strings.TrimSpace(role)); r != "" && !scoring.KnownRole(r) {
				fmt.Fprintf(os.Stderr, "warning: unknown role %q scores with the common percentage\n", r)
			}
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			emp, res, err := svc.Store().Add(cmd.Context(), name, matricule, role)
			if err != nil {
				return err
			}
			warnSync(res)
			return writeJSON(c.out, emp)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Employee name (required)")
	cmd.Flags().StringVar(&matricule, "matricule", "", "Staff number")
	cmd.Flags().StringVar(&role, "role", scoring.RoleCommon, fmt.Sprintf("Role %v", scoring.Roles))
	return cmd
}

func (c *cli) newEmployeesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List employees with their evaluations",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			employees, err := svc.Store().List(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(c.out, employees)
		},
	}
}

func (c *cli) newEmployeesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an employee and all of their evaluations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Store().Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			warnSync(res)
			_, err = fmt.Fprintf(c.out, "removed %s\n", args[0])
			return err
		},
	}
}
