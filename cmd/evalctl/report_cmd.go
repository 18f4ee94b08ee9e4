package main

import (
	"github.com/spf13/cobra"

	"evaltool/internal/domain/reports"
)

func (c *cli) newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render evaluation reports",
	}
	cmd.AddCommand(c.newReportPDFCmd(), c.newReportXLSXCmd())
	return cmd
}

func (c *cli) newReportPDFCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "pdf <employee-id>",
		Short: "Render one employee's evaluation history as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			emp, err := svc.Store().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := reports.EmployeePDF(emp)
			if err != nil {
				return err
			}
			if out == "" {
				out = "evaluation_" + emp.ID + ".pdf"
			}
			return writeFile(c.out, out, data)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default evaluation_<id>.pdf)")
	return cmd
}

func (c *cli) newReportXLSXCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "xlsx",
		Short: "Render all employees and evaluations as an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			employees, err := svc.Store().List(cmd.Context())
			if err != nil {
				return err
			}
			data, err := reports.Workbook(employees)
			if err != nil {
				return err
			}
			return writeFile(c.out, out, data)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "employees_evaluations.xlsx", "Output file")
	return cmd
}
