package main

import (
	"strings"

	"github.com/spf13/cobra"

	"evaltool/internal/domain/evaluation"
	"evaltool/internal/domain/reports"
	"evaltool/internal/domain/scoring"
)

func addScoreFlags(cmd *cobra.Command, in *evaluation.EvaluationInput) {
	cmd.Flags().Float64Var(&in.Absences, "absences", 0, "Number of absences")
	cmd.Flags().Float64Var(&in.Lateness, "lateness", 0, "Number of late arrivals")
	cmd.Flags().Float64Var(&in.Commitment, "commitment", scoring.MaxCriterionPoints, "Commitment score (0-6)")
	cmd.Flags().Float64Var(&in.Attention, "attention", scoring.MaxCriterionPoints, "Attention score (0-6)")
	cmd.Flags().Float64Var(&in.Speed, "speed", scoring.MaxCriterionPoints, "Speed score (0-6)")
	cmd.Flags().Float64Var(&in.Relations, "relations", scoring.MaxCriterionPoints, "Relations score (0-6)")
	cmd.Flags().Float64Var(&in.ManagerPoints, "manager", 0, "Manager points (0-10)")
}

func (c *cli) newEvaluateCmd() *cobra.Command {
	var in evaluation.EvaluationInput
	cmd := &cobra.Command{
		Use:   "evaluate <employee-id>",
		Short: "Score and record an evaluation for an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			ev, res, err := svc.Record(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			warnSync(res)
			return writeJSON(c.out, ev)
		},
	}
	addScoreFlags(cmd, &in)
	return cmd
}

func (c *cli) newPreviewCmd() *cobra.Command {
	var (
		in   evaluation.EvaluationInput
		role string
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Compute a score without recording it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(c.out, in.Score(strings.ToLower(strings.TrimSpace(role))))
		},
	}
	addScoreFlags(cmd, &in)
	cmd.Flags().StringVar(&role, "role", scoring.RoleCommon, "Role used for the grant percentage")
	return cmd
}

func (c *cli) newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [employee-id]",
		Short: "Show one employee's evaluations or the global summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				history, err := svc.History(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(c.out, history)
			}
			employees, err := svc.Store().List(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(c.out, reports.Summaries(employees))
		},
	}
}
