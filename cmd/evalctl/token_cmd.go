package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"evaltool/internal/domain/auth"
)

func (c *cli) newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			token, err := auth.GenerateToken(c.cfg.JWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "evaluator", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
