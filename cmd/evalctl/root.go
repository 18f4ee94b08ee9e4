package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"evaltool/internal/app"
	"evaltool/internal/domain/evaluation"
	"evaltool/internal/platform/config"
	"evaltool/internal/platform/logging"
)

type cli struct {
	loadConfig func() config.Config
	out        io.Writer

	cfg config.Config
	rt  *app.Runtime
}

// newCLI wires the command state. A nil loader reads the environment.
func newCLI(loadConfig func() config.Config, out io.Writer) *cli {
	if loadConfig == nil {
		loadConfig = config.Load
	}
	return &cli{loadConfig: loadConfig, out: out}
}

// execute runs the command tree and always releases the runtime, including
// when a command fails. A nil args slice uses os.Args.
func (c *cli) execute(args []string) error {
	defer c.close()
	cmd := c.newRootCmd()
	if args != nil {
		cmd.SetArgs(args)
	}
	return cmd.Execute()
}

func (c *cli) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "evalctl",
		Short:         "Employee evaluation records and scoring",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.cfg = c.loadConfig()
			logging.Setup(os.Stderr, c.cfg.LogLevel, "text")
			return nil
		},
	}
	cmd.SetOut(c.out)
	cmd.AddCommand(
		c.newEmployeesCmd(),
		c.newEvaluateCmd(),
		c.newPreviewCmd(),
		c.newHistoryCmd(),
		c.newExportCmd(),
		c.newImportCmd(),
		c.newClearCmd(),
		c.newReportCmd(),
		c.newTokenCmd(),
	)
	return cmd
}

func (c *cli) runtime(ctx context.Context) (*app.Runtime, error) {
	if c.rt != nil {
		return c.rt, nil
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	rt, err := app.Open(ctx, c.cfg, nil)
	if err != nil {
		return nil, err
	}
	c.rt = rt
	return rt, nil
}

func (c *cli) service(ctx context.Context) (*evaluation.Service, error) {
	rt, err := c.runtime(ctx)
	if err != nil {
		return nil, err
	}
	return rt.Service, nil
}

func (c *cli) close() {
	if c.rt != nil {
		c.rt.Close()
		c.rt = nil
	}
}
