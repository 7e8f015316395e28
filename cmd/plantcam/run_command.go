package main

import (
	"github.com/spf13/cobra"

	"plantcam/internal/daemonrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var noRestart bool
	var development bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent in the foreground",
		Long: "Run the scheduled agent: one photo is captured and mailed each day at the\n" +
			"configured hour. Press the quit key (default 'q') or send SIGINT to stop.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    ctx.logLevel(),
				Development: development,
				NoRestart:   noRestart,
			})
		},
	}

	cmd.Flags().BoolVar(&noRestart, "no-restart", false, "Exit instead of restarting the agent after a crash")
	cmd.Flags().BoolVar(&development, "development", false, "Include source locations in log output")
	return cmd
}
