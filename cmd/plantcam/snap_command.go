package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"plantcam/internal/daemonrun"
	"plantcam/internal/pipeline"
)

func newSnapCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "snap",
		Short: "Capture and mail a photo now, ignoring the schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireMail(); err != nil {
				return err
			}
			logger, err := ctx.commandLogger(cfg)
			if err != nil {
				return err
			}

			rt, err := daemonrun.Build(cmd.Context(), cfg, logger, daemonrun.BuildOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			outcome, err := rt.Agent.DispatchNow(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dispatch %s: %s in %s\n", outcome.DispatchID, resultLabel(outcome.Result.String()), outcome.Duration.Round(time.Millisecond))
			if outcome.Artifact.Path != "" {
				fmt.Fprintf(out, "Image: %s\n", outcome.Artifact.Path)
			}
			if outcome.Result != pipeline.Completed {
				return fmt.Errorf("dispatch failed: %w", outcome.Err)
			}
			if outcome.CleanupErr != nil {
				fmt.Fprintf(out, "Warning: image was mailed but not removed: %v\n", outcome.CleanupErr)
			}
			return nil
		},
	}
}
