package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"plantcam/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, mail settings, SMTP reachability and the camera utility",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config: %s\n\n", ctx.configPath)

			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results)+1)
			for _, r := range results {
				rows = append(rows, []string{r.Name, passLabel(r.Passed), r.Detail})
			}
			failed := preflight.Failed(results)
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				detail := dep.Path
				if !dep.Available {
					detail = dep.Detail
					if !dep.Optional {
						failed = true
					}
				}
				rows = append(rows, []string{dep.Name, passLabel(dep.Available), detail})
			}
			fmt.Fprintln(out, renderTable([]column{{title: "Check"}, {title: "Status"}, {title: "Detail"}}, rows))

			if failed {
				return fmt.Errorf("one or more checks failed")
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}

func passLabel(passed bool) string {
	if passed {
		return "OK"
	}
	return "FAIL"
}
