package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"plantcam/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded dispatch attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.History.Enabled {
				fmt.Fprintln(out, "Dispatch history is disabled (history.enabled = false)")
				return nil
			}

			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			attempts, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(attempts) == 0 {
				fmt.Fprintln(out, "No dispatch attempts recorded")
				return nil
			}
			fmt.Fprint(out, renderHistory(attempts, cfg.Schedule.Timezone))
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows to show (0 for all)")
	return cmd
}

func renderHistory(attempts []history.Attempt, timezone string) string {
	loc := time.Local
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	columns := []column{
		{title: "ID", numeric: true},
		{title: "Started"},
		{title: "Trigger"},
		{title: "Result"},
		{title: "Duration", numeric: true},
		{title: "Detail"},
	}
	rows := make([][]string, 0, len(attempts))
	for _, a := range attempts {
		rows = append(rows, []string{
			strconv.FormatInt(a.ID, 10),
			a.StartedAt.In(loc).Format("2006-01-02 15:04:05"),
			a.Trigger,
			resultLabel(a.Result),
			a.Duration.Round(time.Millisecond).String(),
			attemptDetail(a),
		})
	}
	return renderTable(columns, rows)
}

func attemptDetail(a history.Attempt) string {
	switch {
	case a.ErrorMessage != "" && a.ErrorCategory != "":
		return a.ErrorCategory + ": " + a.ErrorMessage
	case a.ErrorMessage != "":
		return a.ErrorMessage
	case a.CleanupError != "":
		return "cleanup: " + a.CleanupError
	default:
		return a.ArtifactPath
	}
}

var titleCaser = cases.Title(language.English)

// resultLabel turns "send_failed" into "Send Failed".
func resultLabel(result string) string {
	return titleCaser.String(strings.ReplaceAll(result, "_", " "))
}
