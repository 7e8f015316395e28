package preflight

import (
	"context"

	"plantcam/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory, mail and SMTP reachability checks.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Capture directory", cfg.Paths.CaptureDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckMailSettings(cfg),
	}
	// Dialing is pointless until the settings are complete.
	if results[len(results)-1].Passed {
		results = append(results, CheckSMTP(ctx, cfg.Mail.SMTPHost, cfg.Mail.SMTPPort))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
