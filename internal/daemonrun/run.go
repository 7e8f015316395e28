package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"plantcam/internal/config"
	"plantcam/internal/keypoll"
	"plantcam/internal/logging"
	"plantcam/internal/preflight"
	"plantcam/internal/supervisor"
)

// Options configures agent process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// NoRestart runs the agent once without the crash supervisor.
	NoRestart bool
	// Input is the operator keyboard; defaults to os.Stdin.
	Input *os.File
}

// Run starts the plantcam agent and blocks until the quit key is pressed or
// the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.RequireMail(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("plantcam-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.LogPath(), logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update plantcam.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, time.Now(),
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "plantcam-*.log", Exclude: []string{logPath}},
	)
	logPreflight(signalCtx, logger, cfg)

	input := opts.Input
	if input == nil {
		input = os.Stdin
	}
	rt, err := Build(signalCtx, cfg, logger, BuildOptions{
		OpenListener: func() (keypoll.Listener, error) { return keypoll.Open(input, logger) },
		ServeMetrics: true,
	})
	if err != nil {
		logger.Error("build agent", logging.Error(err))
		return err
	}
	defer rt.Close()

	if opts.NoRestart {
		err = rt.Agent.Run(signalCtx)
	} else {
		err = supervisor.Run(signalCtx, supervisor.Options{
			RestartDelay: cfg.RestartDelay(),
			Logger:       logger,
			Metrics:      rt.Metrics,
		}, rt.Agent.Run)
	}
	if err != nil {
		logger.Error("agent stopped with error", logging.Error(err))
		return err
	}
	logger.Info("plantcam agent shutting down")
	return nil
}

// ensureCurrentLogPointer points current at the active per-run log file,
// falling back to a hard link where symlinks are unavailable.
func ensureCurrentLogPointer(current, target string) error {
	if current == "" || target == "" {
		return nil
	}
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	camera := preflight.CheckSystemDeps(cfg)[0]
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("camera_available", camera.Available),
		logging.String("camera_binary", camera.Command),
		logging.String("smtp_endpoint", fmt.Sprintf("%s:%d", cfg.Mail.SMTPHost, cfg.Mail.SMTPPort)),
		logging.String("mail_tls", cfg.Mail.TLS),
		logging.Bool("smtp_password_present", cfg.Mail.Password != ""),
		logging.Bool("history_enabled", cfg.History.Enabled),
		logging.Bool("metrics_enabled", cfg.Metrics.Enabled),
	)
}

// logPreflight reports failing checks without blocking startup.
func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "dispatches may fail until this is fixed"),
			logging.String(logging.FieldErrorHint, "run plantcam doctor for details"),
		)
	}
}
