package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"plantcam/internal/agent"
	"plantcam/internal/capture"
	"plantcam/internal/config"
	"plantcam/internal/history"
	"plantcam/internal/keypoll"
	"plantcam/internal/logging"
	"plantcam/internal/mailer"
	"plantcam/internal/metrics"
	"plantcam/internal/pipeline"
	"plantcam/internal/schedule"
)

// BuildOptions controls which optional surfaces Build starts.
type BuildOptions struct {
	// OpenListener supplies the operator key source. Nil means no keyboard:
	// the agent then stops only on context cancellation.
	OpenListener func() (keypoll.Listener, error)
	// ServeMetrics starts the /metrics endpoint when metrics are enabled.
	ServeMetrics bool
	// Capturer and Sender replace the camera utility and SMTP transport.
	Capturer capture.Capturer
	Sender   mailer.Sender
}

// Runtime is a fully wired agent with the resources it owns.
type Runtime struct {
	Agent   *agent.Agent
	Tracker *schedule.Tracker
	Metrics metrics.Recorder
	History *history.Store
	// MetricsAddr is the bound /metrics address, empty when not serving.
	MetricsAddr string
}

// Build wires the capture client, SMTP sender, pipeline, tracker and agent
// from cfg. The caller must Close the returned runtime.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts BuildOptions) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	scheduleCfg, err := schedule.NewConfig(cfg.Schedule.Hour, cfg.PollInterval(), loc)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Tracker: schedule.NewTracker(scheduleCfg),
		Metrics: metrics.NoopRecorder{},
	}

	if cfg.Metrics.Enabled && opts.ServeMetrics {
		reg := prom.NewRegistry()
		rt.Metrics = metrics.NewPrometheusRecorder(reg)
		addr, err := metrics.Serve(ctx, cfg.Metrics.Bind, reg, logger)
		if err != nil {
			return nil, err
		}
		rt.MetricsAddr = addr
		logger.Info("metrics endpoint listening",
			logging.String(logging.FieldEventType, "metrics_listen"),
			logging.String(metrics.FieldBind, addr),
		)
	}

	capturer := opts.Capturer
	if capturer == nil {
		client, err := capture.New(capture.Options{
			Binary:     cfg.Camera.Command,
			Dir:        cfg.Paths.CaptureDir,
			FilePrefix: cfg.Camera.FilePrefix,
			Mode:       cfg.Camera.Mode,
			Resolution: cfg.Camera.Resolution,
			ExtraArgs:  cfg.Camera.ExtraArgs,
			Timeout:    cfg.CameraTimeout(),
		})
		if err != nil {
			return nil, err
		}
		capturer = client
	}

	sender := opts.Sender
	if sender == nil {
		smtp, err := mailer.NewSMTPSender(mailer.Options{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.MailFrom(),
			TLS:      cfg.Mail.TLS,
			Timeout:  cfg.MailTimeout(),
		})
		if err != nil {
			return nil, err
		}
		sender = smtp
	}

	pipe, err := pipeline.New(pipeline.Options{
		Capturer: capturer,
		Sender:   sender,
		Template: mailer.Template{
			Recipient:     cfg.Mail.Recipient,
			SubjectPrefix: cfg.Mail.SubjectPrefix,
			BodyIntro:     cfg.Mail.BodyIntro,
		},
		Logger:  logger,
		Metrics: rt.Metrics,
	})
	if err != nil {
		return nil, err
	}

	agentOpts := agent.Options{
		Tracker:      rt.Tracker,
		Dispatcher:   pipe,
		OpenListener: opts.OpenListener,
		QuitKey:      cfg.QuitKey(),
		LockPath:     cfg.LockPath(),
		Logger:       logger,
		Metrics:      rt.Metrics,
	}
	if agentOpts.OpenListener == nil {
		agentOpts.OpenListener = func() (keypoll.Listener, error) { return keypoll.NewReader(nil), nil }
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		rt.History = store
		agentOpts.History = store
	}

	a, err := agent.New(agentOpts)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Agent = a
	return rt, nil
}

// Close releases the history database.
func (r *Runtime) Close() error {
	if r == nil || r.History == nil {
		return nil
	}
	err := r.History.Close()
	r.History = nil
	return err
}
