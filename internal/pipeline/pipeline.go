package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"plantcam/internal/capture"
	"plantcam/internal/logging"
	"plantcam/internal/mailer"
	"plantcam/internal/metrics"
	"plantcam/internal/services"
)

// Stage names used in logs, metrics and history.
const (
	StageCapture = "capture"
	StageSend    = "send"
	StageCleanup = "cleanup"
)

// Result is the coarse outcome of one Run.
type Result int

const (
	CaptureFailed Result = iota
	SendFailed
	Completed
)

func (r Result) String() string {
	switch r {
	case CaptureFailed:
		return "capture_failed"
	case SendFailed:
		return "send_failed"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Outcome carries the result plus the details callers log and record.
type Outcome struct {
	DispatchID string
	Result     Result
	Artifact   capture.Artifact
	// Err is the capture or send failure; nil when Completed.
	Err        error
	CleanupErr error
	StartedAt  time.Time
	Duration   time.Duration
}

// Remover deletes a captured artifact.
type Remover func(path string) error

// Options wires the pipeline collaborators.
type Options struct {
	Capturer capture.Capturer
	Sender   mailer.Sender
	Template mailer.Template
	Logger   *slog.Logger
	Metrics  metrics.Recorder
	Remove   Remover
	Clock    func() time.Time
}

// Pipeline runs capture, send and cleanup in order.
type Pipeline struct {
	capturer capture.Capturer
	sender   mailer.Sender
	template mailer.Template
	logger   *slog.Logger
	metrics  metrics.Recorder
	remove   Remover
	clock    func() time.Time
}

// New validates opts and returns a pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Capturer == nil {
		return nil, errors.New("pipeline capturer required")
	}
	if opts.Sender == nil {
		return nil, errors.New("pipeline sender required")
	}
	p := &Pipeline{
		capturer: opts.Capturer,
		sender:   opts.Sender,
		template: opts.Template,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		remove:   opts.Remove,
		clock:    opts.Clock,
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	p.logger = logging.NewComponentLogger(p.logger, "pipeline")
	if p.metrics == nil {
		p.metrics = metrics.NoopRecorder{}
	}
	if p.remove == nil {
		p.remove = RemoveIfExists
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	return p, nil
}

// Run performs one dispatch attempt. now stamps the mail subject and body.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (outcome Outcome) {
	outcome = Outcome{DispatchID: uuid.NewString(), StartedAt: p.clock()}
	ctx = services.WithDispatchID(ctx, outcome.DispatchID)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("dispatch started",
		logging.String(logging.FieldEventType, "dispatch_start"),
		logging.Time("scheduled_at", now),
	)

	defer func() {
		outcome.Duration = p.clock().Sub(outcome.StartedAt)
		p.metrics.ObserveDispatchDuration(outcome.Duration)
		p.metrics.IncDispatchOutcome(outcome.Result.String())
	}()

	artifact, err := p.captureStage(ctx)
	if err != nil {
		outcome.Result = CaptureFailed
		outcome.Err = err
		p.metrics.IncStageResult(StageSend, metrics.ResultSkipped)
		return outcome
	}
	outcome.Artifact = artifact

	if err := p.sendStage(ctx, p.template.Build(artifact.Path, now)); err != nil {
		outcome.Result = SendFailed
		outcome.Err = err
		p.metrics.IncStageResult(StageCleanup, metrics.ResultSkipped)
		logging.WarnWithContext(logger, "photo kept on disk after failed send", "artifact_retained",
			logging.String("path", artifact.Path),
			logging.Alert("artifact_retained"),
			logging.String(logging.FieldImpact, "photo remains in capture_dir until removed manually"),
		)
		return outcome
	}

	outcome.CleanupErr = p.cleanupStage(ctx, artifact)
	outcome.Result = Completed
	logger.Info("dispatch completed",
		logging.String(logging.FieldEventType, "dispatch_complete"),
		logging.Bool("cleanup_ok", outcome.CleanupErr == nil),
	)
	return outcome
}

func (p *Pipeline) captureStage(ctx context.Context) (capture.Artifact, error) {
	var artifact capture.Artifact
	err := p.stage(ctx, StageCapture, func(stageCtx context.Context) ([]any, error) {
		var err error
		artifact, err = p.capturer.Capture(stageCtx)
		if err == nil && artifact.Path == "" {
			err = services.Wrap(services.ErrCapture, StageCapture, "locate", "capturer returned no file", nil)
		}
		fields := []any{logging.String("path", artifact.Path)}
		if err == nil {
			if info, statErr := os.Stat(artifact.Path); statErr == nil {
				fields = append(fields, logging.Int64("size_bytes", info.Size()))
			}
		}
		return fields, err
	})
	return artifact, err
}

func (p *Pipeline) sendStage(ctx context.Context, msg mailer.Message) error {
	return p.stage(ctx, StageSend, func(stageCtx context.Context) ([]any, error) {
		return []any{
			logging.String("recipient", msg.Recipient),
			logging.String("subject", msg.Subject),
		}, p.sender.Send(stageCtx, msg)
	})
}

func (p *Pipeline) cleanupStage(ctx context.Context, artifact capture.Artifact) error {
	return p.stage(ctx, StageCleanup, func(context.Context) ([]any, error) {
		fields := []any{logging.String("path", artifact.Path)}
		if err := p.remove(artifact.Path); err != nil {
			return fields, services.Wrap(services.ErrCleanup, StageCleanup, "remove", artifact.Path, err)
		}
		return fields, nil
	})
}

// stage runs fn with stage-scoped logging and metrics. fn returns the fields
// logged on success. A panic in fn is converted into an error tagged with the
// stage marker.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) ([]any, error)) (err error) {
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, p.logger)
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	var fields []any
	start := p.clock()
	defer func() {
		if r := recover(); r != nil {
			err = services.Wrap(stageMarker(name), name, "panic", fmt.Sprint(r), nil)
		}
		elapsed := p.clock().Sub(start)
		p.metrics.ObserveStageDuration(name, elapsed)
		if err != nil {
			p.metrics.IncStageResult(name, metrics.ResultFailed)
			category, message := services.Details(err)
			logger.Error("stage failed",
				logging.String(logging.FieldEventType, "stage_failure"),
				logging.String("error_category", category),
				logging.String("error_message", message),
				logging.Duration("elapsed", elapsed),
				logging.String(logging.FieldErrorHint, stageHint(name)),
				logging.Error(err),
			)
			return
		}
		p.metrics.IncStageResult(name, metrics.ResultSuccess)
		fields = append(fields,
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("elapsed", elapsed),
		)
		logger.Info("stage completed", fields...)
	}()

	fields, err = fn(stageCtx)
	return err
}

func stageMarker(name string) error {
	switch name {
	case StageCapture:
		return services.ErrCapture
	case StageSend:
		return services.ErrSend
	default:
		return services.ErrCleanup
	}
}

func stageHint(name string) string {
	switch name {
	case StageCapture:
		return "check the camera connection and that camera.command runs by hand"
	case StageSend:
		return "check SMTP credentials, mail.tls and network reachability"
	default:
		return "check capture_dir permissions"
	}
}

// RemoveIfExists deletes path; a file that is already gone is not an error.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
