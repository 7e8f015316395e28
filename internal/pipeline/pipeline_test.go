package pipeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"plantcam/internal/capture"
	"plantcam/internal/mailer"
	"plantcam/internal/pipeline"
	"plantcam/internal/services"
	"plantcam/internal/testsupport"
)

type fakeCapturer struct {
	path  string
	err   error
	panic bool
	calls int
}

func (f *fakeCapturer) Capture(ctx context.Context) (capture.Artifact, error) {
	f.calls++
	if f.panic {
		panic("camera driver exploded")
	}
	if f.err != nil {
		return capture.Artifact{}, f.err
	}
	return capture.Artifact{Path: f.path}, nil
}

type fakeSender struct {
	err      error
	messages []mailer.Message
	stages   []string
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	f.messages = append(f.messages, msg)
	if stage, ok := services.StageFromContext(ctx); ok {
		f.stages = append(f.stages, stage)
	}
	return f.err
}

type recordingRemover struct {
	err   error
	paths []string
}

func (r *recordingRemover) remove(path string) error {
	r.paths = append(r.paths, path)
	if r.err != nil {
		return r.err
	}
	return pipeline.RemoveIfExists(path)
}

var dispatchTime = time.Date(2026, time.May, 20, 9, 0, 0, 0, time.UTC)

func newPipeline(t *testing.T, capturer capture.Capturer, sender mailer.Sender, remover *recordingRemover) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(pipeline.Options{
		Capturer: capturer,
		Sender:   sender,
		Template: mailer.Template{Recipient: "grower@example.com", SubjectPrefix: "Daily", BodyIntro: "Morning."},
		Remove:   remover.remove,
	})
	if err != nil {
		t.Fatalf("pipeline.New returned error: %v", err)
	}
	return p
}

func TestRunCompletesAndRemovesArtifact(t *testing.T) {
	photo := testsupport.WriteImage(t, filepath.Join(t.TempDir(), "smartfarm.jpg"), 32)
	sender := &fakeSender{}
	remover := &recordingRemover{}
	p := newPipeline(t, &fakeCapturer{path: photo}, sender, remover)

	outcome := p.Run(context.Background(), dispatchTime)
	if outcome.Result != pipeline.Completed {
		t.Fatalf("expected Completed, got %s (err=%v)", outcome.Result, outcome.Err)
	}
	if outcome.Err != nil || outcome.CleanupErr != nil {
		t.Fatalf("unexpected errors: %v / %v", outcome.Err, outcome.CleanupErr)
	}
	if outcome.DispatchID == "" {
		t.Fatal("expected dispatch id")
	}
	if len(sender.messages) != 1 {
		t.Fatalf("expected one send, got %d", len(sender.messages))
	}
	msg := sender.messages[0]
	if msg.AttachmentPath != photo || msg.Recipient != "grower@example.com" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Subject != "Daily - 2026-05-20 09:00:00" || !strings.Contains(msg.Body, "2026-05-20 09:00:00") {
		t.Fatalf("expected timestamp in subject and body, got %q / %q", msg.Subject, msg.Body)
	}
	if len(sender.stages) != 1 || sender.stages[0] != pipeline.StageSend {
		t.Fatalf("expected send stage in context, got %v", sender.stages)
	}
	testsupport.AssertMissing(t, photo)
}

func TestRunReportsDuration(t *testing.T) {
	photo := testsupport.WriteImage(t, filepath.Join(t.TempDir(), "smartfarm.jpg"), 32)
	start := dispatchTime
	ticks := 0
	p, err := pipeline.New(pipeline.Options{
		Capturer: &fakeCapturer{path: photo},
		Sender:   &fakeSender{},
		Template: mailer.Template{Recipient: "grower@example.com"},
		Clock: func() time.Time {
			ticks++
			return start.Add(time.Duration(ticks) * time.Second)
		},
	})
	if err != nil {
		t.Fatalf("pipeline.New returned error: %v", err)
	}

	outcome := p.Run(context.Background(), dispatchTime)
	if outcome.Result != pipeline.Completed {
		t.Fatalf("expected Completed, got %s (err=%v)", outcome.Result, outcome.Err)
	}
	if outcome.Duration <= 0 {
		t.Fatalf("expected positive duration after %d clock reads, got %s", ticks, outcome.Duration)
	}
	if want := start.Add(time.Duration(ticks) * time.Second).Sub(outcome.StartedAt); outcome.Duration != want {
		t.Fatalf("duration %s, want %s", outcome.Duration, want)
	}
}

func TestRunFailureReportsDuration(t *testing.T) {
	ticks := 0
	p, err := pipeline.New(pipeline.Options{
		Capturer: &fakeCapturer{err: errors.New("no camera")},
		Sender:   &fakeSender{},
		Clock: func() time.Time {
			ticks++
			return dispatchTime.Add(time.Duration(ticks) * time.Second)
		},
	})
	if err != nil {
		t.Fatalf("pipeline.New returned error: %v", err)
	}

	outcome := p.Run(context.Background(), dispatchTime)
	if outcome.Result != pipeline.CaptureFailed {
		t.Fatalf("expected CaptureFailed, got %s", outcome.Result)
	}
	if outcome.Duration <= 0 {
		t.Fatalf("expected positive duration, got %s", outcome.Duration)
	}
}

func TestRunCaptureFailureSkipsSendAndCleanup(t *testing.T) {
	sender := &fakeSender{}
	remover := &recordingRemover{}
	p := newPipeline(t, &fakeCapturer{err: services.Wrap(services.ErrCapture, "capture", "cam", "exit 1", nil)}, sender, remover)

	outcome := p.Run(context.Background(), dispatchTime)
	if outcome.Result != pipeline.CaptureFailed {
		t.Fatalf("expected CaptureFailed, got %s", outcome.Result)
	}
	if !errors.Is(outcome.Err, services.ErrCapture) {
		t.Fatalf("expected capture error, got %v", outcome.Err)
	}
	if len(sender.messages) != 0 {
		t.Fatal("expected no send after capture failure")
	}
	if len(remover.paths) != 0 {
		t.Fatal("expected no cleanup after capture failure")
	}
}

func TestRunCapturePanicBecomesCaptureFailed(t *testing.T) {
	sender := &fakeSender{}
	p := newPipeline(t, &fakeCapturer{panic: true}, sender, &recordingRemover{})

	outcome := p.Run(context.Background(), dispatchTime)
	if outcome.Result != pipeline.CaptureFailed {
		t.Fatalf("expected CaptureFailed, got %s", outcome.Result)
	}
	if !errors.Is(outcome.Err, services.ErrCapture) || !strings.Contains(outcome.Err.Error(), "camera driver exploded") {
		t.Fatalf("expected panic converted to capture error, got %v", outcome.Err)
	}
	if len(sender.messages) != 0 {
		t.Fatal("expected no send after capture panic")
	}
}

func TestRunEmptyArtifactIsCaptureFailure(t *testing.T) {
	p := newPipeline(t, &fakeCapturer{path: ""}, &fakeSender{}, &recordingRemover{})
	if outcome := p.Run(context.Background(), dispatchTime); outcome.Result != pipeline.CaptureFailed {
		t.Fatalf("expected CaptureFailed, got %s", outcome.Result)
	}
}

func TestRunSendFailureKeepsArtifact(t *testing.T) {
	photo := testsupport.WriteImage(t, filepath.Join(t.TempDir(), "smartfarm.jpg"), 32)
	sender := &fakeSender{err: services.Wrap(services.ErrSend, "send", "deliver", "smtp", errors.New("connection refused"))}
	remover := &recordingRemover{}
	p := newPipeline(t, &fakeCapturer{path: photo}, sender, remover)

	outcome := p.Run(context.Background(), dispatchTime)
	if outcome.Result != pipeline.SendFailed {
		t.Fatalf("expected SendFailed, got %s", outcome.Result)
	}
	if !errors.Is(outcome.Err, services.ErrSend) {
		t.Fatalf("expected send error, got %v", outcome.Err)
	}
	if len(remover.paths) != 0 {
		t.Fatal("expected no cleanup after send failure")
	}
	if outcome.Artifact.Path != photo {
		t.Fatalf("expected artifact recorded, got %q", outcome.Artifact.Path)
	}
	testsupport.AssertExists(t, photo)
}

func TestRunCleanupFailureStillCompletes(t *testing.T) {
	photo := testsupport.WriteImage(t, filepath.Join(t.TempDir(), "smartfarm.jpg"), 32)
	remover := &recordingRemover{err: errors.New("permission denied")}
	p := newPipeline(t, &fakeCapturer{path: photo}, &fakeSender{}, remover)

	outcome := p.Run(context.Background(), dispatchTime)
	if outcome.Result != pipeline.Completed {
		t.Fatalf("expected Completed despite cleanup failure, got %s", outcome.Result)
	}
	if outcome.Err != nil {
		t.Fatalf("expected no stage error, got %v", outcome.Err)
	}
	if !errors.Is(outcome.CleanupErr, services.ErrCleanup) {
		t.Fatalf("expected cleanup error recorded, got %v", outcome.CleanupErr)
	}
}

func TestRemoveIfExistsToleratesMissingFile(t *testing.T) {
	if err := pipeline.RemoveIfExists(filepath.Join(t.TempDir(), "gone.jpg")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := pipeline.New(pipeline.Options{Sender: &fakeSender{}}); err == nil {
		t.Fatal("expected error without capturer")
	}
	if _, err := pipeline.New(pipeline.Options{Capturer: &fakeCapturer{}}); err == nil {
		t.Fatal("expected error without sender")
	}
}

func TestResultString(t *testing.T) {
	for result, want := range map[pipeline.Result]string{
		pipeline.CaptureFailed: "capture_failed",
		pipeline.SendFailed:    "send_failed",
		pipeline.Completed:     "completed",
	} {
		if result.String() != want {
			t.Fatalf("expected %q, got %q", want, result.String())
		}
	}
}
