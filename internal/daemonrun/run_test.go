package daemonrun

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plantcam/internal/capture"
	"plantcam/internal/history"
	"plantcam/internal/logging"
	"plantcam/internal/mailer"
	"plantcam/internal/pipeline"
	"plantcam/internal/testsupport"
)

type stubCapturer struct {
	t    *testing.T
	path string
}

func (s stubCapturer) Capture(context.Context) (capture.Artifact, error) {
	return capture.Artifact{Path: testsupport.WriteImage(s.t, s.path, 64)}, nil
}

type recordingSender struct {
	sent []mailer.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func TestBuildDispatchNowRecordsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	image := filepath.Join(cfg.Paths.CaptureDir, "smartfarm_20260101_090000.jpg")
	sender := &recordingSender{}

	rt, err := Build(context.Background(), cfg, logging.NewNop(), BuildOptions{
		Capturer: stubCapturer{t: t, path: image},
		Sender:   sender,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer rt.Close()

	outcome, err := rt.Agent.DispatchNow(context.Background())
	if err != nil {
		t.Fatalf("DispatchNow: %v", err)
	}
	if outcome.Result != pipeline.Completed {
		t.Fatalf("expected completed dispatch, got %s (err=%v)", outcome.Result, outcome.Err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.Recipient != cfg.Mail.Recipient || msg.AttachmentPath != image {
		t.Fatalf("unexpected message %+v", msg)
	}
	if !strings.HasPrefix(msg.Subject, cfg.Mail.SubjectPrefix+" - ") {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	testsupport.AssertMissing(t, image)
	if rt.Tracker.Dispatched() {
		t.Fatal("manual dispatch must not mark the day as dispatched")
	}

	attempts, err := rt.History.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected one history row, got %d", len(attempts))
	}
	if attempts[0].Trigger != history.TriggerManual || attempts[0].DispatchID != outcome.DispatchID {
		t.Fatalf("unexpected attempt %+v", attempts[0])
	}
}

func TestBuildKeepsImageWhenSendFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.History.Enabled = false
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	image := filepath.Join(cfg.Paths.CaptureDir, "smartfarm_20260101_090000.jpg")

	rt, err := Build(context.Background(), cfg, logging.NewNop(), BuildOptions{
		Capturer: stubCapturer{t: t, path: image},
		Sender:   &recordingSender{err: errors.New("smtp down")},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer rt.Close()
	if rt.History != nil {
		t.Fatal("expected history store to be skipped when disabled")
	}

	outcome, err := rt.Agent.DispatchNow(context.Background())
	if err != nil {
		t.Fatalf("DispatchNow: %v", err)
	}
	if outcome.Result != pipeline.SendFailed {
		t.Fatalf("expected send failure, got %s", outcome.Result)
	}
	testsupport.AssertExists(t, image)
}

func TestBuildServesMetrics(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithScheduleHour(7))
	cfg.Metrics.Enabled = true
	cfg.History.Enabled = false
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := Build(ctx, cfg, logging.NewNop(), BuildOptions{
		Capturer:     stubCapturer{t: t},
		Sender:       &recordingSender{},
		ServeMetrics: true,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer rt.Close()
	if rt.MetricsAddr == "" {
		t.Fatal("expected metrics address")
	}
	if got := rt.Tracker.Config().Hour; got != 7 {
		t.Fatalf("tracker hour %d, want 7", got)
	}

	resp, err := http.Get("http://" + rt.MetricsAddr + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}

func TestBuildRejectsBadTimezone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Schedule.Timezone = "Nowhere/Special"
	if _, err := Build(context.Background(), cfg, nil, BuildOptions{}); err == nil {
		t.Fatal("expected timezone error")
	}
}

func TestRunRequiresMailSettings(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutMailCredentials())
	err := Run(context.Background(), cfg, Options{NoRestart: true})
	if err == nil || !strings.Contains(err.Error(), "mail.recipient") {
		t.Fatalf("expected mail settings error, got %v", err)
	}
}

func TestEnsureCurrentLogPointer(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "plantcam-1.log")
	second := filepath.Join(dir, "plantcam-2.log")
	for _, path := range []string{first, second} {
		if err := os.WriteFile(path, []byte(filepath.Base(path)), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	current := filepath.Join(dir, "plantcam.log")

	if err := ensureCurrentLogPointer(current, first); err != nil {
		t.Fatalf("first pointer: %v", err)
	}
	if err := ensureCurrentLogPointer(current, second); err != nil {
		t.Fatalf("second pointer: %v", err)
	}
	data, err := os.ReadFile(current)
	if err != nil {
		t.Fatalf("read pointer: %v", err)
	}
	if string(data) != "plantcam-2.log" {
		t.Fatalf("pointer resolves to %q, want the latest run", data)
	}
}
