package services_test

import (
	"errors"
	"strings"
	"testing"

	"plantcam/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrCapture, "capture", "nvgstcapture-1.0", "exited", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrCapture) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"capture", "nvgstcapture-1.0", "exited"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err)
	}
}

func TestCategoryMapping(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrCapture, "capture", "run", "", nil), "capture"},
		{services.Wrap(services.ErrSend, "send", "dial", "", errors.New("refused")), "send"},
		{services.Wrap(services.ErrCleanup, "cleanup", "remove", "", nil), "cleanup"},
		{services.Wrap(services.ErrCapture, "capture", "run", "", services.ErrTimeout), "timeout"},
		{errors.New("plain"), "unknown"},
	}
	for _, tc := range tests {
		if got := services.Category(tc.err); got != tc.want {
			t.Fatalf("Category(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}

	category, message := services.Details(services.Wrap(services.ErrSend, "send", "", "auth rejected", nil))
	if category != "send" || !strings.Contains(message, "auth rejected") {
		t.Fatalf("unexpected details %q %q", category, message)
	}
}
