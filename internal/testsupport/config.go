package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"plantcam/internal/config"
)

// ConfigOption adjusts a generated test configuration.
type ConfigOption func(t testing.TB, cfg *config.Config)

// NewConfig returns a config rooted in a fresh temp directory, in UTC, with
// complete mail settings so RequireMail passes without touching the
// environment. Directories are not created; call EnsureDirectories when needed.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.EnvFile = filepath.Join(base, "plantcam.env")
	cfg.Paths = config.Paths{
		CaptureDir: filepath.Join(base, "captures"),
		LogDir:     filepath.Join(base, "logs"),
		StateDir:   filepath.Join(base, "state"),
	}
	cfg.Schedule.Timezone = "UTC"
	cfg.Mail.SMTPHost = "127.0.0.1"
	cfg.Mail.Username = "rig@example.com"
	cfg.Mail.Password = "test-password"
	cfg.Mail.Recipient = "grower@example.com"
	cfg.Metrics.Bind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(t, &cfg)
	}
	return &cfg
}

// WithScheduleHour sets the dispatch hour.
func WithScheduleHour(hour int) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.Schedule.Hour = hour
	}
}

// WithoutMailCredentials clears the SMTP credentials and recipient.
func WithoutMailCredentials() ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.Mail.Username = ""
		cfg.Mail.Password = ""
		cfg.Mail.Recipient = ""
	}
}

// WithStubbedBinaries installs no-op executables for names (default: the
// configured camera command) in a bin directory prepended to PATH.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		t.Helper()
		if len(names) == 0 {
			names = []string{cfg.Camera.Command}
		}
		binDir := filepath.Join(BaseDir(cfg), "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the temp directory backing a config from NewConfig.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CaptureDir)
}
