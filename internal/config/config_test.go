package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/zalando/go-keyring"

	"plantcam/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PLANTCAM_SMTP_USERNAME", "")
	t.Setenv("PLANTCAM_SMTP_PASSWORD", "")
	t.Setenv("PLANTCAM_MAIL_RECIPIENT", "")
	t.Setenv("PLANTCAM_ENV_FILE", "")
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantCaptures := filepath.Join(home, ".local", "share", "plantcam", "captures")
	if cfg.Paths.CaptureDir != wantCaptures {
		t.Fatalf("unexpected capture dir: got %q want %q", cfg.Paths.CaptureDir, wantCaptures)
	}
	if cfg.Schedule.Hour != 9 {
		t.Fatalf("expected default hour 9, got %d", cfg.Schedule.Hour)
	}
	if cfg.PollInterval() != time.Second {
		t.Fatalf("expected 1s poll interval, got %s", cfg.PollInterval())
	}
	if cfg.QuitKey() != 'q' {
		t.Fatalf("expected quit key q, got %q", cfg.QuitKey())
	}
	if cfg.Camera.Command != "nvgstcapture-1.0" {
		t.Fatalf("unexpected camera command %q", cfg.Camera.Command)
	}
	if cfg.Mail.SMTPHost != "smtp.gmail.com" || cfg.Mail.SMTPPort != 587 {
		t.Fatalf("unexpected smtp endpoint %s:%d", cfg.Mail.SMTPHost, cfg.Mail.SMTPPort)
	}
	if cfg.RestartDelay() != 5*time.Second {
		t.Fatalf("expected 5s restart delay, got %s", cfg.RestartDelay())
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.Metrics.Enabled {
		t.Fatal("expected metrics disabled by default")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.CaptureDir, cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if filepath.Dir(cfg.LockPath()) != cfg.Paths.StateDir {
		t.Fatalf("expected lock file under state dir, got %q", cfg.LockPath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "plantcam.toml")

	type payload struct {
		Schedule struct {
			Hour     int    `toml:"hour"`
			Timezone string `toml:"timezone"`
		} `toml:"schedule"`
		Mail struct {
			Recipient string `toml:"recipient"`
			TLS       string `toml:"tls"`
		} `toml:"mail"`
		Camera struct {
			ExtraArgs []string `toml:"extra_args"`
		} `toml:"camera"`
	}
	custom := payload{}
	custom.Schedule.Hour = 7
	custom.Schedule.Timezone = "UTC"
	custom.Mail.Recipient = "grower@example.com"
	custom.Mail.TLS = " Opportunistic "
	custom.Camera.ExtraArgs = []string{" --orientation=2 ", ""}

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Schedule.Hour != 7 {
		t.Fatalf("expected hour 7, got %d", cfg.Schedule.Hour)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("expected UTC location, got %v (err=%v)", loc, err)
	}
	if cfg.Mail.TLS != "opportunistic" {
		t.Fatalf("expected normalized tls policy, got %q", cfg.Mail.TLS)
	}
	if len(cfg.Camera.ExtraArgs) != 1 || cfg.Camera.ExtraArgs[0] != "--orientation=2" {
		t.Fatalf("unexpected extra args %q", cfg.Camera.ExtraArgs)
	}
	if cfg.Mail.Recipient != "grower@example.com" {
		t.Fatalf("unexpected recipient %q", cfg.Mail.Recipient)
	}
}

func TestLoadReadsCredentialsFromEnvFile(t *testing.T) {
	isolateEnv(t)
	os.Unsetenv("PLANTCAM_SMTP_USERNAME")
	os.Unsetenv("PLANTCAM_SMTP_PASSWORD")
	os.Unsetenv("PLANTCAM_MAIL_RECIPIENT")
	t.Cleanup(func() {
		os.Unsetenv("PLANTCAM_SMTP_USERNAME")
		os.Unsetenv("PLANTCAM_SMTP_PASSWORD")
		os.Unsetenv("PLANTCAM_MAIL_RECIPIENT")
	})

	dir := t.TempDir()
	envPath := filepath.Join(dir, "plantcam.env")
	envBody := strings.Join([]string{
		"PLANTCAM_SMTP_USERNAME=rig@example.com",
		"PLANTCAM_SMTP_PASSWORD=app-password",
		"PLANTCAM_MAIL_RECIPIENT=grower@example.com",
	}, "\n")
	if err := os.WriteFile(envPath, []byte(envBody), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("env_file = \""+envPath+"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Mail.Username != "rig@example.com" {
		t.Fatalf("expected username from env file, got %q", cfg.Mail.Username)
	}
	if cfg.Mail.Password != "app-password" {
		t.Fatalf("expected password from env file, got %q", cfg.Mail.Password)
	}
	if cfg.MailFrom() != "rig@example.com" {
		t.Fatalf("expected sender to fall back to username, got %q", cfg.MailFrom())
	}
	if err := cfg.RequireMail(); err != nil {
		t.Fatalf("RequireMail returned error: %v", err)
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"hour too large", func(c *config.Config) { c.Schedule.Hour = 24 }, "schedule.hour"},
		{"negative hour", func(c *config.Config) { c.Schedule.Hour = -1 }, "schedule.hour"},
		{"zero poll", func(c *config.Config) { c.Schedule.PollInterval = 0 }, "schedule.poll_interval"},
		{"poll over a minute", func(c *config.Config) { c.Schedule.PollInterval = 60 }, "schedule.poll_interval"},
		{"bad timezone", func(c *config.Config) { c.Schedule.Timezone = "Mars/Olympus" }, "schedule.timezone"},
		{"long quit key", func(c *config.Config) { c.Control.QuitKey = "qq" }, "control.quit_key"},
		{"prefix with slash", func(c *config.Config) { c.Camera.FilePrefix = "../x" }, "camera.file_prefix"},
		{"zero camera timeout", func(c *config.Config) { c.Camera.Timeout = 0 }, "camera.timeout"},
		{"bad tls", func(c *config.Config) { c.Mail.TLS = "sometimes" }, "mail.tls"},
		{"bad port", func(c *config.Config) { c.Mail.SMTPPort = 70000 }, "mail.smtp_port"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRequireMail(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireMail(); err == nil || !strings.Contains(err.Error(), "mail.recipient") {
		t.Fatalf("expected missing recipient error, got %v", err)
	}

	cfg.Mail.Recipient = "not an address"
	if err := cfg.RequireMail(); err == nil {
		t.Fatal("expected invalid recipient error")
	}

	cfg.Mail.Recipient = "grower@example.com"
	cfg.Mail.Username = "rig@example.com"
	if err := cfg.RequireMail(); err == nil || !strings.Contains(err.Error(), "mail.password") {
		t.Fatalf("expected missing password error, got %v", err)
	}

	cfg.Mail.Password = "secret"
	if err := cfg.RequireMail(); err != nil {
		t.Fatalf("expected complete mail config to pass, got %v", err)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	isolateEnv(t)
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Schedule.Hour != config.Default().Schedule.Hour {
		t.Fatalf("sample hour %d differs from default", cfg.Schedule.Hour)
	}
}

func TestLoadReadsPasswordFromKeyring(t *testing.T) {
	isolateEnv(t)
	keyring.MockInit()

	if err := config.StoreMailPassword("rig@example.com", "from-keyring"); err != nil {
		t.Fatalf("StoreMailPassword: %v", err)
	}
	configPath := filepath.Join(t.TempDir(), "config.toml")
	body := "[mail]\nusername = \"rig@example.com\"\nkeyring = true\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Mail.Password != "from-keyring" {
		t.Fatalf("expected keyring password, got %q", cfg.Mail.Password)
	}
}

func TestLoadIgnoresMissingKeyringEntry(t *testing.T) {
	isolateEnv(t)
	keyring.MockInit()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	body := "[mail]\nusername = \"nobody@example.com\"\nkeyring = true\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Mail.Password != "" {
		t.Fatalf("expected empty password, got %q", cfg.Mail.Password)
	}
}

func TestStoreMailPasswordRequiresUsername(t *testing.T) {
	keyring.MockInit()
	if err := config.StoreMailPassword(" ", "secret"); err == nil {
		t.Fatal("expected error without username")
	}
}
