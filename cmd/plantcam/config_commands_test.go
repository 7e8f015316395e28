package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"plantcam/internal/config"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Mail settings complete: yes")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateReportsIncompleteMail(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Mail.Password = ""
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Mail settings complete: no")
	requireContains(t, out, "mail.password")
}

func TestConfigValidateRejectsBadHour(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Schedule.Hour = 25
	writeTestConfig(t, env.configPath, env.cfg)

	if _, _, err := runCLI(t, []string{"config", "validate"}, env.configPath); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestConfigSetPasswordStoresInKeyring(t *testing.T) {
	keyring.MockInit()
	env := setupCLITestEnv(t)

	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetIn(strings.NewReader("app-password\n"))
	cmd.SetArgs([]string{"--config", env.configPath, "config", "set-password"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config set-password: %v", err)
	}
	requireContains(t, stdout.String(), "Set mail.keyring = true")

	got, err := keyring.Get(config.KeyringService, env.cfg.Mail.Username)
	if err != nil {
		t.Fatalf("keyring.Get: %v", err)
	}
	if got != "app-password" {
		t.Fatalf("stored password %q, want app-password", got)
	}
}
