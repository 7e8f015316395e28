package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Schedule controls when the daily dispatch fires.
type Schedule struct {
	Hour         int    `toml:"hour"`
	PollInterval int    `toml:"poll_interval"`
	Timezone     string `toml:"timezone"`
}

// Control contains operator control settings.
type Control struct {
	QuitKey string `toml:"quit_key"`
}

// Paths contains directory configuration.
type Paths struct {
	CaptureDir string `toml:"capture_dir"`
	LogDir     string `toml:"log_dir"`
	StateDir   string `toml:"state_dir"`
}

// Camera describes the external still-capture utility.
type Camera struct {
	Command    string   `toml:"command"`
	Mode       int      `toml:"mode"`
	Resolution int      `toml:"resolution"`
	FilePrefix string   `toml:"file_prefix"`
	Timeout    int      `toml:"timeout"`
	ExtraArgs  []string `toml:"extra_args"`
}

// Mail contains the SMTP transport and message settings.
type Mail struct {
	SMTPHost      string `toml:"smtp_host"`
	SMTPPort      int    `toml:"smtp_port"`
	Username      string `toml:"username"`
	Password      string `toml:"password"`
	From          string `toml:"from"`
	Recipient     string `toml:"recipient"`
	SubjectPrefix string `toml:"subject_prefix"`
	BodyIntro     string `toml:"body_intro"`
	TLS           string `toml:"tls"`
	Timeout       int    `toml:"timeout"`
	// Keyring reads the password from the OS keyring when no other source
	// provides one.
	Keyring bool `toml:"keyring"`
}

// History toggles the dispatch audit ledger.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Metrics controls the optional Prometheus endpoint.
type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

// Supervisor controls the restart policy wrapped around the agent.
type Supervisor struct {
	RestartDelay int `toml:"restart_delay"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for plantcam.
//
// Configuration sections by subsystem:
//   - Schedule: daily dispatch hour, tick interval, timezone
//   - Control: operator quit key
//   - Paths: capture, log, and state directories
//   - Camera: still-capture command line
//   - Mail: SMTP transport, credentials, recipient, message text
//   - History: dispatch audit ledger
//   - Metrics: Prometheus endpoint
//   - Supervisor: restart delay after an unexpected crash
//   - Logging: log format, level, and retention
type Config struct {
	EnvFile    string     `toml:"env_file"`
	Schedule   Schedule   `toml:"schedule"`
	Control    Control    `toml:"control"`
	Paths      Paths      `toml:"paths"`
	Camera     Camera     `toml:"camera"`
	Mail       Mail       `toml:"mail"`
	History    History    `toml:"history"`
	Metrics    Metrics    `toml:"metrics"`
	Supervisor Supervisor `toml:"supervisor"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.loadEnvFile(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.loadKeyringPassword(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(defaultProjectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// loadEnvFile reads KEY=value pairs into the process environment. Variables
// that are already set win over the file, and a missing file is ignored.
func (c *Config) loadEnvFile() error {
	candidate := strings.TrimSpace(c.EnvFile)
	if value, ok := os.LookupEnv(envFileOverride); ok && strings.TrimSpace(value) != "" {
		candidate = strings.TrimSpace(value)
	}
	if candidate == "" {
		return nil
	}
	expanded, err := expandPath(candidate)
	if err != nil {
		return fmt.Errorf("env_file: %w", err)
	}
	c.EnvFile = expanded
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("env_file %q is a directory", expanded)
	}
	if err := godotenv.Load(expanded); err != nil {
		return fmt.Errorf("load env file %q: %w", expanded, err)
	}
	return nil
}

// EnsureDirectories creates required directories for agent operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CaptureDir, c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PollInterval returns the tick interval of the agent loop.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Schedule.PollInterval) * time.Second
}

// Location resolves the schedule timezone. An empty timezone means local time.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Schedule.Timezone)
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}
	return loc, nil
}

// QuitKey returns the byte that requests a graceful shutdown.
func (c *Config) QuitKey() byte {
	if c.Control.QuitKey == "" {
		return defaultQuitKey[0]
	}
	return c.Control.QuitKey[0]
}

// CameraTimeout bounds a single capture invocation.
func (c *Config) CameraTimeout() time.Duration {
	return time.Duration(c.Camera.Timeout) * time.Second
}

// MailTimeout bounds a single SMTP session.
func (c *Config) MailTimeout() time.Duration {
	return time.Duration(c.Mail.Timeout) * time.Second
}

// RestartDelay is the fixed backoff between supervised restarts.
func (c *Config) RestartDelay() time.Duration {
	return time.Duration(c.Supervisor.RestartDelay) * time.Second
}

// MailFrom returns the envelope sender, falling back to the SMTP username.
func (c *Config) MailFrom() string {
	if from := strings.TrimSpace(c.Mail.From); from != "" {
		return from
	}
	return strings.TrimSpace(c.Mail.Username)
}

// LockPath is the single-instance lock file used by the agent.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "plantcam.lock")
}

// HistoryPath is the SQLite database recording dispatch attempts.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LogPath is the persistent log file written next to stdout.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "plantcam.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
