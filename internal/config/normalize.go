package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSchedule()
	c.normalizeCamera()
	c.normalizeMail()
	c.normalizeMetrics()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CaptureDir) == "" {
		c.Paths.CaptureDir = defaultCaptureDir
	}
	if c.Paths.CaptureDir, err = expandPath(c.Paths.CaptureDir); err != nil {
		return fmt.Errorf("paths.capture_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSchedule() {
	c.Schedule.Timezone = strings.TrimSpace(c.Schedule.Timezone)
	c.Control.QuitKey = strings.TrimSpace(c.Control.QuitKey)
	if c.Control.QuitKey == "" {
		c.Control.QuitKey = defaultQuitKey
	}
}

func (c *Config) normalizeCamera() {
	c.Camera.Command = strings.TrimSpace(c.Camera.Command)
	if c.Camera.Command == "" {
		c.Camera.Command = defaultCameraCommand
	}
	c.Camera.FilePrefix = strings.TrimSpace(c.Camera.FilePrefix)
	if c.Camera.FilePrefix == "" {
		c.Camera.FilePrefix = defaultCameraFilePrefix
	}
	args := c.Camera.ExtraArgs[:0]
	for _, arg := range c.Camera.ExtraArgs {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Camera.ExtraArgs = args
}

func (c *Config) normalizeMail() {
	c.Mail.SMTPHost = strings.TrimSpace(c.Mail.SMTPHost)
	if c.Mail.SMTPHost == "" {
		c.Mail.SMTPHost = defaultSMTPHost
	}
	c.Mail.Username = strings.TrimSpace(c.Mail.Username)
	if c.Mail.Username == "" {
		if value, ok := os.LookupEnv(envSMTPUsername); ok {
			c.Mail.Username = strings.TrimSpace(value)
		}
	}
	if c.Mail.Password == "" {
		if value, ok := os.LookupEnv(envSMTPPassword); ok {
			c.Mail.Password = value
		}
	}
	c.Mail.Recipient = strings.TrimSpace(c.Mail.Recipient)
	if c.Mail.Recipient == "" {
		if value, ok := os.LookupEnv(envMailRecipient); ok {
			c.Mail.Recipient = strings.TrimSpace(value)
		}
	}
	c.Mail.From = strings.TrimSpace(c.Mail.From)
	c.Mail.SubjectPrefix = strings.TrimSpace(c.Mail.SubjectPrefix)
	if c.Mail.SubjectPrefix == "" {
		c.Mail.SubjectPrefix = defaultMailSubjectPrefix
	}
	c.Mail.BodyIntro = strings.TrimSpace(c.Mail.BodyIntro)
	if c.Mail.BodyIntro == "" {
		c.Mail.BodyIntro = defaultMailBodyIntro
	}
	c.Mail.TLS = strings.ToLower(strings.TrimSpace(c.Mail.TLS))
	if c.Mail.TLS == "" {
		c.Mail.TLS = defaultMailTLS
	}
}

func (c *Config) normalizeMetrics() {
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	if c.Metrics.Bind == "" {
		c.Metrics.Bind = defaultMetricsBind
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
