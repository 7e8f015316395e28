package config

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateControl(); err != nil {
		return err
	}
	if err := c.validateCamera(); err != nil {
		return err
	}
	if err := c.validateMailTransport(); err != nil {
		return err
	}
	if err := c.validateSupervisor(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireMail checks the settings needed to actually deliver a photo. Commands
// that never send mail (history, config) skip it so they work before
// credentials are configured.
func (c *Config) RequireMail() error {
	if c.Mail.Recipient == "" {
		return fmt.Errorf("mail.recipient is required. Set %s or edit the config file", envMailRecipient)
	}
	if _, err := mail.ParseAddress(c.Mail.Recipient); err != nil {
		return fmt.Errorf("mail.recipient %q is not a valid address: %w", c.Mail.Recipient, err)
	}
	if c.Mail.Username == "" {
		return fmt.Errorf("mail.username is required. Set %s or edit the config file", envSMTPUsername)
	}
	if c.Mail.Password == "" {
		return fmt.Errorf("mail.password is required. Set %s, put it in %s, or enable mail.keyring", envSMTPPassword, c.EnvFile)
	}
	if from := c.MailFrom(); from != "" {
		if _, err := mail.ParseAddress(from); err != nil {
			return fmt.Errorf("mail.from %q is not a valid address: %w", from, err)
		}
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		return fmt.Errorf("schedule.hour must be between 0 and 23, got %d", c.Schedule.Hour)
	}
	if c.Schedule.PollInterval <= 0 {
		return errors.New("schedule.poll_interval must be positive (seconds)")
	}
	if c.Schedule.PollInterval >= 60 {
		return errors.New("schedule.poll_interval must be shorter than one minute or the dispatch window can be missed")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateControl() error {
	key := c.Control.QuitKey
	if len(key) != 1 || key[0] >= utf8.RuneSelf {
		return fmt.Errorf("control.quit_key must be a single ASCII character, got %q", key)
	}
	return nil
}

func (c *Config) validateCamera() error {
	if strings.ContainsAny(c.Camera.FilePrefix, `/\`) {
		return fmt.Errorf("camera.file_prefix must not contain path separators, got %q", c.Camera.FilePrefix)
	}
	return ensurePositive([]positiveField{
		{"camera.mode", c.Camera.Mode},
		{"camera.resolution", c.Camera.Resolution},
		{"camera.timeout", c.Camera.Timeout},
	})
}

func (c *Config) validateMailTransport() error {
	switch c.Mail.TLS {
	case "mandatory", "opportunistic", "none":
	default:
		return fmt.Errorf("mail.tls: unsupported value %q (want mandatory, opportunistic, or none)", c.Mail.TLS)
	}
	if c.Mail.SMTPPort <= 0 || c.Mail.SMTPPort > 65535 {
		return fmt.Errorf("mail.smtp_port must be a valid TCP port, got %d", c.Mail.SMTPPort)
	}
	return ensurePositive([]positiveField{
		{"mail.timeout", c.Mail.Timeout},
	})
}

func (c *Config) validateSupervisor() error {
	if c.Supervisor.RestartDelay < 0 {
		return errors.New("supervisor.restart_delay must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}

type positiveField struct {
	key   string
	value int
}

func ensurePositive(fields []positiveField) error {
	for _, field := range fields {
		if field.value <= 0 {
			return fmt.Errorf("%s must be positive", field.key)
		}
	}
	return nil
}
