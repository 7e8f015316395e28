package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name SMTP passwords are stored under.
const KeyringService = "plantcam"

func (c *Config) loadKeyringPassword() error {
	if !c.Mail.Keyring || c.Mail.Password != "" || c.Mail.Username == "" {
		return nil
	}
	secret, err := keyring.Get(KeyringService, c.Mail.Username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("mail.keyring: read password for %s: %w", c.Mail.Username, err)
	}
	c.Mail.Password = secret
	return nil
}

// StoreMailPassword saves password in the OS keyring for username.
func StoreMailPassword(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("mail.username is required to store a password")
	}
	if password == "" {
		return errors.New("password must not be empty")
	}
	if err := keyring.Set(KeyringService, username, password); err != nil {
		return fmt.Errorf("store password for %s: %w", username, err)
	}
	return nil
}
