// Package config loads and validates the bot configuration.
package config

import (
	"fmt"

	"github.com/idlanyor/kachina-go/internal/wa"
)

// Login methods.
const (
	LoginQR      = "qr"
	LoginPairing = "pairing"
)

// Config is the bot configuration.
type Config struct {
	SessionID   string   `json:"sessionId"`
	PhoneNumber string   `json:"phoneNumber,omitempty"`
	LoginMethod string   `json:"loginMethod"`
	Prefix      string   `json:"prefix"`
	Owners      []string `json:"owners,omitempty"`

	PluginsDir   string `json:"pluginsDir"`
	DatabasePath string `json:"databasePath"`

	BridgeURL   string `json:"bridgeUrl"`
	BridgeToken string `json:"bridgeToken,omitempty"`
	RedisURL    string `json:"redisUrl,omitempty"`

	LogLevel string `json:"logLevel"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		SessionID:    "kachina-session",
		LoginMethod:  LoginQR,
		Prefix:       "!",
		PluginsDir:   "./plugins",
		DatabasePath: "./database",
		BridgeURL:    "ws://localhost:3001/ws",
		LogLevel:     "info",
	}
}

// Validate checks configuration errors that should fail startup before
// any connection attempt.
func (c Config) Validate() error {
	switch c.LoginMethod {
	case LoginQR:
	case LoginPairing:
		if c.PhoneNumber == "" {
			return fmt.Errorf("config: phone number is required for pairing login, e.g. 628123456789")
		}
		if len(wa.NormalizePhone(c.PhoneNumber)) < 10 {
			return fmt.Errorf("config: invalid phone number %q: use country code without +, e.g. 628123456789", c.PhoneNumber)
		}
	default:
		return fmt.Errorf("config: unknown login method %q (want %q or %q)", c.LoginMethod, LoginQR, LoginPairing)
	}
	if c.BridgeURL == "" {
		return fmt.Errorf("config: bridge url is required")
	}
	return nil
}
