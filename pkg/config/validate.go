package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct tags plus the cross-field rules the tags
// cannot express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	if cfg.KeepAliveTimeoutSecs <= cfg.KeepAliveIntervalSecs {
		return fmt.Errorf("keep_alive_timeout_secs (%d) must exceed keep_alive_interval_secs (%d)",
			cfg.KeepAliveTimeoutSecs, cfg.KeepAliveIntervalSecs)
	}
	if cfg.Forwarding.Velocity.Enabled && cfg.Forwarding.BungeeCord.Enabled {
		return errors.New("velocity and bungee_cord forwarding are mutually exclusive")
	}
	if cfg.Forwarding.Velocity.Enabled && cfg.Forwarding.Velocity.Secret == "" {
		return errors.New("forwarding.velocity.secret is required when velocity forwarding is enabled")
	}
	if cfg.Forwarding.BungeeCord.BungeeGuard && len(cfg.Forwarding.BungeeCord.Tokens) == 0 {
		return errors.New("forwarding.bungee_cord.tokens is required when bungee_guard is enabled")
	}
	return nil
}
