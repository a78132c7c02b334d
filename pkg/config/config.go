// Package config loads the server configuration from TOML, environment
// variables and defaults, in that order of precedence (environment
// highest).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// Config is the full server configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (PICOLIMBO_*)
//  2. Configuration file (TOML)
//  3. Default values
type Config struct {
	// Address is the TCP bind address.
	Address string `mapstructure:"address" toml:"address" validate:"required,hostname_port"`

	// DataDir is the asset directory; the DATA_DIR environment
	// variable overrides it.
	DataDir string `mapstructure:"data_dir" toml:"data_dir"`

	// Brand is announced through the minecraft:brand plugin message.
	Brand string `mapstructure:"brand" toml:"brand"`

	// SpawnDimension is overworld, nether or end.
	SpawnDimension string `mapstructure:"spawn_dimension" toml:"spawn_dimension" validate:"required,oneof=overworld nether end"`

	// GameMode is the mode players join in.
	GameMode string `mapstructure:"game_mode" toml:"game_mode" validate:"required,oneof=survival creative adventure spectator"`

	// ViewDistance is the radius of the chunk square sent on join.
	ViewDistance int `mapstructure:"view_distance" toml:"view_distance" validate:"min=1,max=32"`

	// KeepAliveIntervalSecs is how often keep-alives are sent in play.
	KeepAliveIntervalSecs int `mapstructure:"keep_alive_interval_secs" toml:"keep_alive_interval_secs" validate:"min=1"`

	// KeepAliveTimeoutSecs disconnects clients that stop answering.
	KeepAliveTimeoutSecs int `mapstructure:"keep_alive_timeout_secs" toml:"keep_alive_timeout_secs" validate:"min=1"`

	// MaxConnections caps concurrent connections; 0 means unlimited.
	MaxConnections int `mapstructure:"max_connections" toml:"max_connections" validate:"min=0"`

	// MinY, when set, is the void floor: players falling below it are
	// teleported back to spawn.
	MinY *int `mapstructure:"min_y" toml:"min_y,omitempty"`

	// MinYMessage is sent as a chat message on a void teleport.
	MinYMessage string `mapstructure:"min_y_message" toml:"min_y_message,omitempty"`

	Logging     LoggingConfig     `mapstructure:"logging" toml:"logging"`
	Compression CompressionConfig `mapstructure:"compression" toml:"compression"`
	Forwarding  ForwardingConfig  `mapstructure:"forwarding" toml:"forwarding"`
	Status      StatusConfig      `mapstructure:"status" toml:"status"`
	TabList     TabListConfig     `mapstructure:"tab_list" toml:"tab_list"`
	World       WorldConfig       `mapstructure:"world" toml:"world"`
	Metrics     MetricsConfig     `mapstructure:"metrics" toml:"metrics"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	// Level is DEBUG, INFO, WARN or ERROR (case-insensitive).
	Level string `mapstructure:"level" toml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR"`

	// Format is text or json.
	Format string `mapstructure:"format" toml:"format" validate:"required,oneof=text json"`

	// Output is stdout, stderr, or a file path.
	Output string `mapstructure:"output" toml:"output" validate:"required"`
}

// CompressionConfig controls packet compression after login.
type CompressionConfig struct {
	Enabled bool `mapstructure:"enabled" toml:"enabled"`

	// Threshold is the minimum packet size that gets deflated.
	Threshold int `mapstructure:"threshold" toml:"threshold" validate:"min=0"`
}

// ForwardingConfig selects at most one proxy forwarding scheme.
type ForwardingConfig struct {
	Velocity   VelocityConfig   `mapstructure:"velocity" toml:"velocity"`
	BungeeCord BungeeCordConfig `mapstructure:"bungee_cord" toml:"bungee_cord"`
}

// VelocityConfig enables modern forwarding with a shared HMAC secret.
type VelocityConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Secret  string `mapstructure:"secret" toml:"secret,omitempty"`
}

// BungeeCordConfig enables legacy hostname forwarding, optionally
// locked down with BungeeGuard tokens.
type BungeeCordConfig struct {
	Enabled     bool     `mapstructure:"enabled" toml:"enabled"`
	BungeeGuard bool     `mapstructure:"bungee_guard" toml:"bungee_guard"`
	Tokens      []string `mapstructure:"tokens" toml:"tokens,omitempty"`
}

// StatusConfig shapes the server-list response.
type StatusConfig struct {
	MaxPlayers      int    `mapstructure:"max_players" toml:"max_players" validate:"min=0"`
	MOTD            string `mapstructure:"motd" toml:"motd"`
	ShowOnlineCount bool   `mapstructure:"show_online_count" toml:"show_online_count"`

	// ServerIcon is a path to a 64x64 PNG served as the favicon.
	ServerIcon string `mapstructure:"server_icon" toml:"server_icon,omitempty"`
}

// TabListConfig sets the tab-list header and footer after join.
type TabListConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Header  string `mapstructure:"header" toml:"header,omitempty"`
	Footer  string `mapstructure:"footer" toml:"footer,omitempty"`
}

// WorldConfig controls the emitted world.
type WorldConfig struct {
	// SchematicFile names a .schem under the asset directory's
	// schematic/ folder, pasted at the origin.
	SchematicFile string `mapstructure:"schematic_file" toml:"schematic_file,omitempty"`

	// LockTime freezes the client's daylight cycle.
	LockTime bool `mapstructure:"lock_time" toml:"lock_time"`
}

// MetricsConfig configures the Prometheus metrics HTTP server. When
// Enabled is false no collectors are registered.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" toml:"enabled"`
	Port    int  `mapstructure:"port" toml:"port" validate:"omitempty,min=1,max=65535"`
}

// Load reads configuration from file, environment and defaults. An
// empty path means "no file": environment plus defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found && configPath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration as TOML, creating parent directories.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold the forwarding secret.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures environment variables and the config file.
// Environment variables use the PICOLIMBO_ prefix with underscores,
// e.g. PICOLIMBO_FORWARDING_VELOCITY_SECRET.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("PICOLIMBO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerKeys(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("picolimbo")
		v.SetConfigType("toml")
	}
}

// readConfigFile reads the config file if present. A missing file is
// not an error here; Load decides whether that is acceptable.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// registerKeys declares every key to viper so environment-only
// overrides survive Unmarshal, which ignores keys it has never seen.
// min_y is deliberately absent: it is a pointer, set from file only.
func registerKeys(v *viper.Viper) {
	for key, def := range map[string]any{
		"address":                             "",
		"data_dir":                            "",
		"brand":                               "",
		"spawn_dimension":                     "",
		"game_mode":                           "",
		"view_distance":                       0,
		"keep_alive_interval_secs":            0,
		"keep_alive_timeout_secs":             0,
		"max_connections":                     0,
		"min_y_message":                       "",
		"logging.level":                       "",
		"logging.format":                      "",
		"logging.output":                      "",
		"compression.enabled":                 false,
		"compression.threshold":               0,
		"forwarding.velocity.enabled":         false,
		"forwarding.velocity.secret":          "",
		"forwarding.bungee_cord.enabled":      false,
		"forwarding.bungee_cord.bungee_guard": false,
		"forwarding.bungee_cord.tokens":       []string{},
		"status.max_players":                  0,
		"status.motd":                         "",
		"status.show_online_count":            false,
		"status.server_icon":                  "",
		"tab_list.enabled":                    false,
		"tab_list.header":                     "",
		"tab_list.footer":                     "",
		"world.schematic_file":                "",
		"world.lock_time":                     false,
		"metrics.enabled":                     false,
		"metrics.port":                        0,
	} {
		v.SetDefault(key, def)
	}
}

// configDecodeHooks returns the decode hooks for custom conversions:
// comma-separated token lists from environment variables.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
	)
}
