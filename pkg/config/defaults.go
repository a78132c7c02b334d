package config

import "strings"

// ApplyDefaults fills unset fields after file and environment loading.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	if cfg.Address == "" {
		cfg.Address = "0.0.0.0:25565"
	}
	if cfg.Brand == "" {
		cfg.Brand = "PicoLimbo"
	}
	if cfg.SpawnDimension == "" {
		cfg.SpawnDimension = "end"
	}
	if cfg.GameMode == "" {
		cfg.GameMode = "spectator"
	}
	if cfg.ViewDistance == 0 {
		cfg.ViewDistance = 2
	}
	if cfg.KeepAliveIntervalSecs == 0 {
		cfg.KeepAliveIntervalSecs = 10
	}
	if cfg.KeepAliveTimeoutSecs == 0 {
		cfg.KeepAliveTimeoutSecs = 30
	}
	applyLoggingDefaults(&cfg.Logging)
	applyCompressionDefaults(&cfg.Compression)
	applyStatusDefaults(&cfg.Status)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyCompressionDefaults(cfg *CompressionConfig) {
	if cfg.Threshold == 0 {
		cfg.Threshold = 256
	}
}

func applyStatusDefaults(cfg *StatusConfig) {
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = 20
	}
	if cfg.MOTD == "" {
		cfg.MOTD = "A PicoLimbo server"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig is the configuration 'picolimbo init' writes.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
