package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/zaidku/DentalCad-Pro/internal/core/model"
)

type ServerConfig struct {
	Port int `toml:"port"`
}

type BackendConfig struct {
	BaseURL          string `toml:"base_url"`
	RequestTimeoutMS int    `toml:"request_timeout_ms"`
	ProbeTimeoutMS   int    `toml:"probe_timeout_ms"`
}

func (b BackendConfig) RequestTimeout() time.Duration {
	return time.Duration(b.RequestTimeoutMS) * time.Millisecond
}

func (b BackendConfig) ProbeTimeout() time.Duration {
	return time.Duration(b.ProbeTimeoutMS) * time.Millisecond
}

type Config struct {
	Server    ServerConfig            `toml:"server"`
	Backend   BackendConfig           `toml:"backend"`
	Detection model.DetectionSettings `toml:"detection"`
	Solidify  model.SolidifySettings  `toml:"solidify"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Backend: BackendConfig{
			BaseURL:          "http://localhost:5000",
			RequestTimeoutMS: 10000,
			ProbeTimeoutMS:   2000,
		},
		Detection: model.DefaultDetectionSettings(),
		Solidify:  model.DefaultSolidifySettings(),
	}
}

// Load reads a TOML config file on top of the defaults, so partial files
// only need to name the groups they change.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	if err := cfg.Detection.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection settings: %w", err)
	}
	if err := cfg.Solidify.Validate(); err != nil {
		return nil, fmt.Errorf("invalid solidify settings: %w", err)
	}

	return cfg, nil
}
