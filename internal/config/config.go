// Package config provides configuration loading for incidentd.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the full incidentd configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	LLM        LLMConfig        `koanf:"llm"`
	Extraction ExtractionConfig `koanf:"extraction"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LLMConfig holds the Ollama connection settings.
type LLMConfig struct {
	Host        string   `koanf:"host"`
	Model       string   `koanf:"model"`
	WaitTimeout Duration `koanf:"wait_timeout"`
}

// ExtractionConfig holds extraction behavior settings.
type ExtractionConfig struct {
	Timezone string `koanf:"timezone"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.LLM.Host == "" {
		cfg.LLM.Host = "http://localhost:11434"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama3.2"
	}
	if cfg.LLM.WaitTimeout == 0 {
		cfg.LLM.WaitTimeout = Duration(35 * time.Second)
	}

	if cfg.Extraction.Timezone == "" {
		cfg.Extraction.Timezone = "America/Sao_Paulo"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	u, err := url.Parse(c.LLM.Host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("llm.host must be a valid URL, got %q", c.LLM.Host)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}

	return nil
}
