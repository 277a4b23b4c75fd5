package config

import (
	"fmt"
)

// Config represents the main toolgate configuration
type Config struct {
	// Server holds the RPC server settings
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Tools holds per-backend credentials and settings
	Tools ToolsConfig `json:"tools" mapstructure:"tools"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
}

// ServerConfig holds RPC server configuration
type ServerConfig struct {
	Host        string `json:"host" mapstructure:"host"`
	Port        int    `json:"port" mapstructure:"port"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
}

// ToolsConfig holds configuration for the tool backends
type ToolsConfig struct {
	Tavily TavilyConfig `json:"tavily" mapstructure:"tavily"`
	Sheets SheetsConfig `json:"sheets" mapstructure:"sheets"`
}

// TavilyConfig holds the web search backend configuration
type TavilyConfig struct {
	APIKey string `json:"api_key" mapstructure:"api_key"`
}

// SheetsConfig holds the spreadsheet backend configuration
type SheetsConfig struct {
	// CredentialsFile points at a service account key file; empty means
	// application default credentials.
	CredentialsFile string `json:"credentials_file" mapstructure:"credentials_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8001,
			Name:        "Unified MCP Tool Server",
			Description: "Provides access to various tools via the MCP JSON-RPC interface.",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}
