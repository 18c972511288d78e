// Package config loads middleware configuration from a YAML file and
// environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Authority AuthorityConfig `mapstructure:"authority"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	PDF       PDFConfig       `mapstructure:"pdf"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AuthorityConfig holds the external authorization service settings
type AuthorityConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig holds the artifact tree location
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// PDFConfig holds the Chrome renderer settings
type PDFConfig struct {
	RemoteURL string        `mapstructure:"remote_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	NoSandbox bool          `mapstructure:"no_sandbox"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	v.SetDefault("authority.timeout", 30*time.Second)

	v.SetDefault("database.path", "data/facturacion.db")
	v.SetDefault("storage.base_dir", "data")

	v.SetDefault("pdf.timeout", 30*time.Second)
	v.SetDefault("pdf.no_sandbox", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("authority.base_url", "AUTHORITY_BASE_URL")
	v.BindEnv("database.path", "DATABASE_PATH")
	v.BindEnv("storage.base_dir", "STORAGE_BASE_DIR")
	v.BindEnv("pdf.remote_url", "CHROME_REMOTE_URL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Authority.BaseURL == "" {
		return fmt.Errorf("authority.base_url is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}
	return nil
}
