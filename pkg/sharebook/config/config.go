package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Mode    string `toml:"mode"` // gin mode: debug or release
}

// DatabaseConfig holds the datastore settings
type DatabaseConfig struct {
	Path string `toml:"path"` // sqlite file path
}

// LogConfig holds log output and rotation settings
type LogConfig struct {
	FileName   string `toml:"fileName"`
	MaxSize    int    `toml:"maxSize"`    // MB per file before rotation
	MaxBackups int    `toml:"maxBackups"`
	MaxAge     int    `toml:"maxAge"` // days
	Level      string `toml:"level"`
}

// JWTConfig holds token signing settings
type JWTConfig struct {
	Secret      string `toml:"secret"`
	ExpiryHours int    `toml:"expiryHours"`
}

// Config is the full application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	JWT      JWTConfig      `toml:"jwt"`
}

// Load reads the TOML config file. The path comes from SHAREBOOK_CONFIG or
// falls back to ./sharebook.toml; a missing file yields pure defaults so the
// server can start with zero setup in development.
func Load() (*Config, error) {
	path := os.Getenv("SHAREBOOK_CONFIG")
	if path == "" {
		path = "sharebook.toml"
	}

	cfg := defaults()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server:   ServerConfig{AppName: "sharebook", Host: "0.0.0.0", Port: 8080, Mode: "debug"},
		Database: DatabaseConfig{Path: "sharebook.db"},
		Log:      LogConfig{FileName: "logs/sharebook.log", MaxSize: 100, MaxBackups: 5, MaxAge: 30, Level: "info"},
		JWT:      JWTConfig{ExpiryHours: 24},
	}
}

// applyEnvOverrides keeps the old env-var knobs working alongside the file
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SHAREBOOK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PORT"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Server.Port)
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
}
