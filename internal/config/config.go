package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the preferences file (~/.config/shotty/config.yaml)
type Config struct {
	AWSProfile string     `yaml:"aws_profile,omitempty"`
	AWSRegion  string     `yaml:"aws_region,omitempty"`
	Output     string     `yaml:"output,omitempty"`    // text, table
	LogLevel   string     `yaml:"log_level,omitempty"` // debug, info, warn, error, crit
	Wait       WaitConfig `yaml:"wait,omitempty"`
}

// WaitConfig bounds the instance state waits of the snapshot workflow
type WaitConfig struct {
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
}

// GetConfigDir returns the config directory path ($XDG_CONFIG_HOME/shotty or ~/.config/shotty)
func GetConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "shotty")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".shotty"
	}
	return filepath.Join(home, ".config", "shotty")
}

// GetConfigPath returns the preferences file path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// LoadConfig loads the preferences file. A missing file yields an empty Config.
func LoadConfig() (*Config, error) {
	data, err := os.ReadFile(GetConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes the preferences file, creating its directory if needed
func SaveConfig(cfg *Config) error {
	if err := os.MkdirAll(GetConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(GetConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SetProfile updates the AWS profile in the preferences file
func SetProfile(profileName string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	cfg.AWSProfile = profileName
	return SaveConfig(cfg)
}

// GetSavedProfile returns the saved AWS profile from config
func GetSavedProfile() string {
	cfg, err := LoadConfig()
	if err != nil {
		return ""
	}
	return cfg.AWSProfile
}
