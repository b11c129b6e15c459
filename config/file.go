package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ScraperFileConfig represents the scraper section of the config file.
type ScraperFileConfig struct {
	BaseURL        string `yaml:"base_url"`
	TargetCount    int    `yaml:"target_count"`
	RequestTimeout string `yaml:"request_timeout"` // Go duration, e.g. "30s"
	UserAgent      string `yaml:"user_agent"`
}

// StorageConfig represents storage configuration from config file.
type StorageConfig struct {
	DB string `yaml:"db"`
}

// ServerConfig represents the HTTP server section of the config file.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig represents the logging section of the config file.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FileConfig represents the structure of ~/.blogscraper/config.yaml.
type FileConfig struct {
	Scraper ScraperFileConfig `yaml:"scraper"`
	Storage StorageConfig     `yaml:"storage"`
	Server  ServerConfig      `yaml:"server"`
	Log     LogConfig         `yaml:"log"`
}

// ConfigFilePath returns the default config file location.
func ConfigFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".blogscraper", "config.yaml"), nil
}

// LoadConfigFile loads configuration from ~/.blogscraper/config.yaml. Returns
// nil if the file doesn't exist (not an error). Returns error if the file
// exists but cannot be parsed.
func LoadConfigFile() (*FileConfig, error) {
	configPath, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFileFrom(configPath)
}

// LoadConfigFileFrom loads configuration from configPath, with the same
// missing-file behavior as LoadConfigFile.
func LoadConfigFileFrom(configPath string) (*FileConfig, error) {
	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}

	// Read file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}
