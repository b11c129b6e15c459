package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pevans/blogscraper/scraper"
)

// Environment variables recognized by Load.
const (
	EnvBaseURL        = "BLOGSCRAPER_BASE_URL"
	EnvTargetCount    = "BLOGSCRAPER_TARGET_COUNT"
	EnvRequestTimeout = "BLOGSCRAPER_REQUEST_TIMEOUT"
	EnvUserAgent      = "BLOGSCRAPER_USER_AGENT"
	EnvDB             = "BLOGSCRAPER_DB"
	EnvAddr           = "BLOGSCRAPER_ADDR"
	EnvLogLevel       = "BLOGSCRAPER_LOG_LEVEL"
	EnvLogFormat      = "BLOGSCRAPER_LOG_FORMAT"
)

// Defaults for the non-scraper settings.
const (
	DefaultDBPath    = "blogscraper.db"
	DefaultAddr      = "localhost:8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config is the resolved application configuration.
type Config struct {
	Scraper   scraper.Config
	DBPath    string
	Addr      string
	LogLevel  string
	LogFormat string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Scraper:   scraper.DefaultConfig(),
		DBPath:    DefaultDBPath,
		Addr:      DefaultAddr,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// LoadOptions selects the files Load reads.
type LoadOptions struct {
	ConfigPath string // Empty means ~/.blogscraper/config.yaml
	EnvFile    string // Empty means .env in the working directory
}

// Load resolves configuration with precedence:
// 1. Environment variables (highest priority), including those from the
// .env file, which never override variables already set
// 2. Configuration file
// 3. Default values (lowest priority)
//
// Command line flags are applied by the caller on top of the result.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	var file *FileConfig
	var err error
	if opts.ConfigPath != "" {
		file, err = LoadConfigFileFrom(opts.ConfigPath)
	} else {
		file, err = LoadConfigFile()
	}
	if err != nil {
		return cfg, err
	}
	if file != nil {
		if err := cfg.applyFile(file); err != nil {
			return cfg, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c *Config) applyFile(file *FileConfig) error {
	if file.Scraper.BaseURL != "" {
		c.Scraper.BaseURL = file.Scraper.BaseURL
	}
	if file.Scraper.TargetCount != 0 {
		c.Scraper.TargetCount = file.Scraper.TargetCount
	}
	if file.Scraper.RequestTimeout != "" {
		d, err := time.ParseDuration(file.Scraper.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid scraper.request_timeout: %w", err)
		}
		c.Scraper.RequestTimeout = d
	}
	if file.Scraper.UserAgent != "" {
		c.Scraper.UserAgent = file.Scraper.UserAgent
	}
	if file.Storage.DB != "" {
		c.DBPath = file.Storage.DB
	}
	if file.Server.Addr != "" {
		c.Addr = file.Server.Addr
	}
	if file.Log.Level != "" {
		c.LogLevel = file.Log.Level
	}
	if file.Log.Format != "" {
		c.LogFormat = file.Log.Format
	}
	return nil
}

func (c *Config) applyEnv() error {
	if val := os.Getenv(EnvBaseURL); val != "" {
		c.Scraper.BaseURL = val
	}
	if val := os.Getenv(EnvTargetCount); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTargetCount, err)
		}
		c.Scraper.TargetCount = n
	}
	if val := os.Getenv(EnvRequestTimeout); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRequestTimeout, err)
		}
		c.Scraper.RequestTimeout = d
	}
	if val := os.Getenv(EnvUserAgent); val != "" {
		c.Scraper.UserAgent = val
	}
	if val := os.Getenv(EnvDB); val != "" {
		c.DBPath = val
	}
	if val := os.Getenv(EnvAddr); val != "" {
		c.Addr = val
	}
	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv(EnvLogFormat); val != "" {
		c.LogFormat = val
	}
	return nil
}
