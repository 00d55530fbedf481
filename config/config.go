package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the stabled node configuration, loaded from TOML.
type Config struct {
	ListenAddress      string  `toml:"ListenAddress"`
	DataDir            string  `toml:"DataDir"`
	LogFile            string  `toml:"LogFile"`
	Environment        string  `toml:"Environment"`
	AssetsFile         string  `toml:"AssetsFile"`
	AuthSecretEnv      string  `toml:"AuthSecretEnv"`
	MaxQuoteAge        string  `toml:"MaxQuoteAge"`
	RateLimitPerMinute float64 `toml:"RateLimitPerMinute"`
	RateLimitBurst     int     `toml:"RateLimitBurst"`
}

// Load reads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	for _, undecoded := range meta.Undecoded() {
		return nil, fmt.Errorf("config file %s contains unknown field %q", path, undecoded.String())
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		ListenAddress:      ":8553",
		DataDir:            "./stabled-data",
		AssetsFile:         "assets.yaml",
		AuthSecretEnv:      "STABLED_AUTH_SECRET",
		MaxQuoteAge:        "1h",
		RateLimitPerMinute: 600,
		RateLimitBurst:     30,
	}
}

func createDefault(path string) (*Config, error) {
	cfg := defaultConfig()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("config: ListenAddress required")
	}
	if c.AssetsFile == "" {
		return fmt.Errorf("config: AssetsFile required")
	}
	if _, err := c.QuoteMaxAge(); err != nil {
		return err
	}
	return nil
}

// QuoteMaxAge parses the configured oracle freshness window.
func (c *Config) QuoteMaxAge() (time.Duration, error) {
	if c.MaxQuoteAge == "" {
		return 0, nil
	}
	age, err := time.ParseDuration(c.MaxQuoteAge)
	if err != nil {
		return 0, fmt.Errorf("config: invalid MaxQuoteAge %q: %w", c.MaxQuoteAge, err)
	}
	if age < 0 {
		return 0, fmt.Errorf("config: MaxQuoteAge must not be negative")
	}
	return age, nil
}

// AuthSecret resolves the shared HMAC secret from the configured environment
// variable. Empty means authentication is disabled.
func (c *Config) AuthSecret() string {
	if c.AuthSecretEnv == "" {
		return ""
	}
	return os.Getenv(c.AuthSecretEnv)
}
