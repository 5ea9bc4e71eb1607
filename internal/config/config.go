package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources  Sources  `yaml:"sources"`
	Analyzer Analyzer `yaml:"analyzer"`
	Ingest   Ingest   `yaml:"ingest"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
}

type Sources struct {
	Feeds []Feed     `yaml:"feeds"`
	APIs  APIsConfig `yaml:"apis"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type APIsConfig struct {
	Finnhub  FinnhubConfig  `yaml:"finnhub"`
	Newsdata NewsdataConfig `yaml:"newsdata"`
}

type FinnhubConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKeyEnv string `yaml:"api_key_env"`
	Category  string `yaml:"category"`
}

type NewsdataConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKeyEnv string `yaml:"api_key_env"`
	Country   string `yaml:"country"`
	Language  string `yaml:"language"`
}

type Analyzer struct {
	APIKeyEnv          string `yaml:"api_key_env"`
	Model              string `yaml:"model"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	MinContentLen      int    `yaml:"min_content_len"`
}

type Ingest struct {
	// UnroutedPolicy decides what happens to a fetched item whose source
	// tag matches no configured source: "fallback" attributes it to the
	// first configured source, "drop" discards it.
	UnroutedPolicy   string `yaml:"unrouted_policy"`
	FetchFullContent bool   `yaml:"fetch_full_content"`
	MaxCleanLen      int    `yaml:"max_clean_len"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for newslens.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "newslens")
}

// DataDir returns the XDG data directory for newslens.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "newslens")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/newslens/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newslens init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			APIs: APIsConfig{
				Finnhub: FinnhubConfig{
					APIKeyEnv: "FINNHUB_API_KEY",
					Category:  "general",
				},
				Newsdata: NewsdataConfig{
					APIKeyEnv: "NEWSDATA_API_KEY",
					Country:   "us",
					Language:  "en",
				},
			},
		},
		Analyzer: Analyzer{
			APIKeyEnv:          "GEMINI_API_KEY",
			Model:              "gemini-1.5-flash",
			RateLimitPerMinute: 60,
			MinContentLen:      50,
		},
		Ingest: Ingest{
			UnroutedPolicy: "fallback",
			MaxCleanLen:    8000,
		},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Ingest.UnroutedPolicy != "fallback" && cfg.Ingest.UnroutedPolicy != "drop" {
		return nil, fmt.Errorf("invalid ingest.unrouted_policy %q (want fallback or drop)", cfg.Ingest.UnroutedPolicy)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// AnalyzerAPIKey resolves the analyzer credential from the environment.
func (c *Config) AnalyzerAPIKey() string {
	return os.Getenv(c.Analyzer.APIKeyEnv)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
