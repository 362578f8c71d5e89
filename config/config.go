package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/olistlens/engine"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Data    Data    `yaml:"data"`
	Filters Filters `yaml:"filters"`
	Ranking Ranking `yaml:"ranking"`
	Detail  Detail  `yaml:"detail"`
	Format  Format  `yaml:"format"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

type Data struct {
	Source       string        `yaml:"source"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

type Filters struct {
	Country string `yaml:"country"`
	Grain   string `yaml:"grain"`
}

type Ranking struct {
	DefaultTopN    int     `yaml:"default_top_n"`
	MinTopN        int     `yaml:"min_top_n"`
	MaxTopN        int     `yaml:"max_top_n"`
	StateMinOrders float64 `yaml:"state_min_orders"`
	CellMinOrders  float64 `yaml:"cell_min_orders"`
}

type Detail struct {
	MaxCellOrders int `yaml:"max_cell_orders"`
}

type Format struct {
	Locale   string `yaml:"locale"`
	Currency string `yaml:"currency"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for olistlens.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "olistlens")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/olistlens/config.yaml > ./config.yaml
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
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'olistlens init' to create a default config",
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

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Data:    Data{FetchTimeout: 30 * time.Second},
		Filters: Filters{Grain: string(engine.GrainMonth)},
		Ranking: Ranking{
			DefaultTopN:    engine.DefaultTopN,
			MinTopN:        engine.DefaultMinTopN,
			MaxTopN:        engine.DefaultMaxTopN,
			StateMinOrders: engine.DefaultStateMinOrders,
			CellMinOrders:  engine.DefaultCellMinOrders,
		},
		Detail:  Detail{MaxCellOrders: engine.DefaultMaxCellOrders},
		Format:  Format{Locale: "en", Currency: "R$"},
		Server:  Server{Port: 8050},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// EngineOptions maps the ranking and detail settings to engine options.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithTopNBounds(c.Ranking.MinTopN, c.Ranking.MaxTopN, c.Ranking.DefaultTopN),
		engine.WithSupportThresholds(c.Ranking.StateMinOrders, c.Ranking.CellMinOrders),
		engine.WithMaxCellOrders(c.Detail.MaxCellOrders),
	}
}

// DefaultFilter is the filter input a session starts from and resets to.
func (c *Config) DefaultFilter() engine.FilterInput {
	return engine.FilterInput{Country: c.Filters.Country, Grain: c.Filters.Grain}
}

// Quiet reports whether engine progress lines should be discarded.
func (c *Config) Quiet() bool {
	return strings.EqualFold(strings.TrimSpace(c.Logging.Level), "QUIET")
}

// Formatter builds the number formatter for text and CSV output. An
// unparseable locale falls back to English.
func (c *Config) Formatter() *engine.Formatter {
	tag, err := language.Parse(c.Format.Locale)
	if err != nil {
		tag = language.English
	}
	return engine.NewFormatter(tag, c.Format.Currency)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
