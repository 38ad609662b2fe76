// Package config loads the marginblank YAML configuration file and turns
// it into session options.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lvillar/marginblank"
	"github.com/lvillar/marginblank/convert"
	"github.com/lvillar/marginblank/redact"
	"github.com/lvillar/marginblank/session"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "MARGINBLANK_CONFIG"

// Config holds the full marginblank configuration.
type Config struct {
	Margins MarginsConfig `yaml:"margins"`
	Preview PreviewConfig `yaml:"preview"`
	Convert ConvertConfig `yaml:"convert"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// MarginsConfig bounds operator input and picks the fill color.
type MarginsConfig struct {
	Max    float64 `yaml:"max"`    // points
	Policy string  `yaml:"policy"` // clamp | reject
	Fill   string  `yaml:"fill"`   // hex RGB, e.g. "#ffffff"
}

// PreviewConfig controls preview sizing.
type PreviewConfig struct {
	FitFraction float64 `yaml:"fit_fraction"`
}

// ConvertConfig configures the DOCX converter.
type ConvertConfig struct {
	Command    string        `yaml:"command"`
	Filter     string        `yaml:"filter"`
	Timeout    time.Duration `yaml:"timeout"`
	Attempts   int           `yaml:"attempts"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Margins: MarginsConfig{
			Max:    marginblank.DefaultMaxMargin,
			Policy: marginblank.Clamp.String(),
			Fill:   "#ffffff",
		},
		Preview: PreviewConfig{FitFraction: marginblank.DefaultFitFraction},
		Convert: ConvertConfig{
			Command:    "soffice",
			Filter:     "docx:MS Word 2007 XML",
			Timeout:    2 * time.Minute,
			Attempts:   3,
			RetryDelay: time.Second,
		},
		Server: ServerConfig{Listen: ":8080"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads and parses a YAML config file. Returns DefaultConfig merged
// with the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// FromEnv loads the file named by EnvVar, or returns the defaults when the
// variable is unset.
func FromEnv() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// Validate checks that values are sane.
func (c *Config) Validate() error {
	if c.Margins.Max <= 0 {
		return fmt.Errorf("margins.max must be > 0")
	}
	if _, err := marginblank.ParseMarginPolicy(c.Margins.Policy); err != nil {
		return fmt.Errorf("margins.policy: %w", err)
	}
	if _, err := ParseColor(c.Margins.Fill); err != nil {
		return fmt.Errorf("margins.fill: %w", err)
	}
	if c.Preview.FitFraction <= 0 || c.Preview.FitFraction > 1 {
		return fmt.Errorf("preview.fit_fraction must be in (0, 1]")
	}
	if c.Convert.Timeout <= 0 {
		return fmt.Errorf("convert.timeout must be > 0")
	}
	if c.Convert.Attempts <= 0 {
		return fmt.Errorf("convert.attempts must be > 0")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json", "":
	default:
		return fmt.Errorf("log.format: unsupported %q (use text or json)", c.Log.Format)
	}
	return nil
}

// Converter returns the soffice converter wrapped in bounded retries.
func (c *Config) Converter(logger *slog.Logger) convert.Converter {
	return convert.Retry{
		Converter: &convert.Soffice{Command: c.Convert.Command, Filter: c.Convert.Filter, Logger: logger},
		Attempts:  c.Convert.Attempts,
		Delay:     c.Convert.RetryDelay,
		Logger:    logger,
	}
}

// SessionOptions translates the configuration into session options. The
// rasterizer is left to the caller since it owns native resources.
func (c *Config) SessionOptions(logger *slog.Logger) ([]session.Option, error) {
	policy, err := marginblank.ParseMarginPolicy(c.Margins.Policy)
	if err != nil {
		return nil, err
	}
	fill, err := ParseColor(c.Margins.Fill)
	if err != nil {
		return nil, err
	}
	return []session.Option{
		session.WithMaxMargin(c.Margins.Max),
		session.WithMarginPolicy(policy),
		session.WithFitFraction(c.Preview.FitFraction),
		session.WithFillColor(fill),
		session.WithConverter(c.Converter(logger)),
		session.WithConvertTimeout(c.Convert.Timeout),
		session.WithLogger(logger),
	}, nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lv slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lv.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lv, nil
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (redact.RGBColor, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return redact.RGBColor{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return redact.RGBColor{}, fmt.Errorf("color %q: %w", s, err)
	}
	return redact.RGBColor{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}
