package session

import (
	"log/slog"
	"time"

	"github.com/lvillar/marginblank"
	"github.com/lvillar/marginblank/convert"
	"github.com/lvillar/marginblank/preview"
	"github.com/lvillar/marginblank/redact"
)

// Option is a functional option for configuring a Session via New.
type Option func(*config)

type config struct {
	maxMargin      float64
	fitFraction    float64
	policy         marginblank.MarginPolicy
	rasterizer     preview.Rasterizer
	converter      convert.Converter
	convertTimeout time.Duration
	fillColor      redact.RGBColor
	logger         *slog.Logger
}

// WithMaxMargin sets the upper bound for every margin, in points.
func WithMaxMargin(points float64) Option {
	return func(c *config) {
		c.maxMargin = points
	}
}

// WithFitFraction sets how much of the viewport a preview may fill, in (0, 1].
func WithFitFraction(f float64) Option {
	return func(c *config) {
		c.fitFraction = f
	}
}

// WithMarginPolicy sets what happens to out-of-range margins.
// Use marginblank.Clamp or marginblank.Reject.
func WithMarginPolicy(p marginblank.MarginPolicy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithRasterizer sets the page renderer used for previews.
func WithRasterizer(r preview.Rasterizer) Option {
	return func(c *config) {
		c.rasterizer = r
	}
}

// WithConverter sets the backend used by CommitAndConvert.
func WithConverter(cv convert.Converter) Option {
	return func(c *config) {
		c.converter = cv
	}
}

// WithConvertTimeout bounds a single CommitAndConvert conversion.
func WithConvertTimeout(d time.Duration) Option {
	return func(c *config) {
		c.convertTimeout = d
	}
}

// WithFillColor sets the color painted over the margins.
func WithFillColor(col redact.RGBColor) Option {
	return func(c *config) {
		c.fillColor = col
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		maxMargin:      marginblank.DefaultMaxMargin,
		fitFraction:    marginblank.DefaultFitFraction,
		policy:         marginblank.Clamp,
		convertTimeout: 2 * time.Minute,
		fillColor:      redact.White,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}
