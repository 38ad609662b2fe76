// Package convert hands a blanked PDF to an external converter that
// produces an editable word-processing copy.
//
// The converter is an outside service: it may be slow, missing or flaky.
// Every failure is reported as a ConversionError so callers can tell the
// operator that the blanked PDF itself is fine.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/lvillar/marginblank"
)

// Converter turns the document at src into an editable copy and returns the
// path of that copy.
type Converter interface {
	Convert(ctx context.Context, src string) (string, error)
}

// Func adapts a function to the Converter interface.
type Func func(ctx context.Context, src string) (string, error)

// Convert calls f.
func (f Func) Convert(ctx context.Context, src string) (string, error) {
	return f(ctx, src)
}

// Retry retries a flaky converter a bounded number of times, doubling the
// wait between attempts. A missing converter binary and context
// cancellation are not retried.
type Retry struct {
	Converter Converter
	Attempts  int           // total attempts (default: 3)
	Delay     time.Duration // wait before the second attempt (default: 1s)
	Logger    *slog.Logger  // default: slog.Default()
}

// Convert implements Converter.
func (r Retry) Convert(ctx context.Context, src string) (string, error) {
	if r.Attempts <= 0 {
		r.Attempts = 3
	}
	if r.Delay <= 0 {
		r.Delay = time.Second
	}
	if r.Logger == nil {
		r.Logger = slog.Default()
	}

	delay := r.Delay
	var err error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		var out string
		out, err = r.Converter.Convert(ctx, src)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
			break
		}
		if !retryable(err) || attempt == r.Attempts {
			break
		}
		r.Logger.Warn("convert: attempt failed, retrying", "src", src, "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", wrap(src, ctx.Err())
		}
		delay *= 2
	}
	return "", wrap(src, err)
}

func retryable(err error) bool {
	return !errors.Is(err, exec.ErrNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// wrap reports err as a ConversionError unless it already is one.
func wrap(src string, err error) error {
	if err == nil || marginblank.KindOf(err) == marginblank.KindConversion {
		return err
	}
	return marginblank.NewError(marginblank.KindConversion, "Convert", src, err)
}
