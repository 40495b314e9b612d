// Package logging builds the zerolog logger shared by the CLI and the
// extraction pipeline.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options holds logger configuration.
type Options struct {
	Level  string
	Format string // json or console
	Output io.Writer
}

// New creates a logger. Output defaults to stderr so stdout stays free for
// command results.
func New(opts Options) (zerolog.Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var zl zerolog.Logger
	switch opts.Format {
	case "", "console":
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		})
	case "json":
		zl = zerolog.New(out)
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", opts.Format)
	}

	return zl.Level(level).With().
		Timestamp().
		Str("service", "boq2xlsx").
		Logger(), nil
}

func parseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
