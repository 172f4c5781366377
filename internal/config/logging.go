// ABOUTME: Structured logger construction for the server
// ABOUTME: Text or JSON output to the console, teed to a log file when set
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the server logger. With a log file set, output goes to
// both console and file.
func NewLogger(cfg Config, console io.Writer) (*slog.Logger, io.Closer, error) {
	out := console
	var closer io.Closer = nopCloser{}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening log file: %w", err)
		}
		out = io.MultiWriter(console, f)
		closer = f
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
