// Package logging builds the process-wide structured logger from config.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sinowatch/sinowatch/internal/config"
)

// New returns a logger writing to stdout in the configured format and at
// the configured level.
func New(cfg config.LoggingConfig) (*slog.Logger, error) {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit output destination.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
}
