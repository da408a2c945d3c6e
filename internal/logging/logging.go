// Package logging builds the application logger.
//
// The TUI owns the terminal, so log output goes to a file by default.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Stderr as a path sends log output to standard error.
const Stderr = "-"

// Options holds logger configuration.
type Options struct {
	Path      string // file path, Stderr, or empty to discard
	Level     string // debug, info, warn, error
	Formatter string // text, json, logfmt
	Prefix    string
}

// New opens the log destination and returns a logger plus a closer for it.
func New(opts Options) (*log.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	formatter, err := ParseFormatter(opts.Formatter)
	if err != nil {
		return nil, nil, err
	}

	var (
		w      io.Writer = io.Discard
		closer io.Closer = nopCloser{}
	)
	switch opts.Path {
	case "":
	case Stderr:
		w = os.Stderr
	default:
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		Prefix:          opts.Prefix,
	})
	return logger, closer, nil
}

// ParseLevel parses a level name; empty means info.
func ParseLevel(s string) (log.Level, error) {
	if strings.TrimSpace(s) == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}

// ParseFormatter parses a formatter name; empty means text.
func ParseFormatter(s string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	}
	return log.TextFormatter, fmt.Errorf("unknown log format %q", s)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
