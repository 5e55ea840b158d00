package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"cupspdf/internal/config"
)

// Supported log formats.
const (
	FormatAuto    = "auto"
	FormatCUPS    = "cups"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Writer receives the primary stream, normally the backend's stderr.
	Writer io.Writer
	// File, when set, receives a timestamped copy of every record.
	File        string
	Development bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	addSource := opts.Development || level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" || format == FormatAuto {
		format = detectFormat(writer)
	}

	var primary slog.Handler
	switch format {
	case FormatJSON:
		primary = newJSONHandler(writer, levelVar, addSource)
	case FormatConsole:
		primary = newConsoleHandler(writer, levelVar, addSource)
	case FormatCUPS:
		primary = newCUPSHandler(writer, levelVar)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	path := strings.TrimSpace(opts.File)
	if path == "" {
		return slog.New(primary), nil
	}
	file, err := openLogFile(path)
	if err != nil {
		return nil, err
	}
	var secondary slog.Handler
	if format == FormatJSON {
		secondary = newJSONHandler(file, levelVar, addSource)
	} else {
		secondary = newConsoleHandler(file, levelVar, addSource)
	}
	return slog.New(newFanoutHandler(primary, secondary)), nil
}

// NewFromConfig creates a logger from the [logging] section writing to w.
func NewFromConfig(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: FormatAuto, Writer: w})
	}
	return New(Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: w,
		File:   cfg.Logging.File,
	})
}

// detectFormat picks the human-oriented console format for interactive
// terminals and the cupsd prefix format otherwise.
func detectFormat(w io.Writer) string {
	type fdWriter interface{ Fd() uintptr }
	if f, ok := w.(fdWriter); ok {
		fd := f.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return FormatConsole
		}
	}
	return FormatCUPS
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openLogFile(path string) (io.Writer, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}
