// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output (debug|info|warn|error).
	Level string

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// FilePath, when set, appends log output to the given file in addition
	// to Output. The file is created if it does not exist.
	FilePath string

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures and returns the root zerolog logger together with a
// close function releasing the log file, if one was opened. The close
// function is never nil.
//
// When cfg.FilePath is set, log entries are written to both the configured
// output and the file. If the file cannot be opened, logging degrades to the
// primary output and the failure is reported through it.
func Setup(cfg Config) (zerolog.Logger, func() error) {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	closeFile := func() error { return nil }
	var openErr error
	if cfg.FilePath != "" {
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			openErr = err
		} else {
			out = zerolog.MultiLevelWriter(out, f)
			closeFile = f.Close
		}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	if openErr != nil {
		logger.Warn().
			Err(openErr).
			Str("path", cfg.FilePath).
			Msg("log file unavailable, using primary output only")
	}

	return logger, closeFile
}

// ParseLevel converts a level string to zerolog.Level. Unknown levels
// default to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a child logger tagged with the given component name.
func Component(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
