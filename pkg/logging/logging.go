// Package logging provides structured logging for the ingestion and summary
// pipelines using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

var logger *zerolog.Logger

func init() {
	// Default to JSON logging at info level
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	logger = &l
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Options configures the global logger.
type Options struct {
	// Debug sets the level to Debug.
	Debug bool
	// Human uses a console writer on stderr instead of JSON.
	Human bool
	// File, if set, receives an append-only copy of every line in plain text.
	File string
}

// Init configures the global logger and returns a closer for the log file.
// The closer is never nil.
func Init(opts Options) (io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	var stderr io.Writer = os.Stderr
	if opts.Human {
		stderr = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    false,
		}
	}

	closer := io.Closer(nopCloser{})
	var output zerolog.LevelWriter = zerolog.LevelWriterAdapter{Writer: stderr}

	if opts.File != "" {
		f, err := OpenAppend(opts.File)
		if err != nil {
			return closer, err
		}
		closer = f
		output = zerolog.MultiLevelWriter(stderr, zerolog.ConsoleWriter{
			Out:        f,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}

	l := zerolog.New(output).With().Timestamp().Logger()
	logger = &l
	return closer, nil
}

// OpenAppend opens path for appending, creating it and its directory.
func OpenAppend(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// L returns the base logger.
func L() *zerolog.Logger {
	return logger
}

// WithPhase returns a logger with the phase field set.
func WithPhase(phase string) zerolog.Logger {
	return logger.With().Str("phase", phase).Logger()
}

// SetLogger allows overriding the global logger (useful for testing).
func SetLogger(l zerolog.Logger) {
	logger = &l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
