package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger. When file is set, log lines are also
// appended to it; the returned closer releases the file handle.
func Init(level string, format string, file string) (io.Closer, error) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	var out io.Writer = os.Stderr
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	if file == "" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return nopCloser{}, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(out, f)).With().Timestamp().Logger()
	return f, nil
}

func Get() zerolog.Logger {
	return log.Logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
