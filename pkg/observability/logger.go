package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog for structured, service-scoped logging
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a structured logger for the named service. Levels
// are the usual debug/info/warn/error; anything else falls back to
// info. ENV=development switches to pretty console output.
func NewLogger(service, level string) *Logger {
	var output io.Writer = os.Stdout
	if os.Getenv("ENV") == "development" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	zeroLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || zeroLevel == zerolog.NoLevel {
		zeroLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(zeroLevel)

	logger := zerolog.New(output).
		With().
		Timestamp().
		Str("service", service).
		Logger()

	return &Logger{logger: logger}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}

// Fatal logs a fatal error and exits
func (l *Logger) Fatal(msg string, err error) {
	l.logger.Fatal().Err(err).Msg(msg)
}

// WithField returns a logger carrying an extra field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// Zerolog exposes the underlying zerolog.Logger for components that
// scope their own fields
func (l *Logger) Zerolog() zerolog.Logger {
	return l.logger
}
