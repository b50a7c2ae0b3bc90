/*
Package logx wraps zerolog with the process-wide logger used by socialfeed.

Development builds log human-readable lines to stderr at Debug level; every other
environment logs JSON to stdout at Info level. Helpers take a message followed by
alternating key/value fields.
*/
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ServiceName is attached to every log line.
const ServiceName = "socialfeed"

// InitGlobalLogger configures the global zerolog logger for the given environment.
func InitGlobalLogger(isDevelopment bool) {
	var out io.Writer = os.Stdout
	level := zerolog.InfoLevel

	if isDevelopment {
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
		level = zerolog.DebugLevel
	}

	SetOutput(out, level)
}

// SetOutput replaces the global logger's writer and level. Tests use it to capture output.
func SetOutput(w io.Writer, level zerolog.Level) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	log.Logger = zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", ServiceName).
		Caller().
		Logger()
}

// Logger returns a pointer to the global zerolog.Logger instance.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// checkFields drops an odd-length field list instead of letting zerolog mis-pair it.
func checkFields(level string, fields []any) []any {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Int("fields_count", len(fields)).
			Str("log_level", level).
			Msg("logx call received an odd number of fields, fields ignored")
		return nil
	}
	return fields
}

// Debug records a message at Debug level.
func Debug(msg string, fields ...any) {
	fields = checkFields("Debug", fields)

	Logger().Debug().
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}

// Info records a message at Info level.
func Info(msg string, fields ...any) {
	fields = checkFields("Info", fields)

	Logger().Info().
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}

// Warn records a message at Warn level.
func Warn(msg string, fields ...any) {
	fields = checkFields("Warn", fields)

	Logger().Warn().
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}

// Error records err and a message at Error level.
func Error(err error, msg string, fields ...any) {
	fields = checkFields("Error", fields)

	Logger().Error().
		Err(err).
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}

// Fatal records err and a message, then terminates the process with os.Exit(1).
func Fatal(err error, msg string, fields ...any) {
	fields = checkFields("Fatal", fields)

	Logger().Fatal().
		Err(err).
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}
