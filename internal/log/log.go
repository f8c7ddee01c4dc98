// Package log provides a thin structured logging layer on top of zerolog.
// It exposes package level functions so callers never carry a logger around.
package log

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	// sane default so packages can log before Init is called
	logger = zerolog.New(consoleWriter()).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
}

// Init configures the global logger with the given level ("debug", "info",
// "warn" or "error") and output ("stdout", "stderr" or a file path).
func Init(level, output string) {
	var out *os.File
	switch output {
	case "stdout", "":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			panic(fmt.Sprintf("cannot open log output %q: %v", output, err))
		}
		out = f
	}
	w := consoleWriter()
	w.Out = out
	logger = zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(level))
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Level returns the current logging level.
func Level() zerolog.Level {
	return logger.GetLevel()
}

func withFields(ev *zerolog.Event, keysAndValues []any) *zerolog.Event {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		switch v := keysAndValues[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	return ev
}

// Debugw logs a message at debug level with structured key/value pairs.
func Debugw(msg string, keysAndValues ...any) {
	withFields(logger.Debug(), keysAndValues).Msg(msg)
}

// Infow logs a message at info level with structured key/value pairs.
func Infow(msg string, keysAndValues ...any) {
	withFields(logger.Info(), keysAndValues).Msg(msg)
}

// Warnw logs a message at warn level with structured key/value pairs.
func Warnw(msg string, keysAndValues ...any) {
	withFields(logger.Warn(), keysAndValues).Msg(msg)
}

// Errorw logs an error with a companion message at error level.
func Errorw(err error, msg string) {
	logger.Error().Err(err).Msg(msg)
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) {
	logger.Debug().Msgf(format, args...)
}

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) {
	logger.Info().Msgf(format, args...)
}

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) {
	logger.Warn().Msgf(format, args...)
}

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) {
	logger.Error().Msgf(format, args...)
}

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(format string, args ...any) {
	logger.Fatal().Msgf(format, args...)
}

// Error logs its arguments at error level.
func Error(args ...any) {
	logger.Error().Msg(fmt.Sprint(args...))
}

// Fatal logs its arguments at fatal level and exits.
func Fatal(args ...any) {
	logger.Fatal().Msg(fmt.Sprint(args...))
}
