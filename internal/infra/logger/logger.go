// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Config represents logger configuration.
type Config struct {
	Output string // "stdout", "stderr", or "file"
	Level  string // "debug", "info", "warn", "error"
	File   string // log file path (used when Output is "file")
}

func (c Config) console() bool {
	switch strings.ToLower(c.Output) {
	case "stdout", "stderr", "":
		return true
	}
	return false
}

// Init initializes the global zerolog logger with the given configuration.
// The returned function closes the log file, if any.
func Init(cfg Config) (func() error, error) {
	level := ParseLevel(cfg.Level)
	closer := func() error { return nil }

	var writer io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		if cfg.File == "" {
			return closer, errors.New("log file path is required for file output")
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return closer, errors.Wrapf(err, "failed to open log file %s", cfg.File)
		}
		writer = f
		closer = f.Close
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.TimeOnly
	zerolog.CallerMarshalFunc = shortCaller

	zlog.Logger = New(writer, level, cfg.console())
	zerolog.DefaultContextLogger = &zlog.Logger
	return closer, nil
}

// New builds a logger writing to w.
// Console loggers use colored output; others write JSON. Caller
// information is added at debug level only.
func New(w io.Writer, level zerolog.Level, console bool) zerolog.Logger {
	if console {
		cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
		if level == zerolog.DebugLevel {
			cw.PartsOrder = []string{"time", "level", "message", "caller"}
			cw.FormatCaller = func(i interface{}) string {
				s, _ := i.(string)
				return "(" + s + ")"
			}
			return zerolog.New(cw).With().Timestamp().Caller().Logger()
		}
		return zerolog.New(cw).With().Timestamp().Logger()
	}

	ctx := zerolog.New(w).With().Timestamp()
	if level == zerolog.DebugLevel {
		return ctx.Caller().Logger()
	}
	return ctx.Logger()
}

// shortCaller keeps the parent directory and file name ("playback/controller.go:42").
func shortCaller(pc uintptr, file string, line int) string {
	parts := strings.Split(file, string(filepath.Separator))
	if len(parts) > 1 {
		return filepath.Join(parts[len(parts)-2:]...) + ":" + strconv.Itoa(line)
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// ParseLevel parses the log level string. Unknown levels map to info.
func ParseLevel(level string) zerolog.Level {
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
