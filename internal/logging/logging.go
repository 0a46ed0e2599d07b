// Package logging configures the slog logger used by appfinish.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/tmc/appfinish/internal/system"
)

// Options controls logger construction. The zero value logs text at
// info level to stderr.
type Options struct {
	Debug bool
	JSON  bool
	// Dest is "stderr", "file:<path>" or "both:<path>".
	Dest string
	// Time keeps the timestamp attribute in text output.
	Time bool
	// Stderr overrides os.Stderr, mainly for tests.
	Stderr io.Writer
}

// OptionsFromEnv reads APPFINISH_DEBUG, APPFINISH_LOG_JSON,
// APPFINISH_LOG_DEST and APPFINISH_LOG_TIME.
func OptionsFromEnv() Options {
	return Options{
		Debug: system.IsDebugEnabled(),
		JSON:  system.GetBool(system.EnvLogJSON),
		Dest:  system.GetString(system.EnvLogDest, "stderr"),
		Time:  system.GetBool(system.EnvLogTime),
	}
}

// New creates a configured logger. The returned close function releases
// the log file, if one was opened; it is always safe to call.
func New(opts Options) (*slog.Logger, func() error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var writers []io.Writer
	var file *os.File
	openLog := func(path string) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(stderr, "appfinish: failed to open log file %s: %v\n", path, err)
			return
		}
		file = f
		writers = append(writers, f)
	}

	switch {
	case strings.HasPrefix(opts.Dest, "file:"):
		openLog(strings.TrimPrefix(opts.Dest, "file:"))
		if file == nil {
			writers = append(writers, stderr)
		}
	case strings.HasPrefix(opts.Dest, "both:"):
		writers = append(writers, stderr)
		openLog(strings.TrimPrefix(opts.Dest, "both:"))
	default:
		writers = append(writers, stderr)
	}

	var output io.Writer
	if len(writers) == 1 {
		output = writers[0]
	} else {
		output = io.MultiWriter(writers...)
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 && !opts.Time {
					return slog.Attr{}
				}
				return a
			},
		})
	}

	closeFn := func() error { return nil }
	if file != nil {
		closeFn = file.Close
	}
	return slog.New(handler).With("component", "appfinish"), closeFn
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
