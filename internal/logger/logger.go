// Package logger builds the process-wide slog.Logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

type options struct {
	level     slog.Leveler
	logToFile bool
	logFile   string
	output    io.Writer
}

// Option configures New.
type Option func(*options)

// WithLevel sets the minimum level.
func WithLevel(level slog.Leveler) Option {
	return func(o *options) { o.level = level }
}

// WithLogToFile enables the rotating file sink.
func WithLogToFile(enabled bool) Option {
	return func(o *options) { o.logToFile = enabled }
}

// WithLogFile sets the path of the rotating file sink.
func WithLogFile(path string) Option {
	return func(o *options) { o.logFile = path }
}

// WithOutput replaces stderr as the console destination.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// New returns a logger for env. Development gets a colourised text handler,
// production gets JSON. When file logging is enabled records are also
// written as JSON to a size-rotated file.
func New(env string, opts ...Option) *slog.Logger {
	o := options{
		level:   slog.LevelInfo,
		logFile: "logs/music-player.log",
		output:  os.Stderr,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var handler slog.Handler
	if isProduction(env) {
		handler = slog.NewJSONHandler(o.writer(), &slog.HandlerOptions{Level: o.level})
	} else {
		console := tint.NewHandler(o.output, &tint.Options{
			Level:      o.level,
			TimeFormat: time.Kitchen,
		})
		if o.logToFile {
			handler = fanout{console, slog.NewJSONHandler(o.rotator(), &slog.HandlerOptions{Level: o.level})}
		} else {
			handler = console
		}
	}

	return slog.New(handler)
}

func (o *options) writer() io.Writer {
	if !o.logToFile {
		return o.output
	}
	return io.MultiWriter(o.output, o.rotator())
}

func (o *options) rotator() io.Writer {
	return &lumberjack.Logger{
		Filename:   o.logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

func isProduction(env string) bool {
	switch strings.ToLower(env) {
	case "production", "prod":
		return true
	}
	return false
}
