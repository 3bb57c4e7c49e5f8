// Package log is the structured logger used throughout mediatagger.
// It wraps logrus behind a small API so packages log with fields
// (log.F("path", p)) without importing logrus directly.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"mediatagger/internal/errors"

	"github.com/sirupsen/logrus"
)

var (
	isDebug atomic.Bool
	logger  = NewLogger()
)

// Field is a single structured key/value pair
type Field struct {
	Key   string
	Value interface{}
}

// F creates a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logging is the logger interface accepted by components that log
type Logging interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	With(fields ...Field) Logging
	WithError(err error) Logging
	WithContext(ctx context.Context) Logging
}

// Logger is the logrus-backed implementation of Logging
type Logger struct {
	entry *logrus.Entry
	file  *os.File
}

type options struct {
	out  io.Writer
	json bool
	file string
}

// Option configures a Logger
type Option func(*options)

// WithOutput directs log output to w
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithJSON switches the output to one JSON object per line
func WithJSON() Option {
	return func(o *options) { o.json = true }
}

// WithFile tees output to the given file in addition to the main output
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// NewLogger creates a logger writing to stdout unless configured otherwise
func NewLogger(opts ...Option) *Logger {
	o := &options{out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	base := logrus.New()
	base.SetLevel(logrus.DebugLevel)
	if o.json {
		base.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg:  "message",
				logrus.FieldKeyTime: "timestamp",
			},
		})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	l := &Logger{}
	out := o.out
	if o.file != "" {
		f, err := os.OpenFile(o.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log: cannot open %s: %v\n", o.file, err)
		} else {
			l.file = f
			out = io.MultiWriter(o.out, f)
		}
	}
	base.SetOutput(out)
	l.entry = logrus.NewEntry(base)
	return l
}

// SetDebug toggles debug output for every logger
func SetDebug(debug bool) {
	isDebug.Store(debug)
}

// Configure replaces the package-level logger
func Configure(opts ...Option) {
	logger = NewLogger(opts...)
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) Debug(args ...interface{}) {
	if isDebug.Load() {
		l.entry.Debug(args...)
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if isDebug.Load() {
		l.entry.Debugf(format, args...)
	}
}

func (l *Logger) Info(args ...interface{})                 { l.entry.Info(args...) }
func (l *Logger) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }
func (l *Logger) Warn(args ...interface{})                 { l.entry.Warn(args...) }
func (l *Logger) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }
func (l *Logger) Error(args ...interface{})                { l.entry.Error(args...) }
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// With returns a logger carrying the given fields
func (l *Logger) With(fields ...Field) Logging {
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key] = f.Value
	}
	return &Logger{entry: l.entry.WithFields(lf), file: l.file}
}

// WithError returns a logger carrying the error and, for application
// errors, its kind and subject fields
func (l *Logger) WithError(err error) Logging {
	return l.With(errorFields(err)...)
}

// WithContext is accepted for interface symmetry; no context values are logged yet
func (l *Logger) WithContext(ctx context.Context) Logging {
	if ctx == nil {
		return l
	}
	return &Logger{entry: l.entry.WithContext(ctx), file: l.file}
}

func errorFields(err error) []Field {
	if err == nil {
		return []Field{F("error", "<nil>")}
	}
	fields := []Field{F("error", err.Error())}

	var appErr interface{ Kind() errors.ErrorKind }
	if errors.As(err, &appErr) {
		fields = append(fields, F("error_kind", int(errors.KindOf(err))))
	}

	var storeErr *errors.StoreError
	var fileErr *errors.FileError
	var tagErr *errors.TagError
	var mediaErr *errors.MediaError
	var copyErr *errors.CopyError
	var configErr *errors.ConfigError
	switch {
	case errors.As(err, &copyErr):
		fields = append(fields, F("src", copyErr.Source()), F("dst", copyErr.Destination()))
	case errors.As(err, &storeErr):
		fields = append(fields, F("path", storeErr.Path()))
	case errors.As(err, &tagErr):
		fields = append(fields, F("path", tagErr.Path()))
	case errors.As(err, &mediaErr):
		fields = append(fields, F("path", mediaErr.Path()))
	case errors.As(err, &fileErr):
		fields = append(fields, F("path", fileErr.Path()))
	case errors.As(err, &configErr):
		fields = append(fields, F("param", configErr.Param()))
	}
	return fields
}

// Package-level helpers log through the configured global logger.

func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Debug logs a message with arguments
func Debug(msg string, args ...interface{}) {
	logger.Debugf(msg, args...)
}

// Debugf logs a formatted message
func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Error logs an error message with arguments
func Error(msg string, args ...interface{}) {
	logger.Errorf(msg, args...)
}

// Errorf logs a formatted error message
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// Warn logs a warning message with arguments
func Warn(msg string, args ...interface{}) {
	logger.Warnf(msg, args...)
}

// Warnf logs a formatted warning message
func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Default returns the package-level logger
func Default() Logging {
	return logger
}

// LogWithFields returns the global logger carrying fields
func LogWithFields(fields ...Field) Logging {
	return logger.With(fields...)
}

// LogWithError returns the global logger carrying err
func LogWithError(err error) Logging {
	return logger.WithError(err)
}

// LogError logs err at error level with a message
func LogError(err error, msg string) {
	logger.WithError(err).Error(msg)
}
