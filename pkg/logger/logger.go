package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"datedreader/pkg/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the structured logger every package writes through
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	DebugWithFields(msg string, fields map[string]interface{})
	InfoWithFields(msg string, fields map[string]interface{})
	WarnWithFields(msg string, fields map[string]interface{})
	ErrorWithFields(msg string, fields map[string]interface{})
}

// zerologLogger carries bound fields and attaches them to every event
type zerologLogger struct {
	zl     zerolog.Logger
	fields map[string]interface{}
}

// New creates a new Logger writing to stderr. Stdout is left to the lines
// being read.
func New(cfg *config.LoggingConfig) (Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter creates a Logger whose console output goes to w
func NewWithWriter(cfg *config.LoggingConfig, w io.Writer) (Logger, error) {
	zl, err := build(cfg, w)
	if err != nil {
		return nil, err
	}
	return &zerologLogger{zl: zl}, nil
}

func build(cfg *config.LoggingConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level: %w", err)
	}

	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = consoleWriter(w)
	if cfg.File != "" {
		file, err := openLogFile(cfg.File)
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("failed to setup file output: %w", err)
		}
		// Console stays human readable, the file gets JSON
		output = zerolog.MultiLevelWriter(output, file)
	}

	return zerolog.New(output).Level(level).With().
		Timestamp().
		Str("app", "datedreader").
		Logger(), nil
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		FormatLevel: func(i interface{}) string {
			if i == nil {
				return ""
			}
			return strings.ToUpper(fmt.Sprintf("%-5s", i))
		},
		FormatMessage: func(i interface{}) string {
			if i == nil {
				return ""
			}
			return fmt.Sprintf("| %s", i)
		},
	}
}

func openLogFile(path string) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

// parseLogLevel converts string log level to zerolog.Level
func parseLogLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled":
		return zerolog.Disabled, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

func (l *zerologLogger) Debug(msg string) { l.emit(zerolog.DebugLevel, msg, nil) }
func (l *zerologLogger) Info(msg string)  { l.emit(zerolog.InfoLevel, msg, nil) }
func (l *zerologLogger) Warn(msg string)  { l.emit(zerolog.WarnLevel, msg, nil) }
func (l *zerologLogger) Error(msg string) { l.emit(zerolog.ErrorLevel, msg, nil) }

func (l *zerologLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.emit(zerolog.DebugLevel, msg, fields)
}

func (l *zerologLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.emit(zerolog.InfoLevel, msg, fields)
}

func (l *zerologLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.emit(zerolog.WarnLevel, msg, fields)
}

func (l *zerologLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.emit(zerolog.ErrorLevel, msg, fields)
}

func (l *zerologLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a child logger; the parent's fields are left alone
func (l *zerologLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &zerologLogger{zl: l.zl, fields: merged}
}

func (l *zerologLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *zerologLogger) emit(level zerolog.Level, msg string, extra map[string]interface{}) {
	event := l.zl.WithLevel(level)
	if event == nil {
		return
	}
	for key, value := range l.fields {
		event = addField(event, key, value)
	}
	for key, value := range extra {
		event = addField(event, key, value)
	}
	event.Msg(msg)
}

// addField picks the typed zerolog encoder for value
func addField(event *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return event.Str(key, v)
	case int:
		return event.Int(key, v)
	case int64:
		return event.Int64(key, v)
	case bool:
		return event.Bool(key, v)
	case time.Time:
		return event.Time(key, v)
	case time.Duration:
		return event.Dur(key, v)
	case error:
		return event.AnErr(key, v)
	case []string:
		return event.Strs(key, v)
	case fmt.Stringer:
		return event.Stringer(key, v)
	default:
		return event.Interface(key, v)
	}
}

var globalLogger Logger

// Initialize sets up the global logger and the zerolog package logger
func Initialize(cfg *config.LoggingConfig) error {
	zl, err := build(cfg, os.Stderr)
	if err != nil {
		return err
	}
	globalLogger = &zerologLogger{zl: zl}
	log.Logger = zl
	return nil
}

// GetLogger returns the global logger, creating an info-level one on first use
func GetLogger() Logger {
	if globalLogger == nil {
		globalLogger, _ = New(&config.LoggingConfig{Level: "info"})
	}
	return globalLogger
}
