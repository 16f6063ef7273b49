package logger

import (
	"context"
	"os"

	"forecast-pipeline/internal/shared/contextkeys"

	"github.com/sirupsen/logrus"
)

const (
	logFormatJSON = "json"

	envProduction = "production"
	envProd       = "prod"

	timestampFormat = "2006-01-02T15:04:05.000Z07:00"
	textTimestamp   = "2006-01-02 15:04:05"
)

// Logger defines the interface for structured logging operations
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Fatal(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	WithFields(fields map[string]interface{}) Logger
	WithContext(ctx context.Context) Logger
	WithComponent(component string) Logger
}

// LogrusLogger implements the Logger interface using logrus
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogger creates a new logger instance configured from LOG_LEVEL / LOG_FORMAT /
// ENVIRONMENT variables
func NewLogger() Logger {
	logger := logrus.New()
	logger.SetLevel(getLogLevel())
	logger.SetFormatter(getLogFormatter())
	logger.SetOutput(os.Stdout)

	return &LogrusLogger{
		entry: logrus.NewEntry(logger),
	}
}

// NewLoggerWithConfig creates a logger with explicit level and format
func NewLoggerWithConfig(level string, format string) Logger {
	logger := logrus.New()

	if parsedLevel, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(parsedLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	switch format {
	case logFormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	}

	logger.SetOutput(os.Stdout)

	return &LogrusLogger{
		entry: logrus.NewEntry(logger),
	}
}

func (l *LogrusLogger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *LogrusLogger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *LogrusLogger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *LogrusLogger) Error(args ...interface{}) { l.entry.Error(args...) }
func (l *LogrusLogger) Fatal(args ...interface{}) { l.entry.Fatal(args...) }

func (l *LogrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *LogrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *LogrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *LogrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *LogrusLogger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

// WithFields adds structured fields to the logger
func (l *LogrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &LogrusLogger{
		entry: l.entry.WithFields(logrus.Fields(fields)),
	}
}

// WithContext extracts the pipeline identity fields (run ID, job kind, component,
// operation, request ID) from the context
func (l *LogrusLogger) WithContext(ctx context.Context) Logger {
	fields := logrus.Fields{}

	l.addContextField(ctx, contextkeys.RunIDKey, "run_id", fields)
	l.addContextField(ctx, contextkeys.JobKindKey, "job_kind", fields)
	l.addContextField(ctx, contextkeys.ComponentKey, "component", fields)
	l.addContextField(ctx, contextkeys.OperationKey, "operation", fields)
	l.addContextField(ctx, contextkeys.RequestIDKey, "request_id", fields)

	return &LogrusLogger{
		entry: l.entry.WithFields(fields),
	}
}

func (l *LogrusLogger) addContextField(ctx context.Context, key interface{}, fieldName string, fields logrus.Fields) {
	if val := ctx.Value(key); val != nil {
		if strVal, ok := val.(string); ok && strVal != "" {
			fields[fieldName] = strVal
		}
	}
}

// WithComponent adds component name to the logger
func (l *LogrusLogger) WithComponent(component string) Logger {
	return &LogrusLogger{
		entry: l.entry.WithField("component", component),
	}
}

func getLogLevel() logrus.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG", "debug":
		return logrus.DebugLevel
	case "INFO", "info":
		return logrus.InfoLevel
	case "WARN", "warn", "WARNING", "warning":
		return logrus.WarnLevel
	case "ERROR", "error":
		return logrus.ErrorLevel
	case "FATAL", "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

func getLogFormatter() logrus.Formatter {
	env := os.Getenv("ENVIRONMENT")
	format := os.Getenv("LOG_FORMAT")

	if format == logFormatJSON || env == envProduction || env == envProd {
		return &logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		}
	}

	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: textTimestamp,
		ForceColors:     true,
	}
}
