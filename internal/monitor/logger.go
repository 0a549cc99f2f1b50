package monitor

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultLogFile = "logs/hitbtc.log"

// Logger wraps logrus logger
type Logger struct {
	*logrus.Logger
}

// NewLogger creates a new logger instance. output is console, file or both; file
// output is written as JSON through a size-rotated file.
func NewLogger(level, output, file string) *Logger {
	logger := logrus.New()
	logger.SetLevel(ParseLevel(level))
	logger.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if file == "" {
		file = defaultLogFile
	}

	switch output {
	case "file":
		logger.SetOutput(io.Discard)
		if err := addFileHook(logger, file); err != nil {
			logger.SetOutput(os.Stdout)
			logger.Warnf("Failed to open log file: %v, falling back to console", err)
		}
	case "both":
		logger.SetOutput(os.Stdout)
		if err := addFileHook(logger, file); err != nil {
			logger.Warnf("Failed to open log file: %v", err)
		}
	default:
		logger.SetOutput(os.Stdout)
	}

	return &Logger{Logger: logger}
}

// ParseLevel maps debug, info, warn and error to a logrus level; anything else is info.
func ParseLevel(level string) logrus.Level {
	switch level {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	}
	return logrus.InfoLevel
}

func addFileHook(logger *logrus.Logger, file string) error {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}

	writer := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    100, // megabytes
		MaxBackups: 7,
		MaxAge:     28, // days
	}

	logger.AddHook(lfshook.NewHook(
		lfshook.WriterMap{
			logrus.DebugLevel: writer,
			logrus.InfoLevel:  writer,
			logrus.WarnLevel:  writer,
			logrus.ErrorLevel: writer,
			logrus.FatalLevel: writer,
			logrus.PanicLevel: writer,
		},
		&logrus.JSONFormatter{},
	))
	return nil
}

// WithComponent returns an entry tagged the way the prefixed formatter prints it.
func (l *Logger) WithComponent(name string) *logrus.Entry {
	return l.WithField("prefix", name)
}
