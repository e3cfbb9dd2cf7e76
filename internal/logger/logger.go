package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogConfig struct {
	Level      string // debug, info, warn, error
	JSON       bool
	FilePath   string // empty disables file output
	MaxSize    int    // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}
}

// InitLogger replaces the global zerolog logger. Console output goes to
// stderr so it does not mix with the rendered session state on stdout.
func InitLogger(config LogConfig) {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var writers []io.Writer
	if config.JSON {
		writers = append(writers, os.Stderr)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	}
	if config.FilePath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   config.FilePath,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		})
	}

	var output io.Writer
	if len(writers) > 1 {
		output = io.MultiWriter(writers...)
	} else {
		output = writers[0]
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// For returns a child of the global logger tagged with a component name.
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
