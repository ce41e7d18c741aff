// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/voyagen/mythvault/internal/config"
)

const timeFormat = "2006-01-02 15:04:05"

// Apply sets the global level and writers: a console writer on stderr plus,
// when cfg.File is set, a rotating plain-text file.
func Apply(cfg config.Log) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: timeFormat}
	var out io.Writer = console

	if cfg.File != "" {
		if err := ensureLogDir(cfg.File); err != nil {
			log.Logger = zerolog.New(console).With().Timestamp().Logger()
			log.Error().Err(err).Str("path", cfg.File).Msg("failed to prepare log directory; logging to console only")
			return log.Logger
		}
		file := zerolog.ConsoleWriter{
			Out: &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   cfg.Compress,
			},
			TimeFormat: timeFormat,
			NoColor:    true,
		}
		out = zerolog.MultiLevelWriter(console, file)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// ParseLevel maps a config level to zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component returns the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
