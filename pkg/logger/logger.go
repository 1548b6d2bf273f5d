// Package logger builds the process-wide slog logger.
//
// Text format renders through charmbracelet/log for humans; json format uses
// a plain slog JSON handler for log shippers.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"

	"karmabot/pkg/config"
)

const (
	envLogFormat = "KARMABOT_LOG_FORMAT"
	envLogLevel  = "KARMABOT_LOG_LEVEL"

	defaultFormat = "text"
	defaultLevel  = "info"
)

// New constructs a logger from config, honoring env overrides.
func New(cfg config.LoggingConfig) (*slog.Logger, error) {
	return newWithWriter(cfg, os.Stderr)
}

func newWithWriter(cfg config.LoggingConfig, writer io.Writer) (*slog.Logger, error) {
	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	if value := strings.TrimSpace(os.Getenv(envLogFormat)); value != "" {
		format = strings.ToLower(value)
	}
	if format == "" {
		format = defaultFormat
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	switch format {
	case "text":
		pretty := charmlog.NewWithOptions(writer, charmlog.Options{
			Level:           charmLevel(level),
			ReportTimestamp: true,
			Formatter:       charmlog.TextFormatter,
		})
		return slog.New(pretty), nil
	case "json":
		handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
		return slog.New(handler), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
}

func parseLevel(input string) (slog.Level, error) {
	levelText := strings.ToLower(strings.TrimSpace(input))
	if value := strings.TrimSpace(os.Getenv(envLogLevel)); value != "" {
		levelText = strings.ToLower(value)
	}
	if levelText == "" {
		levelText = defaultLevel
	}

	switch levelText {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported log level %q", levelText)
	}
}

func charmLevel(level slog.Level) charmlog.Level {
	switch {
	case level <= slog.LevelDebug:
		return charmlog.DebugLevel
	case level <= slog.LevelInfo:
		return charmlog.InfoLevel
	case level <= slog.LevelWarn:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}
