package observability

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Level is one of debug, info, warn
// or error; empty means info.
func NewLogger(level string, service string) (*zap.Logger, error) {
	parsed, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(parsed)
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.With(zap.String("service", service)), nil
}

func parseLevel(raw string) (zapcore.Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return zapcore.InfoLevel, nil
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(trimmed)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}
