package base

import (
	"context"
	"log/slog"

	"github.com/hashicorp/go-hclog"

	particle "github.com/tj-smith47/particle-go"
)

// Logger routes client logs into an hclog.Logger.
type Logger struct {
	log hclog.Logger
}

var _ particle.Logger = (*Logger)(nil)

func NewLogger(log hclog.Logger) *Logger {
	return &Logger{log: log}
}

// LogAttrs implements particle.Logger.
func (l *Logger) LogAttrs(_ context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	args := make([]any, 0, 2*len(attrs))
	for _, a := range attrs {
		args = append(args, a.Key, a.Value.Resolve().Any())
	}

	switch {
	case level >= slog.LevelError:
		l.log.Error(msg, args...)
	case level >= slog.LevelWarn:
		l.log.Warn(msg, args...)
	case level >= slog.LevelInfo:
		l.log.Info(msg, args...)
	default:
		l.log.Debug(msg, args...)
	}
}
