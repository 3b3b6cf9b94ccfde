package tracing

import (
	"fmt"

	"go.uber.org/zap"
)

// jaegerZapLogger adapts a zap.SugaredLogger to jaeger.Logger so the tracer's
// own diagnostics land in the engine's log stream instead of stdout.
type jaegerZapLogger struct {
	logger *zap.SugaredLogger
}

// NewZapLogger wraps logger for use as a jaeger.Logger.
func NewZapLogger(logger *zap.SugaredLogger) *jaegerZapLogger {
	return &jaegerZapLogger{logger: logger}
}

func (l *jaegerZapLogger) Error(msg string) {
	l.logger.Error("jaeger: ", msg)
}

func (l *jaegerZapLogger) Infof(msg string, args ...interface{}) {
	l.logger.Info("jaeger: ", fmt.Sprintf(msg, args...))
}

func (l *jaegerZapLogger) Debugf(msg string, args ...interface{}) {
	l.logger.Debug("jaeger: ", fmt.Sprintf(msg, args...))
}
