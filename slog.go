package modscot

import (
	"go.uber.org/zap"
)

// SLogger is the logging interface used across modscot and handed to plugins
type SLogger interface {
	Printf(format string, v ...interface{})

	Debugf(format string, v ...interface{})
}

// FieldLogger is an SLogger that can also log structured key/value pairs. Handler faults are logged
// with their correlation id through it when the bot's logger supports it
type FieldLogger interface {
	SLogger

	Errorw(msg string, keysAndValues ...interface{})
}

// zapSLogger adapts a zap logger to FieldLogger. Debug lines are dropped unless verbose
type zapSLogger struct {
	sugar   *zap.SugaredLogger
	verbose bool
}

// NewSLogger returns a FieldLogger writing to log. Debugf is a no-op unless debug is set
func NewSLogger(log *zap.Logger, debug bool) FieldLogger {
	return &zapSLogger{sugar: log.WithOptions(zap.AddCallerSkip(1)).Sugar(), verbose: debug}
}

func (zl *zapSLogger) Debugf(format string, v ...interface{}) {
	if !zl.verbose {
		return
	}

	zl.sugar.Debugf(format, v...)
}

func (zl *zapSLogger) Printf(format string, v ...interface{}) {
	zl.sugar.Infof(format, v...)
}

func (zl *zapSLogger) Errorw(msg string, keysAndValues ...interface{}) {
	zl.sugar.Errorw(msg, keysAndValues...)
}
