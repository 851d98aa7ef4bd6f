package temporal

import (
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

var (
	_ log.Logger     = (*ZapAdapter)(nil)
	_ log.WithLogger = (*ZapAdapter)(nil)
)

// ZapAdapter lets the Temporal SDK, workflows and activities log through zap
// with key/value pairs.
type ZapAdapter struct {
	logger *zap.SugaredLogger
}

// NewZapAdapter wraps logger for use as client.Options.Logger.
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{logger: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (a *ZapAdapter) Debug(msg string, keyvals ...interface{}) {
	a.logger.Debugw(msg, keyvals...)
}

func (a *ZapAdapter) Info(msg string, keyvals ...interface{}) {
	a.logger.Infow(msg, keyvals...)
}

func (a *ZapAdapter) Warn(msg string, keyvals ...interface{}) {
	a.logger.Warnw(msg, keyvals...)
}

func (a *ZapAdapter) Error(msg string, keyvals ...interface{}) {
	a.logger.Errorw(msg, keyvals...)
}

// With returns a logger that adds keyvals to every entry.
func (a *ZapAdapter) With(keyvals ...interface{}) log.Logger {
	return &ZapAdapter{logger: a.logger.With(keyvals...)}
}
