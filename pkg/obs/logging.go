package obs

import (
	"context"
)

type LoggingProvider struct {
	logger *Logger
	config Config
}

func newLoggingProvider(config Config) *LoggingProvider {
	return &LoggingProvider{
		logger: NewLogger(config),
		config: config,
	}
}

func (lp *LoggingProvider) Logger() *Logger {
	return lp.logger
}

func (lp *LoggingProvider) Debug(ctx context.Context, msg string, attrs ...any) {
	lp.logger.Debug(ctx, msg, attrs...)
}

func (lp *LoggingProvider) Info(ctx context.Context, msg string, attrs ...any) {
	lp.logger.Info(ctx, msg, attrs...)
}

func (lp *LoggingProvider) Warn(ctx context.Context, msg string, attrs ...any) {
	lp.logger.Warn(ctx, msg, attrs...)
}

func (lp *LoggingProvider) Error(ctx context.Context, msg string, err error, attrs ...any) {
	lp.logger.Error(ctx, msg, err, attrs...)
}

func (lp *LoggingProvider) Event(ctx context.Context, event, status string, attrs ...any) {
	lp.logger.Event(ctx, event, status, attrs...)
}

func globalLogging() *LoggingProvider {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalObs == nil {
		return nil
	}
	return globalObs.logging
}

func Debug(ctx context.Context, msg string, attrs ...any) {
	if lp := globalLogging(); lp != nil {
		lp.Debug(ctx, msg, attrs...)
	}
}

func Info(ctx context.Context, msg string, attrs ...any) {
	if lp := globalLogging(); lp != nil {
		lp.Info(ctx, msg, attrs...)
	}
}

func Warn(ctx context.Context, msg string, attrs ...any) {
	if lp := globalLogging(); lp != nil {
		lp.Warn(ctx, msg, attrs...)
	}
}

func Error(ctx context.Context, msg string, err error, attrs ...any) {
	if lp := globalLogging(); lp != nil {
		lp.Error(ctx, msg, err, attrs...)
	}
}

func Event(ctx context.Context, event, status string, attrs ...any) {
	if lp := globalLogging(); lp != nil {
		lp.Event(ctx, event, status, attrs...)
	}
}
