package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-bridge/pkg/manifest"
)

func ProvideLoggerMiddleware() *Middleware { return &Middleware{} }

// ProvideLogger builds the process logger from config and flushes it on stop.
func ProvideLogger(lc fx.Lifecycle, cfg manifest.Config) *zap.Logger {
	l := NewLog(cfg.Log)
	SetAccessLogger(l.Named("http"))
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = l.Sync()
			return nil
		},
	})
	return l
}
