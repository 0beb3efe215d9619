package logger

import (
	"github.com/joeydtaylor/steeze-fn/pkg/config"
	"go.uber.org/zap"
)

func ProvideLoggerMiddleware(cfg config.Config) *Middleware {
	m := NewMiddleware(NewLog(cfg.LogDir, "http-access.log"))
	m.AddBodyLogPaths(cfg.LogBodyPaths...)
	return m
}

func ProvideLogger(cfg config.Config) *zap.Logger {
	return NewLog(cfg.LogDir, "system.log").With(zap.String("service", cfg.Service))
}
