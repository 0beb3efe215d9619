package main

import (
	"github.com/joeydtaylor/steeze-fn/pkg/serverfx"
	"github.com/subosito/gotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine; real environment variables win.
	_ = gotenv.Load()

	fx.New(
		serverfx.Module(),
		fx.WithLogger(func(zl *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zl.Named("fx")}
		}),
	).Run()
}
