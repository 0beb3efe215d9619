package serverfx

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joeydtaylor/steeze-fn/pkg/config"
	"github.com/joeydtaylor/steeze-fn/pkg/scheduler"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serverDeps struct {
	fx.In
	Config config.Config
	Logger *zap.Logger
	App    http.Handler `name:"app"`
}

func registerHooks(lc fx.Lifecycle, d serverDeps) {
	cfg := d.Config
	addr := cfg.Addr()
	useTLS := cfg.TLSEnabled()

	writeTimeout := 30 * time.Second
	if ft := cfg.FunctionTimeout.Duration; ft+5*time.Second > writeTimeout {
		writeTimeout = ft + 5*time.Second
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      d.App,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
	if useTLS {
		srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS13, MaxVersion: tls.VersionTLS13}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			// Bind synchronously so a taken port fails startup.
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			d.Logger.Info("server running",
				zap.String("addr", ln.Addr().String()),
				zap.Bool("tls", useTLS),
				zap.String("functionDir", cfg.FunctionDir),
			)
			go func() {
				var err error
				if useTLS {
					err = srv.ServeTLS(ln, cfg.TLSCert, cfg.TLSKey)
				} else {
					err = srv.Serve(ln)
				}
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					d.Logger.Error("server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Logger.Info("server stopping")
			return srv.Shutdown(ctx)
		},
	})
}

// registerReload turns SIGHUP into an immediate registry refresh.
func registerReload(lc fx.Lifecycle, s *scheduler.Scheduler, zl *zap.Logger) {
	sig := make(chan os.Signal, 1)
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			signal.Notify(sig, syscall.SIGHUP)
			go func() {
				for {
					select {
					case <-sig:
						zl.Info("reload requested")
						s.Trigger()
					case <-done:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			signal.Stop(sig)
			close(done)
			return nil
		},
	})
}
