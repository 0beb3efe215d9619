package serverfx

import (
	"context"
	"net/http"
	"time"

	"github.com/joeydtaylor/steeze-fn/pkg/config"
	"github.com/joeydtaylor/steeze-fn/pkg/core"
	"github.com/joeydtaylor/steeze-fn/pkg/function"
	"github.com/joeydtaylor/steeze-fn/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-fn/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-fn/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-fn/pkg/registry"
	"github.com/joeydtaylor/steeze-fn/pkg/scheduler"
	"github.com/joeydtaylor/steeze-fn/pkg/store"
	"github.com/joeydtaylor/steeze-fn/pkg/transport/httpx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ---------- Options ----------

type Options struct {
	ConfigFile string         // overrides FUNCTIONS_CONFIG
	Config     *config.Config // skips file and env loading entirely
}

type Option func(*Options)

func WithConfigFile(path string) Option { return func(o *Options) { o.ConfigFile = path } }
func WithConfig(cfg config.Config) Option {
	return func(o *Options) { o.Config = &cfg }
}

// StartTimeout bounds fx startup, which includes the first full walk of the
// function directory. fx's own 15s default is too short for large trees.
const StartTimeout = 5 * time.Minute

// Module returns a complete Fx option set; add app-specific fx.Invoke(...) alongside.
func Module(opts ...Option) fx.Option {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return fx.Options(
		fx.StartTimeout(StartTimeout),
		// Config into DI
		fx.Provide(func() (config.Config, error) { return o.load() }),
		// Core middleware
		fx.Provide(auth.ProvideAuthentication),
		logger.Module,
		fx.Provide(fx.Annotate(metrics.ProvideMetrics, fx.ResultTags(`name:"metrics"`))),
		// Router impl
		fx.Provide(httpx.NewChi),
		// Functions
		fx.Provide(provideStore),
		fx.Provide(provideRegistry),
		fx.Provide(provideScheduler),
		// Router
		fx.Provide(fx.Annotate(provideRouter, fx.ResultTags(`name:"app"`))),
		// Lifecycle: the first refresh completes before the listener opens.
		fx.Invoke(scheduler.Register),
		fx.Invoke(registerReload),
		fx.Invoke(registerHooks),
	)
}

func (o Options) load() (config.Config, error) {
	switch {
	case o.Config != nil:
		cfg := *o.Config
		return cfg, cfg.Validate()
	case o.ConfigFile != "":
		return config.Load(o.ConfigFile)
	default:
		return config.FromEnv()
	}
}

// ---------- Functions ----------

func provideStore(lc fx.Lifecycle, cfg config.Config, zl *zap.Logger) (function.Store, error) {
	s, err := store.Open(context.Background(), cfg.DatabaseURL, zl)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil // handlers see db == nil
	}
	lc.Append(fx.StopHook(s.Close))
	return s, nil
}

func provideRegistry(cfg config.Config, zl *zap.Logger) *registry.Registry {
	return registry.New(registry.Options{Root: cfg.FunctionDir, Ext: cfg.FunctionExt}, zl)
}

func provideScheduler(cfg config.Config, reg *registry.Registry, zl *zap.Logger) *scheduler.Scheduler {
	return scheduler.New(reg, cfg.RefreshInterval.Duration, zl)
}

// ---------- Router ----------

type routerDeps struct {
	fx.In

	Config   config.Config
	AuthMW   *auth.Middleware
	LogMW    *logger.Middleware
	Metrics  http.Handler `name:"metrics"`
	R        httpx.Router
	Registry *registry.Registry
	Store    function.Store
	Log      *zap.Logger
}

func provideRouter(d routerDeps) http.Handler {
	return core.BuildRouter(d.Config, core.BuildDeps{
		Auth:     d.AuthMW,
		LogMW:    d.LogMW,
		Metrics:  d.Metrics,
		Router:   d.R,
		Registry: d.Registry,
		Store:    d.Store,
		Log:      d.Log,
	})
}
