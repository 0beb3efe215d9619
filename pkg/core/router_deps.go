package core

import (
	"net/http"

	"github.com/joeydtaylor/steeze-fn/pkg/function"
	"github.com/joeydtaylor/steeze-fn/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-fn/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-fn/pkg/registry"
	httpx "github.com/joeydtaylor/steeze-fn/pkg/transport/httpx"
	"go.uber.org/zap"
)

type BuildDeps struct {
	Auth     *auth.Middleware
	LogMW    *logger.Middleware
	Metrics  http.Handler
	Router   httpx.Router
	Registry *registry.Registry
	Store    function.Store // nil when no database is configured
	Log      *zap.Logger
}
