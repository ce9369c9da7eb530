// Package agents provides the caller directory module: listing callers and
// toggling the presence flags that drive distribution.
package agents

import (
	"travelcrm_backend/internal/agents/handler"
	"travelcrm_backend/internal/agents/repository"
	"travelcrm_backend/internal/agents/service"
	apphttp "travelcrm_backend/internal/http"
	"travelcrm_backend/platform/logger"
	"travelcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the caller directory module.
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates the callers module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "agents"
}

// RegisterRoutes registers the module's routes under /api/v1/callers.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	callers := ctx.Protected.Group("/callers")
	m.handler.RegisterRoutes(callers)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
