// Package leads provides the lead lifecycle module: distribution,
// conversion, pull to quarantine, export and transfer back.
package leads

import (
	"travelcrm_backend/internal/events"
	apphttp "travelcrm_backend/internal/http"
	"travelcrm_backend/internal/leads/handler"
	"travelcrm_backend/internal/leads/ports"
	"travelcrm_backend/internal/leads/repository"
	"travelcrm_backend/internal/leads/service"
	"travelcrm_backend/platform/logger"
	"travelcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the leads domain module.
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates the leads module with all dependencies wired. The agent
// directory is provided by the agents module through an adapter.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger, bus events.Bus, agents ports.AgentDirectory) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, agents, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes registers the module's routes under /api/v1/leads.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leads := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leads, ctx.BulkOpRateLimiter.RateLimit())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
