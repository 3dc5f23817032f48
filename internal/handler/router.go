// Package handler wires HTTP routes to core services.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	analyzehandler "github.com/datapilot-ai/backend/internal/handler/analyze"
	historyhandler "github.com/datapilot-ai/backend/internal/handler/history"
	livehandler "github.com/datapilot-ai/backend/internal/handler/live"
	"github.com/datapilot-ai/backend/internal/live"
	"github.com/datapilot-ai/backend/internal/middleware"
	"github.com/datapilot-ai/backend/internal/service/analyst"
	chatservice "github.com/datapilot-ai/backend/internal/service/chat"
)

// NewRouter builds the full HTTP surface. hub may be nil, in which case the
// live feed route is not mounted.
func NewRouter(registry *chatservice.Registry, analystSvc *analyst.Service, hub *live.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	analyzehandler.New(analystSvc).RegisterRoutes(r)
	historyhandler.New(registry).RegisterRoutes(r)

	if hub != nil {
		livehandler.New(hub).RegisterRoutes(r)
	}

	return r
}
