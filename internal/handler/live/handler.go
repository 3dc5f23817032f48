// Package live upgrades clients onto the chat-list update feed.
package live

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/datapilot-ai/backend/internal/live"
)

// Handler serves GET /ws/chats.
type Handler struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
}

// New creates the websocket handler over the given hub.
func New(hub *live.Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			// Same permissive origin policy as the REST surface.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/chats", h.handleFeed)
}

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "live").Msg("websocket upgrade failed")
		return
	}
	h.hub.Attach(conn)
}
