// Package history exposes the chat-list and transcript read endpoints.
package history

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/datapilot-ai/backend/internal/model/chat"
	chatservice "github.com/datapilot-ai/backend/internal/service/chat"
	"github.com/datapilot-ai/backend/pkg/utils"
)

// Handler serves GET /chats and GET /chat/{sessionID}.
type Handler struct {
	registry *chatservice.Registry
}

// New creates the history handler.
func New(registry *chatservice.Registry) *Handler {
	return &Handler{registry: registry}
}

// RegisterRoutes mounts the read routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chats", h.handleListChats)
	r.Get("/chat/{sessionID}", h.handleGetChat)
}

func (h *Handler) handleListChats(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.registry.Summaries(r.Context())
	if err != nil {
		log.Error().Err(err).Str("component", "history").Msg("failed to list chats")
		utils.RespondError(w, http.StatusInternalServerError, "failed to list chats")
		return
	}
	if summaries == nil {
		summaries = make([]chat.Summary, 0)
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"chats": summaries})
}

func (h *Handler) handleGetChat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	// Lookup is total: unknown identifiers yield an empty transcript.
	messages, err := h.registry.Transcript(r.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("component", "history").Msg("failed to load transcript")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}
	if messages == nil {
		messages = make([]chat.Message, 0)
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"messages":   messages,
		"session_id": sessionID,
	})
}
