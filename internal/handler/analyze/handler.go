// Package analyze exposes the turn-execution endpoint.
package analyze

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/datapilot-ai/backend/internal/service/analyst"
	"github.com/datapilot-ai/backend/pkg/utils"
)

// Uploads larger than this are rejected outright.
const maxUploadBytes = 16 << 20

// Handler serves POST /analyze.
type Handler struct {
	analyst *analyst.Service
}

// New creates the analyze handler.
func New(svc *analyst.Service) *Handler {
	return &Handler{analyst: svc}
}

// RegisterRoutes mounts the analyze route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/analyze", h.handleAnalyze)
}

type analyzeResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	text := r.FormValue("text")
	if strings.TrimSpace(text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text field is required")
		return
	}
	sessionID := r.FormValue("session_id")

	attachment, err := readAttachment(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid file upload")
		return
	}

	result, err := h.analyst.Analyze(r.Context(), sessionID, text, attachment)
	if err != nil {
		log.Error().Err(err).Str("component", "analyze").Msg("turn failed")
		utils.RespondError(w, http.StatusBadGateway, "analysis failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, analyzeResponse{
		Response:  result.Reply,
		SessionID: result.SessionID,
	})
}

func readAttachment(r *http.Request) (*analyst.Attachment, error) {
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/csv"
	}

	return &analyst.Attachment{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
