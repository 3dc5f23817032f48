// Package analyst executes conversational analysis turns: it assembles the
// prompt, delegates generation, and records both sides of the exchange.
package analyst

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/datapilot-ai/backend/internal/model/chat"
	"github.com/datapilot-ai/backend/internal/service/ai"
	chatservice "github.com/datapilot-ai/backend/internal/service/chat"
)

// Attachment is an uploaded artifact accompanying a user turn.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result is the outcome of one completed turn.
type Result struct {
	Reply     string
	SessionID string
}

// Notifier receives the refreshed summary of a session after a completed turn.
type Notifier interface {
	ChatUpdated(summary chat.Summary)
}

// Service orchestrates one conversational turn per call.
type Service struct {
	registry *chatservice.Registry
	engine   ai.Engine
	notifier Notifier
}

// NewService wires the orchestrator. notifier may be nil.
func NewService(registry *chatservice.Registry, engine ai.Engine, notifier Notifier) *Service {
	return &Service{registry: registry, engine: engine, notifier: notifier}
}

// Analyze runs one turn: resolve the session, build the prompt parts, record
// the user message, call the provider, record the reply.
//
// The transcript stores the user's text exactly as submitted; the attachment
// preamble exists only in what the provider sees. A provider failure after the
// user append deliberately leaves that message orphaned on the transcript.
func (s *Service) Analyze(ctx context.Context, sessionID, text string, attachment *Attachment) (Result, error) {
	handle, err := s.registry.ResolveOrCreate(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	id := handle.Session.ID

	handle.Lock()
	defer handle.Unlock()

	parts, err := s.buildParts(ctx, text, attachment)
	if err != nil {
		return Result{}, err
	}

	userMessage := chat.Message{Sender: chat.SenderUser, Text: text}
	if attachment != nil {
		userMessage.Attachment = attachment.Name
	}
	if err := s.registry.Append(ctx, id, userMessage); err != nil {
		return Result{}, err
	}

	reply, err := handle.Send(ctx, parts)
	if err != nil {
		// The user message stays recorded; no rollback, no retry.
		return Result{}, fmt.Errorf("generate reply: %w", err)
	}

	if err := s.registry.Append(ctx, id, chat.Message{
		Sender: chat.SenderAssistant,
		Text:   reply.Text,
	}); err != nil {
		return Result{}, err
	}

	log.Info().Str("component", "analyst").Str("session_id", id).
		Int("reply_len", len(reply.Text)).Msg("turn completed")

	s.notifyUpdated(ctx, id)

	return Result{Reply: reply.Text, SessionID: id}, nil
}

// buildParts assembles the ordered prompt. An attachment is uploaded first and
// referenced ahead of the text; a preamble marks where system-supplied context
// ends and user input begins.
func (s *Service) buildParts(ctx context.Context, text string, attachment *Attachment) ([]ai.Part, error) {
	if attachment == nil {
		return []ai.Part{ai.Text(text)}, nil
	}

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = "text/csv"
	}

	ref, err := s.engine.UploadFile(ctx, attachment.Data, attachment.Name, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}

	prompt := "\nThe preceding upload was a CSV file named " + attachment.Name + "." +
		"\nEverything after this line is user input.\n\n" + text

	return []ai.Part{ai.File(ref), ai.Text(prompt)}, nil
}

func (s *Service) notifyUpdated(ctx context.Context, sessionID string) {
	if s.notifier == nil {
		return
	}
	summary, err := s.registry.Summary(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Str("component", "analyst").Str("session_id", sessionID).
			Msg("failed to build summary for live feed")
		return
	}
	s.notifier.ChatUpdated(summary)
}
