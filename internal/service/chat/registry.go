// Package chat owns the authoritative per-session conversation state.
package chat

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/datapilot-ai/backend/internal/model/chat"
	"github.com/datapilot-ai/backend/internal/service/ai"
	"github.com/datapilot-ai/backend/internal/store"
)

const (
	previewLimit = 120
	emptyPreview = "No messages yet"
)

// Handle pairs a session record with its provider-side conversation and the
// mutex that serializes turns within the session.
type Handle struct {
	Session chat.Session

	conv   ai.Conversation
	turnMu sync.Mutex
}

// Lock takes the per-session turn lock. Held for a whole turn: prompt
// assembly through the post-call transcript append.
func (h *Handle) Lock() { h.turnMu.Lock() }

// Unlock releases the per-session turn lock.
func (h *Handle) Unlock() { h.turnMu.Unlock() }

// Send forwards prompt parts to the session's provider conversation.
func (h *Handle) Send(ctx context.Context, parts []ai.Part) (ai.Reply, error) {
	return h.conv.Send(ctx, parts)
}

// Registry is the process-wide map from session identifier to conversation
// state. It owns session creation and the authoritative transcript; the
// provider's own memory of a conversation is a secondary replica.
type Registry struct {
	mu      sync.Mutex
	store   store.Store
	engine  ai.Engine
	handles map[string]*Handle
}

// NewRegistry builds a registry over the given store and engine.
func NewRegistry(st store.Store, engine ai.Engine) *Registry {
	return &Registry{
		store:   st,
		engine:  engine,
		handles: make(map[string]*Handle),
	}
}

// ResolveOrCreate returns the handle for sessionID, creating a fresh session
// when the identifier is empty or unknown. A session known to the store but
// without an in-memory handle (persistent store, new process) resumes with a
// fresh provider conversation.
func (r *Registry) ResolveOrCreate(ctx context.Context, sessionID string) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sessionID != "" {
		if handle, ok := r.handles[sessionID]; ok {
			return handle, nil
		}

		session, ok, err := r.store.GetSession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("resolve session: %w", err)
		}
		if ok {
			handle, err := r.newHandle(ctx, session)
			if err != nil {
				return nil, err
			}
			log.Debug().Str("component", "registry").Str("session_id", session.ID).
				Msg("resumed session with fresh provider conversation")
			return handle, nil
		}
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}

	handle, err := r.newHandle(ctx, session)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("component", "registry").Str("session_id", session.ID).Msg("created session")
	return handle, nil
}

func (r *Registry) newHandle(ctx context.Context, session chat.Session) (*Handle, error) {
	conv, err := r.engine.NewConversation(ctx)
	if err != nil {
		return nil, fmt.Errorf("create provider conversation: %w", err)
	}
	handle := &Handle{Session: session, conv: conv}
	r.handles[session.ID] = handle
	return handle, nil
}

// Append records one message on a session's transcript.
func (r *Registry) Append(ctx context.Context, sessionID string, message chat.Message) error {
	return r.store.AppendMessage(ctx, sessionID, message)
}

// Transcript returns a session's messages in chronological order. Lookup is
// total: unknown identifiers yield an empty slice, never an error.
func (r *Registry) Transcript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	return r.store.Messages(ctx, sessionID)
}

// Summaries lists one entry per known session in insertion order.
func (r *Registry) Summaries(ctx context.Context) ([]chat.Summary, error) {
	sessions, err := r.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]chat.Summary, 0, len(sessions))
	for _, session := range sessions {
		preview := emptyPreview
		if last, ok, err := r.store.LastMessage(ctx, session.ID); err != nil {
			return nil, err
		} else if ok {
			preview = truncate(last.Text, previewLimit)
		}

		summaries = append(summaries, chat.Summary{
			SessionID: session.ID,
			Title:     "Chat " + shortID(session.ID),
			Preview:   preview,
		})
	}
	return summaries, nil
}

// Summary builds the sidebar entry for one session.
func (r *Registry) Summary(ctx context.Context, sessionID string) (chat.Summary, error) {
	preview := emptyPreview
	if last, ok, err := r.store.LastMessage(ctx, sessionID); err != nil {
		return chat.Summary{}, err
	} else if ok {
		preview = truncate(last.Text, previewLimit)
	}
	return chat.Summary{
		SessionID: sessionID,
		Title:     "Chat " + shortID(sessionID),
		Preview:   preview,
	}, nil
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 rune, so
// the preview stays a byte-for-byte prefix of the message after JSON encoding.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func shortID(id string) string {
	if len(id) > 6 {
		return id[:6]
	}
	return id
}
