// Package store provides registry storage interfaces and implementations.
package store

import (
	"context"

	"github.com/datapilot-ai/backend/internal/model/chat"
)

// Store persists session records and transcripts for the session registry.
// Message lookups are total: unknown session identifiers yield empty results,
// never errors.
type Store interface {
	// CreateSession registers a new session record.
	CreateSession(ctx context.Context, session chat.Session) error

	// GetSession retrieves a session by identifier.
	GetSession(ctx context.Context, sessionID string) (chat.Session, bool, error)

	// ListSessions enumerates all sessions in insertion order.
	ListSessions(ctx context.Context) ([]chat.Session, error)

	// AppendMessage appends one message to a session's transcript.
	AppendMessage(ctx context.Context, sessionID string, message chat.Message) error

	// Messages returns a session's transcript in append order.
	Messages(ctx context.Context, sessionID string) ([]chat.Message, error)

	// LastMessage returns the most recent message of a session, if any.
	LastMessage(ctx context.Context, sessionID string) (chat.Message, bool, error)

	// Close releases any underlying resources.
	Close() error
}
