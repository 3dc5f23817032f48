package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/datapilot-ai/backend/internal/model/chat"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a SQLite database. Transcripts written here
// survive process restarts; provider conversation handles do not, so a resumed
// session starts with a fresh model-side context.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) a SQLite-backed store at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode keeps concurrent readers out of the writers' way.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		sender TEXT NOT NULL,
		text TEXT NOT NULL,
		attachment TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (session_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_position ON sessions(position);
	`
	if _, err := s.db.Exec(query); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, session chat.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, position, created_at)
		VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM sessions), ?)
		ON CONFLICT(id) DO NOTHING`,
		session.ID, session.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (chat.Session, bool, error) {
	var (
		session   chat.Session
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM sessions WHERE id = ?`, sessionID,
	).Scan(&session.ID, &createdAt)
	if err == sql.ErrNoRows {
		return chat.Session{}, false, nil
	}
	if err != nil {
		return chat.Session{}, false, fmt.Errorf("get session: %w", err)
	}
	session.CreatedAt = time.UnixMilli(createdAt).UTC()
	return session, true, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]chat.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at FROM sessions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]chat.Session, 0)
	for rows.Next() {
		var (
			session   chat.Session
			createdAt int64
		)
		if err := rows.Scan(&session.ID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		session.CreatedAt = time.UnixMilli(createdAt).UTC()
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, message chat.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (session_id, seq, sender, text, attachment)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id = ?), ?, ?, ?)`,
		sessionID, sessionID, message.Sender, message.Text, message.Attachment)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Messages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sender, text, attachment FROM messages WHERE session_id = ? ORDER BY seq`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	messages := make([]chat.Message, 0)
	for rows.Next() {
		var message chat.Message
		if err := rows.Scan(&message.Sender, &message.Text, &message.Attachment); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

func (s *SQLiteStore) LastMessage(ctx context.Context, sessionID string) (chat.Message, bool, error) {
	var message chat.Message
	err := s.db.QueryRowContext(ctx,
		`SELECT sender, text, attachment FROM messages WHERE session_id = ? ORDER BY seq DESC LIMIT 1`,
		sessionID,
	).Scan(&message.Sender, &message.Text, &message.Attachment)
	if err == sql.ErrNoRows {
		return chat.Message{}, false, nil
	}
	if err != nil {
		return chat.Message{}, false, fmt.Errorf("last message: %w", err)
	}
	return message, true, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
