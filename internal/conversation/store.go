// Package conversation persists chat exchanges in PostgreSQL.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStoreUnavailable indicates the backing database rejected the operation.
var ErrStoreUnavailable = errors.New("conversation store unavailable")

// Message is one persisted chat message.
type Message struct {
	ID             uuid.UUID       `json:"id"`
	ConversationID uuid.UUID       `json:"conversation_id"`
	UserID         string          `json:"user_id"`
	UserEmail      string          `json:"user_email,omitempty"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	Sources        json.RawMessage `json:"sources,omitempty"`
	RAGEnabled     bool            `json:"rag_enabled"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Exchange is one user turn and the assistant's reply, persisted together.
type Exchange struct {
	ConversationID uuid.UUID
	UserID         string
	UserEmail      string
	UserText       string
	AssistantText  string
	Sources        json.RawMessage
	RAGEnabled     bool
}

// Store reads and writes messages.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// AppendExchange persists the user message and the assistant reply in a
// single transaction so a conversation never records one without the other.
func (s *Store) AppendExchange(ctx context.Context, ex Exchange) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insert = `
		INSERT INTO messages (conversation_id, user_id, user_email, role, content, sources, rag_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	sources := ex.Sources
	if len(sources) == 0 {
		sources = json.RawMessage(`[]`)
	}

	if _, err := tx.Exec(ctx, insert,
		ex.ConversationID, ex.UserID, ex.UserEmail, "user", ex.UserText, json.RawMessage(`[]`), ex.RAGEnabled); err != nil {
		return fmt.Errorf("%w: insert user message: %w", ErrStoreUnavailable, err)
	}

	if _, err := tx.Exec(ctx, insert,
		ex.ConversationID, ex.UserID, ex.UserEmail, "assistant", ex.AssistantText, sources, ex.RAGEnabled); err != nil {
		return fmt.Errorf("%w: insert assistant message: %w", ErrStoreUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrStoreUnavailable, err)
	}

	return nil
}

// ListByConversation returns the messages of one conversation in
// chronological order, up to limit.
func (s *Store) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error) {
	const query = `
		SELECT id, conversation_id, user_id, user_email, role, content, sources, rag_enabled, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at, id
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query conversation: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListByUser returns a user's messages across all conversations, most
// recent first, up to limit.
func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]Message, error) {
	const query = `
		SELECT id, conversation_id, user_id, user_email, role, content, sources, rag_enabled, created_at
		FROM messages
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query user messages: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.UserID, &m.UserEmail,
			&m.Role, &m.Content, &m.Sources, &m.RAGEnabled, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan message: %w", ErrStoreUnavailable, err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate messages: %w", ErrStoreUnavailable, err)
	}
	return messages, nil
}
