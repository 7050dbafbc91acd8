package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
	"github.com/ericfisherdev/brainpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MessageStore = (*MessageRepo)(nil)

// MessageRepo is the SQLite implementation of the MessageStore port. It is
// the ambient conversation provider the panel composes when mounted under a
// full server.
type MessageRepo struct {
	db    *DB
	limit int
}

// NewMessageRepo creates a MessageRepo that returns at most limit of the most
// recent messages. A limit <= 0 returns every message.
func NewMessageRepo(db *DB, limit int) *MessageRepo {
	return &MessageRepo{db: db, limit: limit}
}

// Append inserts msg, assigning an ID and CreatedAt when they are empty.
func (r *MessageRepo) Append(ctx context.Context, msg model.Message) (model.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO messages (id, role, content, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.Writer.ExecContext(ctx, query, msg.ID, string(msg.Role), msg.Content, msg.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return model.Message{}, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

// Messages returns the most recent messages in insertion order.
func (r *MessageRepo) Messages(ctx context.Context) ([]model.Message, error) {
	limit := r.limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit.
	}

	const query = `SELECT id, role, content, created_at FROM (
		SELECT seq, id, role, content, created_at FROM messages ORDER BY seq DESC LIMIT ?
	) ORDER BY seq ASC`
	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		var (
			msg       model.Message
			role      string
			createdAt string
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = model.MessageRole(role)

		msg.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for message %s: %w", msg.ID, err)
		}

		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return msgs, nil
}

// Clear removes all stored messages.
func (r *MessageRepo) Clear(ctx context.Context) error {
	if _, err := r.db.Writer.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}
