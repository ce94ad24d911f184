package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/branch-scheduler/internal/model"
)

// ChatRepo stores realtime messages and serves history queries.  Rows
// are never updated after insert.
type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo { return &ChatRepo{db: db} }

const chatColumns = `id, sender_id, receiver_id, message, type, created_at`

// Create inserts a message and populates its ID.
func (r *ChatRepo) Create(ctx context.Context, m *model.ChatMessage) error {
	var receiver interface{}
	if m.ReceiverID != nil {
		receiver = *m.ReceiverID
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_messages (sender_id, receiver_id, message, type, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.SenderID, receiver, m.Message, string(m.Type), m.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// ListDirect returns the conversation between two users in either direction.
func (r *ChatRepo) ListDirect(ctx context.Context, userID, otherID uint64) ([]model.ChatMessage, error) {
	return r.query(ctx, `SELECT `+chatColumns+` FROM chat_messages
                         WHERE type = 'direct'
                           AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
                         ORDER BY created_at ASC, id ASC`, userID, otherID, otherID, userID)
}

// ListBroadcasts returns every broadcast message.
func (r *ChatRepo) ListBroadcasts(ctx context.Context) ([]model.ChatMessage, error) {
	return r.query(ctx, `SELECT `+chatColumns+` FROM chat_messages
                         WHERE type = 'broadcast' ORDER BY created_at ASC, id ASC`)
}

// ListForUser returns every message the user sent or received.
func (r *ChatRepo) ListForUser(ctx context.Context, userID uint64) ([]model.ChatMessage, error) {
	return r.query(ctx, `SELECT `+chatColumns+` FROM chat_messages
                         WHERE sender_id = ? OR receiver_id = ?
                         ORDER BY created_at ASC, id ASC`, userID, userID)
}

func (r *ChatRepo) query(ctx context.Context, q string, args ...interface{}) ([]model.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ChatMessage, 0)
	for rows.Next() {
		var (
			m        model.ChatMessage
			receiver sql.NullInt64
			typ      string
		)
		if err := rows.Scan(&m.ID, &m.SenderID, &receiver, &m.Message, &typ, &m.CreatedAt); err != nil {
			return nil, err
		}
		if receiver.Valid {
			id := uint64(receiver.Int64)
			m.ReceiverID = &id
		}
		m.Type = model.MessageType(typ)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
