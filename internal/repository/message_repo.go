package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-messenger/internal/model"
)

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

func (r *MessageRepository) Insert(ctx context.Context, m model.Message) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO messages (id, sender_id, recipient_id, sent_at, title, body)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.SenderID, m.RecipientID, m.SentAt, m.Title, m.Body)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepository) Get(ctx context.Context, id string) (model.Message, error) {
	var m model.Message
	err := r.pool.QueryRow(ctx,
		`SELECT id, sender_id, recipient_id, sent_at, title, body
		 FROM messages WHERE id = $1`, id).
		Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.SentAt, &m.Title, &m.Body)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Message{}, model.ErrMessageNotFound
	}
	if err != nil {
		return model.Message{}, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

func (r *MessageRepository) ListForRecipient(ctx context.Context, userID string) ([]model.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, sender_id, recipient_id, sent_at, title, body
		 FROM messages WHERE recipient_id = $1 ORDER BY sent_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.SentAt, &m.Title, &m.Body); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrMessageNotFound
	}
	return nil
}

// DeleteAllForUser removes every message the user sent or received. Invoked
// when an administrator deletes the account.
func (r *MessageRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM messages WHERE sender_id = $1 OR recipient_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete messages for user: %w", err)
	}
	return nil
}
