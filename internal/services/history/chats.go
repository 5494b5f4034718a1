package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/phambaophuc/sign-recognition/internal/models"
)

// ChatRepository stores chat exchanges.
type ChatRepository struct {
	db *sql.DB
}

func (s *Store) Chats() *ChatRepository {
	return &ChatRepository{db: s.db}
}

func (r *ChatRepository) Create(ctx context.Context, m *models.ChatMessage) error {
	m.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_messages (user_message, bot_reply, created_at) VALUES (?, ?, ?)`,
		m.UserMessage, m.BotReply, m.CreatedAt,
	)
	if err != nil {
		return err
	}

	m.ID, err = res.LastInsertId()
	return err
}

// List returns the most recent exchanges first.
func (r *ChatRepository) List(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_message, bot_reply, created_at
		 FROM chat_messages
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserMessage, &m.BotReply, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
