// Package roles — repository.go выполняет операции с таблицами
// role_options и role_messages.
package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mordvinkin/points-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListOptions возвращает все варианты ролей в порядке position.
func (r *Repository) ListOptions(ctx context.Context) ([]*Option, error) {
	query := `
		SELECT id, emoji, role, description, position, created_at
		FROM role_options
		ORDER BY position, id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения вариантов ролей: %w", err)
	}
	defer rows.Close()

	var out []*Option
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.Emoji, &o.Role, &o.Description, &o.Position, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования варианта: %w", err)
		}
		out = append(out, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// GetOption возвращает вариант по ID.
// Удалённый вариант — common.ErrRoleOptionNotFound (кнопка пережила настройку).
func (r *Repository) GetOption(ctx context.Context, id int64) (*Option, error) {
	query := `
		SELECT id, emoji, role, description, position, created_at
		FROM role_options
		WHERE id = $1
	`
	var o Option
	err := r.db.QueryRow(ctx, query, id).Scan(&o.ID, &o.Emoji, &o.Role, &o.Description, &o.Position, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrRoleOptionNotFound
		}
		return nil, fmt.Errorf("ошибка чтения варианта (id=%d): %w", id, err)
	}
	return &o, nil
}

// AddOption добавляет вариант роли в конец списка.
func (r *Repository) AddOption(ctx context.Context, emoji, role, description string) (int64, error) {
	query := `
		INSERT INTO role_options (emoji, role, description, position)
		VALUES ($1, $2, $3, COALESCE((SELECT MAX(position) + 1 FROM role_options), 0))
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRow(ctx, query, emoji, role, description).Scan(&id); err != nil {
		return 0, fmt.Errorf("ошибка добавления варианта роли: %w", err)
	}
	return id, nil
}

// DeleteOption удаляет вариант роли.
func (r *Repository) DeleteOption(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM role_options WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("ошибка удаления варианта роли: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SaveMessage запоминает опубликованное сообщение выбора ролей.
func (r *Repository) SaveMessage(ctx context.Context, chatID int64, messageID int) error {
	query := `
		INSERT INTO role_messages (chat_id, message_id)
		VALUES ($1, $2)
		ON CONFLICT (chat_id, message_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, chatID, messageID); err != nil {
		return fmt.Errorf("ошибка сохранения сообщения ролей: %w", err)
	}
	return nil
}

// ListMessages возвращает все опубликованные сообщения выбора ролей.
func (r *Repository) ListMessages(ctx context.Context) ([]*PostedMessage, error) {
	query := `SELECT id, chat_id, message_id, posted_at FROM role_messages ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сообщений ролей: %w", err)
	}
	defer rows.Close()

	var out []*PostedMessage
	for rows.Next() {
		var m PostedMessage
		if err := rows.Scan(&m.ID, &m.ChatID, &m.MessageID, &m.PostedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования сообщения: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// ForgetMessage убирает сообщение из учёта (например, его удалили из чата).
func (r *Repository) ForgetMessage(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM role_messages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("ошибка удаления сообщения из учёта: %w", err)
	}
	return nil
}
