// Package points — repository.go реализует Store поверх PostgreSQL.
// Запись хранится одной строкой: баланс в колонке, история в JSONB.
// Upsert целой строки — атомарная точка фиксации: читатель видит
// либо старую версию записи, либо новую, но никогда смесь.
package points

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mordvinkin/points-bot/internal/common"
)

// PostgresStore хранит записи реестра в таблице points.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore создаёт хранилище поверх пула соединений.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Проверка соответствия контракту на этапе компиляции
var _ Store = (*PostgresStore)(nil)

// Get возвращает запись пользователя или (nil, nil), если её нет.
func (s *PostgresStore) Get(ctx context.Context, userID int64) (*Record, error) {
	query := `SELECT amount, history FROM points WHERE user_id = $1`

	var amount int64
	var history []byte
	err := s.db.QueryRow(ctx, query, userID).Scan(&amount, &history)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: чтение записи (user_id=%d): %v", common.ErrStorageUnavailable, userID, err)
	}

	rec := &Record{UserID: userID, Amount: amount}
	if err := json.Unmarshal(history, &rec.History); err != nil {
		return nil, fmt.Errorf("%w: повреждена история (user_id=%d): %v", common.ErrStorageUnavailable, userID, err)
	}
	return rec, nil
}

// Put сохраняет запись целиком одним upsert-запросом.
func (s *PostgresStore) Put(ctx context.Context, rec *Record) error {
	history, err := json.Marshal(rec.History)
	if err != nil {
		return fmt.Errorf("%w: сериализация истории (user_id=%d): %v", common.ErrStorageUnavailable, rec.UserID, err)
	}
	if rec.History == nil {
		history = []byte("[]")
	}

	query := `
		INSERT INTO points (user_id, amount, history)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET amount = EXCLUDED.amount,
		    history = EXCLUDED.history,
		    updated_at = NOW()
	`
	if _, err := s.db.Exec(ctx, query, rec.UserID, rec.Amount, history); err != nil {
		return fmt.Errorf("%w: запись (user_id=%d): %v", common.ErrStorageUnavailable, rec.UserID, err)
	}
	return nil
}

// Delete удаляет запись вместе со всей историей. Безвозвратно.
func (s *PostgresStore) Delete(ctx context.Context, userID int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM points WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("%w: удаление записи (user_id=%d): %v", common.ErrStorageUnavailable, userID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListAll возвращает все записи в порядке первого появления пользователя.
// Сортировка по автоинкрементному id: пересозданная после удаления
// запись уходит в конец, как и требует контракт Store.
func (s *PostgresStore) ListAll(ctx context.Context) ([]*Record, error) {
	query := `SELECT user_id, amount, history FROM points ORDER BY id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: листинг записей: %v", common.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var rec Record
		var history []byte
		if err := rows.Scan(&rec.UserID, &rec.Amount, &history); err != nil {
			return nil, fmt.Errorf("%w: сканирование строки: %v", common.ErrStorageUnavailable, err)
		}
		if err := json.Unmarshal(history, &rec.History); err != nil {
			return nil, fmt.Errorf("%w: повреждена история (user_id=%d): %v", common.ErrStorageUnavailable, rec.UserID, err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: чтение строк: %v", common.ErrStorageUnavailable, err)
	}
	return out, nil
}
