// Package points — memory.go реализует Store в памяти.
// Используется в тестах и как движок хранения без внешней БД
// (данные живут до перезапуска процесса).
package points

import (
	"context"
	"sync"
)

// MemoryStore хранит записи в map под мьютексом.
// Порядок первого появления пользователей ведётся отдельным срезом,
// чтобы ListAll был стабильным, как у PostgresStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[int64]*Record
	order   []int64
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[int64]*Record)}
}

var _ Store = (*MemoryStore)(nil)

// Get возвращает копию записи или (nil, nil), если её нет.
func (s *MemoryStore) Get(ctx context.Context, userID int64) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[userID].Clone(), nil
}

// Put сохраняет копию записи. Хранилище не делит память с вызывающим.
func (s *MemoryStore) Put(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.records[rec.UserID]; !seen {
		s.order = append(s.order, rec.UserID)
	}
	s.records[rec.UserID] = rec.Clone()
	return nil
}

// Delete удаляет запись и её место в порядке появления.
func (s *MemoryStore) Delete(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[userID]; !ok {
		return false, nil
	}
	delete(s.records, userID)
	for i, id := range s.order {
		if id == userID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// ListAll возвращает копии всех записей в порядке первого появления.
func (s *MemoryStore) ListAll(ctx context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Clone())
	}
	return out, nil
}
