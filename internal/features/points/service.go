// Package points — service.go содержит бизнес-логику реестра очков.
// Сервис следит за инвариантом баланса и сериализует изменения
// по каждому пользователю.
package points

import (
	"context"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mordvinkin/points-bot/internal/common"
)

// Service управляет реестром очков.
// Создаётся явно при старте приложения и передаётся обработчикам —
// никакого глобального состояния.
type Service struct {
	store Store

	// Мьютексы по пользователям: изменения одного пользователя
	// строго последовательны, разные пользователи друг друга не ждут.
	// Создаются лениво при первом обращении.
	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// NewService создаёт сервис реестра поверх хранилища.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		locks: make(map[int64]*sync.Mutex),
	}
}

// userLock возвращает мьютекс пользователя, создавая его при необходимости.
// Мьютексы не удаляются: активных пользователей конечное число,
// а переиспользование обязательно для корректной сериализации.
func (s *Service) userLock(userID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	mu, ok := s.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[userID] = mu
	}
	return mu
}

// AddPoints начисляет (или списывает) очки пользователю.
// Причина обязательна. Дельта может быть любой, включая ноль —
// нулевая запись допустима как след в аудите.
//
// Последовательность чтение-изменение-запись защищена мьютексом
// пользователя: параллельные начисления одному пользователю не теряются.
// Put — единственная точка фиксации: при ошибке хранилища состояние
// реестра не меняется.
//
// Возвращает обновлённую запись.
func (s *Service) AddPoints(ctx context.Context, userID, delta int64, reason string, assignerID int64) (*Record, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, common.ErrEmptyReason
	}

	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		// Первое начисление — запись создаётся неявно
		rec = NewRecord(userID)
	}

	rec.Apply(Entry{
		Delta:      delta,
		Reason:     reason,
		AssignerID: assignerID,
		CreatedAt:  time.Now().UTC(),
	})

	if err := s.store.Put(ctx, rec); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"delta":    delta,
		"assigner": assignerID,
		"amount":   rec.Amount,
	}).Info("Очки начислены")

	return rec, nil
}

// GetPoints возвращает запись пользователя.
// Для невиданного пользователя — корректная нулевая запись
// (0 очков, пустая история), а не ошибка "не найдено".
func (s *Service) GetPoints(ctx context.Context, userID int64) (*Record, error) {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return NewRecord(userID), nil
	}
	return rec, nil
}

// GetAllPoints возвращает снимок всех записей реестра.
// Порядок на этом уровне не важен — сортировкой для отображения
// занимается Paginate.
func (s *Service) GetAllPoints(ctx context.Context) (map[int64]*Record, error) {
	recs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]*Record, len(recs))
	for _, rec := range recs {
		out[rec.UserID] = rec
	}
	return out, nil
}

// RemoveAllPoints удаляет запись пользователя вместе со всей историей.
// Безвозвратно и идемпотентно: удаление отсутствующей записи — успех.
// actorID попадает только в лог, после удаления записи он не хранится.
func (s *Service) RemoveAllPoints(ctx context.Context, userID, actorID int64) error {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	existed, err := s.store.Delete(ctx, userID)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"actor":   actorID,
		"existed": existed,
	}).Info("Очки пользователя удалены")

	return nil
}
