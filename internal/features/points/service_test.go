package points

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/mordvinkin/points-bot/internal/common"
)

func TestAddPointsAccumulates(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())

	if _, err := svc.AddPoints(ctx, 1, 10, "за доклад", 99); err != nil {
		t.Fatalf("первое начисление: %v", err)
	}
	rec, err := svc.AddPoints(ctx, 1, -3, "штраф", 99)
	if err != nil {
		t.Fatalf("второе начисление: %v", err)
	}

	if rec.Amount != 7 {
		t.Errorf("Amount = %d, ожидалось 7", rec.Amount)
	}
	if len(rec.History) != 2 {
		t.Fatalf("len(History) = %d, ожидалось 2", len(rec.History))
	}
	if rec.History[0].Delta != 10 || rec.History[1].Delta != -3 {
		t.Errorf("дельты истории = %d, %d; ожидалось 10, -3",
			rec.History[0].Delta, rec.History[1].Delta)
	}
	if !rec.Consistent() {
		t.Error("баланс не равен сумме дельт истории")
	}
}

func TestAddPointsEmptyReason(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())

	for _, reason := range []string{"", "   ", "\t\n"} {
		if _, err := svc.AddPoints(ctx, 1, 5, reason, 99); !errors.Is(err, common.ErrEmptyReason) {
			t.Errorf("reason=%q: err = %v, ожидался ErrEmptyReason", reason, err)
		}
	}

	// Отказ не должен оставить следов
	rec, err := svc.GetPoints(ctx, 1)
	if err != nil {
		t.Fatalf("GetPoints: %v", err)
	}
	if rec.Amount != 0 || len(rec.History) != 0 {
		t.Errorf("после отказа запись не пустая: %+v", rec)
	}
}

func TestAddPointsZeroDelta(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())

	rec, err := svc.AddPoints(ctx, 1, 0, "отметка в аудите", 99)
	if err != nil {
		t.Fatalf("нулевая дельта: %v", err)
	}
	if rec.Amount != 0 {
		t.Errorf("Amount = %d, ожидалось 0", rec.Amount)
	}
	if len(rec.History) != 1 {
		t.Errorf("len(History) = %d, ожидалась 1 запись", len(rec.History))
	}
}

func TestGetPointsUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())

	rec, err := svc.GetPoints(ctx, 42)
	if err != nil {
		t.Fatalf("GetPoints: %v", err)
	}
	if rec == nil {
		t.Fatal("rec == nil, ожидалась нулевая запись")
	}
	if rec.UserID != 42 || rec.Amount != 0 || len(rec.History) != 0 {
		t.Errorf("нулевая запись неверна: %+v", rec)
	}
}

func TestRemoveAllPointsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store)

	if _, err := svc.AddPoints(ctx, 1, 100, "начало", 99); err != nil {
		t.Fatalf("AddPoints: %v", err)
	}

	if err := svc.RemoveAllPoints(ctx, 1, 99); err != nil {
		t.Fatalf("первое удаление: %v", err)
	}
	// Повторное удаление — тоже успех
	if err := svc.RemoveAllPoints(ctx, 1, 99); err != nil {
		t.Fatalf("повторное удаление: %v", err)
	}

	rec, err := svc.GetPoints(ctx, 1)
	if err != nil {
		t.Fatalf("GetPoints: %v", err)
	}
	if rec.Amount != 0 || len(rec.History) != 0 {
		t.Errorf("после удаления запись не пустая: %+v", rec)
	}
}

func TestAddPointsConcurrent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())

	const goroutines = 50
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddPoints(ctx, 1, 1, "гонка", 99); err != nil {
				t.Errorf("AddPoints: %v", err)
			}
		}()
	}
	wg.Wait()

	rec, err := svc.GetPoints(ctx, 1)
	if err != nil {
		t.Fatalf("GetPoints: %v", err)
	}
	if rec.Amount != goroutines {
		t.Errorf("Amount = %d, ожидалось %d (потеряны обновления)", rec.Amount, goroutines)
	}
	if len(rec.History) != goroutines {
		t.Errorf("len(History) = %d, ожидалось %d", len(rec.History), goroutines)
	}
	if !rec.Consistent() {
		t.Error("баланс не равен сумме дельт истории")
	}
}

// failingStore отказывает на Put — для проверки, что ошибка
// хранилища не меняет состояние реестра.
type failingStore struct {
	*MemoryStore
	failPut bool
}

func (s *failingStore) Put(ctx context.Context, rec *Record) error {
	if s.failPut {
		return fmt.Errorf("%w: соединение потеряно", common.ErrStorageUnavailable)
	}
	return s.MemoryStore.Put(ctx, rec)
}

func TestAddPointsStorageFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: NewMemoryStore()}
	svc := NewService(store)

	if _, err := svc.AddPoints(ctx, 1, 10, "до отказа", 99); err != nil {
		t.Fatalf("AddPoints: %v", err)
	}

	store.failPut = true
	if _, err := svc.AddPoints(ctx, 1, 5, "во время отказа", 99); !errors.Is(err, common.ErrStorageUnavailable) {
		t.Fatalf("err = %v, ожидался ErrStorageUnavailable", err)
	}

	store.failPut = false
	rec, err := svc.GetPoints(ctx, 1)
	if err != nil {
		t.Fatalf("GetPoints: %v", err)
	}
	if rec.Amount != 10 || len(rec.History) != 1 {
		t.Errorf("отказ Put изменил состояние: %+v", rec)
	}
}

func TestGetAllPoints(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())

	for _, id := range []int64{3, 1, 2} {
		if _, err := svc.AddPoints(ctx, id, id*10, "посев", 99); err != nil {
			t.Fatalf("AddPoints(%d): %v", id, err)
		}
	}

	all, err := svc.GetAllPoints(ctx)
	if err != nil {
		t.Fatalf("GetAllPoints: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, ожидалось 3", len(all))
	}
	for _, id := range []int64{1, 2, 3} {
		rec, ok := all[id]
		if !ok {
			t.Errorf("нет записи пользователя %d", id)
			continue
		}
		if rec.Amount != id*10 {
			t.Errorf("пользователь %d: Amount = %d, ожидалось %d", id, rec.Amount, id*10)
		}
	}
}
