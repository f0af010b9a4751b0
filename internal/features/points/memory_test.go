package points

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreGetAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Errorf("rec = %+v, ожидался nil для отсутствующей записи", rec)
	}
}

func TestMemoryStoreCloneIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := NewRecord(1)
	rec.Apply(Entry{Delta: 10, Reason: "посев", AssignerID: 99, CreatedAt: time.Now().UTC()})
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Мутация записи после Put не должна затронуть хранилище
	rec.Apply(Entry{Delta: 100, Reason: "мимо кассы", AssignerID: 99})

	got, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Amount != 10 || len(got.History) != 1 {
		t.Errorf("хранилище делит память с вызывающим: %+v", got)
	}

	// И мутация результата Get тоже
	got.Apply(Entry{Delta: 100, Reason: "мимо кассы", AssignerID: 99})
	again, _ := store.Get(ctx, 1)
	if again.Amount != 10 {
		t.Errorf("результат Get делит память с хранилищем: %+v", again)
	}
}

func TestMemoryStoreListAllOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, id := range []int64{30, 10, 20} {
		if err := store.Put(ctx, NewRecord(id)); err != nil {
			t.Fatalf("Put(%d): %v", id, err)
		}
	}
	// Обновление существующей записи порядок не меняет
	if err := store.Put(ctx, &Record{UserID: 30, Amount: 1}); err != nil {
		t.Fatalf("Put(30): %v", err)
	}

	recs, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	want := []int64{30, 10, 20}
	if len(recs) != len(want) {
		t.Fatalf("len = %d, ожидалось %d", len(recs), len(want))
	}
	for i, id := range want {
		if recs[i].UserID != id {
			t.Errorf("recs[%d].UserID = %d, ожидалось %d", i, recs[i].UserID, id)
		}
	}
}

func TestMemoryStoreDeleteAndRecreate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, id := range []int64{1, 2, 3} {
		store.Put(ctx, NewRecord(id))
	}

	existed, err := store.Delete(ctx, 1)
	if err != nil || !existed {
		t.Fatalf("Delete(1) = (%v, %v), ожидалось (true, nil)", existed, err)
	}
	existed, err = store.Delete(ctx, 1)
	if err != nil || existed {
		t.Fatalf("повторный Delete(1) = (%v, %v), ожидалось (false, nil)", existed, err)
	}

	// Пересозданная запись встаёт в конец порядка
	store.Put(ctx, NewRecord(1))
	recs, _ := store.ListAll(ctx)
	want := []int64{2, 3, 1}
	for i, id := range want {
		if recs[i].UserID != id {
			t.Fatalf("после пересоздания порядок %v на позиции %d, ожидалось %v", recs[i].UserID, i, want)
		}
	}
}
