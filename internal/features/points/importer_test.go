package points

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mordvinkin/points-bot/internal/common"
)

// mapResolver разрешает пользователей по фиксированной таблице.
type mapResolver struct {
	users map[string]int64
}

func (r *mapResolver) Resolve(ctx context.Context, ref string) (int64, error) {
	if id, ok := r.users[ref]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %q", common.ErrUserUnresolved, ref)
}

func newTestImporter(maxRows int) (*Importer, *Service) {
	svc := NewService(NewMemoryStore())
	resolver := &mapResolver{users: map[string]int64{
		"@vasya": 1,
		"@petya": 2,
		"100500": 3,
	}}
	return NewImporter(svc, resolver, maxRows), svc
}

func TestImportMixedRows(t *testing.T) {
	ctx := context.Background()
	imp, svc := newTestImporter(0)

	data := "@vasya,5\n@nobody,7\n@petya,-2\n"
	summary, err := imp.Import(ctx, data, "Импорт из CSV", 99)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if summary.Applied != 2 {
		t.Errorf("Applied = %d, ожидалось 2", summary.Applied)
	}
	if summary.Failed() != 1 {
		t.Fatalf("Failed = %d, ожидался 1", summary.Failed())
	}

	f := summary.Failures[0]
	if f.Line != 2 {
		t.Errorf("Line = %d, ожидалась 2", f.Line)
	}
	if f.Kind != FailureUnresolved {
		t.Errorf("Kind = %q, ожидался unresolved", f.Kind)
	}
	if !errors.Is(f.Err, common.ErrUserUnresolved) {
		t.Errorf("Err = %v, ожидался ErrUserUnresolved", f.Err)
	}

	// Хорошие строки применены несмотря на плохую между ними
	rec, _ := svc.GetPoints(ctx, 1)
	if rec.Amount != 5 {
		t.Errorf("@vasya: Amount = %d, ожидалось 5", rec.Amount)
	}
	rec, _ = svc.GetPoints(ctx, 2)
	if rec.Amount != -2 {
		t.Errorf("@petya: Amount = %d, ожидалось -2", rec.Amount)
	}
}

func TestImportFailureKinds(t *testing.T) {
	ctx := context.Background()
	imp, _ := newTestImporter(0)

	data := "кривая строка\n@vasya,не-число\n@nobody,5\n@vasya,1\n"
	summary, err := imp.Import(ctx, data, "Импорт из CSV", 99)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if summary.Applied != 1 {
		t.Errorf("Applied = %d, ожидалась 1", summary.Applied)
	}
	if got := summary.CountKind(FailureInvalid); got != 2 {
		t.Errorf("invalid = %d, ожидалось 2", got)
	}
	if got := summary.CountKind(FailureUnresolved); got != 1 {
		t.Errorf("unresolved = %d, ожидался 1", got)
	}
	if got := summary.CountKind(FailureStorage); got != 0 {
		t.Errorf("storage = %d, ожидалось 0", got)
	}
}

func TestImportSameUserOrdered(t *testing.T) {
	ctx := context.Background()
	imp, svc := newTestImporter(0)

	data := "@vasya,5\n@vasya,-2\n@vasya,10\n"
	summary, err := imp.Import(ctx, data, "Импорт из CSV", 99)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if summary.Applied != 3 {
		t.Fatalf("Applied = %d, ожидалось 3", summary.Applied)
	}

	rec, _ := svc.GetPoints(ctx, 1)
	if rec.Amount != 13 {
		t.Errorf("Amount = %d, ожидалось 13", rec.Amount)
	}
	want := []int64{5, -2, 10}
	if len(rec.History) != len(want) {
		t.Fatalf("len(History) = %d, ожидалось %d", len(rec.History), len(want))
	}
	for i, delta := range want {
		if rec.History[i].Delta != delta {
			t.Errorf("History[%d].Delta = %d, ожидалось %d (нарушен порядок файла)",
				i, rec.History[i].Delta, delta)
		}
	}
}

func TestImportSkipsBlankAndCRLF(t *testing.T) {
	ctx := context.Background()
	imp, svc := newTestImporter(0)

	data := "@vasya,5\r\n\r\n   \n100500,2\r\n"
	summary, err := imp.Import(ctx, data, "Импорт из CSV", 99)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if summary.Applied != 2 || summary.Failed() != 0 {
		t.Errorf("Applied = %d, Failed = %d; ожидалось 2 и 0", summary.Applied, summary.Failed())
	}

	rec, _ := svc.GetPoints(ctx, 3)
	if rec.Amount != 2 {
		t.Errorf("числовой ID: Amount = %d, ожидалось 2", rec.Amount)
	}
}

func TestImportEmptyReason(t *testing.T) {
	ctx := context.Background()
	imp, svc := newTestImporter(0)

	if _, err := imp.Import(ctx, "@vasya,5\n", "  ", 99); !errors.Is(err, common.ErrEmptyReason) {
		t.Fatalf("err = %v, ожидался ErrEmptyReason", err)
	}

	rec, _ := svc.GetPoints(ctx, 1)
	if rec.Amount != 0 {
		t.Errorf("батч с пустой причиной что-то применил: %+v", rec)
	}
}

func TestImportTooManyRows(t *testing.T) {
	ctx := context.Background()
	imp, svc := newTestImporter(2)

	_, err := imp.Import(ctx, "@vasya,1\n@petya,1\n100500,1\n", "Импорт из CSV", 99)
	if !errors.Is(err, common.ErrTooManyRows) {
		t.Fatalf("err = %v, ожидался ErrTooManyRows", err)
	}

	// Лимит проверяется до применения чего-либо
	rec, _ := svc.GetPoints(ctx, 1)
	if rec.Amount != 0 {
		t.Errorf("батч сверх лимита что-то применил: %+v", rec)
	}
}

func TestImportCancelledContext(t *testing.T) {
	imp, _ := newTestImporter(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := imp.Import(ctx, "@vasya,5\n@petya,1\n", "Импорт из CSV", 99)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, ожидался context.Canceled", err)
	}
	if summary == nil {
		t.Fatal("summary == nil, ожидался частичный итог")
	}
	if summary.Applied != 0 {
		t.Errorf("Applied = %d, ожидалось 0", summary.Applied)
	}
}
