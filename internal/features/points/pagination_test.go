package points

import (
	"math"
	"testing"
)

func snapshot(ids ...int64) map[int64]*Record {
	all := make(map[int64]*Record, len(ids))
	for _, id := range ids {
		all[id] = &Record{UserID: id, Amount: id * 10}
	}
	return all
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		ids       []int64
		page      int
		pageSize  int
		wantIDs   []int64
		wantPages int
		wantTotal int
	}{
		{
			name: "первая страница", ids: []int64{5, 1, 3, 2, 4},
			page: 1, pageSize: 2,
			wantIDs: []int64{1, 2}, wantPages: 3, wantTotal: 5,
		},
		{
			name: "последняя неполная страница", ids: []int64{5, 1, 3, 2, 4},
			page: 3, pageSize: 2,
			wantIDs: []int64{5}, wantPages: 3, wantTotal: 5,
		},
		{
			name: "страница за концом", ids: []int64{1, 2},
			page: 7, pageSize: 2,
			wantIDs: []int64{}, wantPages: 1, wantTotal: 2,
		},
		{
			name: "page < 1 — первая страница", ids: []int64{1, 2, 3},
			page: 0, pageSize: 2,
			wantIDs: []int64{1, 2}, wantPages: 2, wantTotal: 3,
		},
		{
			name: "пустой реестр", ids: nil,
			page: 1, pageSize: 50,
			wantIDs: []int64{}, wantPages: 1, wantTotal: 0,
		},
		{
			name: "ровно одна полная страница", ids: []int64{1, 2, 3},
			page: 1, pageSize: 3,
			wantIDs: []int64{1, 2, 3}, wantPages: 1, wantTotal: 3,
		},
		{
			name: "pageSize < 1 — по одной записи", ids: []int64{1, 2},
			page: 2, pageSize: 0,
			wantIDs: []int64{2}, wantPages: 2, wantTotal: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, pages, total := Paginate(snapshot(tt.ids...), tt.page, tt.pageSize)

			if pages != tt.wantPages {
				t.Errorf("totalPages = %d, ожидалось %d", pages, tt.wantPages)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, ожидалось %d", total, tt.wantTotal)
			}
			if len(items) != len(tt.wantIDs) {
				t.Fatalf("len(items) = %d, ожидалось %d", len(items), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if items[i].UserID != want {
					t.Errorf("items[%d].UserID = %d, ожидалось %d", i, items[i].UserID, want)
				}
			}
		})
	}
}

func TestPaginateHugePage(t *testing.T) {
	// Номер страницы из !топ приходит от пользователя как есть:
	// гигантское значение не должно ронять нарезку на переполнении offset
	all := snapshot(1, 2, 3, 4, 5)

	for _, page := range []int{math.MaxInt, math.MaxInt / 2, 1 << 40} {
		items, totalPages, total := Paginate(all, page, 50)
		if len(items) != 0 {
			t.Errorf("page=%d: len(items) = %d, ожидался пустой срез", page, len(items))
		}
		if totalPages != 1 || total != 5 {
			t.Errorf("page=%d: totalPages=%d total=%d, ожидалось 1 и 5", page, totalPages, total)
		}
	}
}

func TestPaginateDeterministic(t *testing.T) {
	all := snapshot(9, 4, 7, 1, 3, 8, 2, 6, 5)

	first, _, _ := Paginate(all, 2, 3)
	for i := 0; i < 10; i++ {
		again, _, _ := Paginate(all, 2, 3)
		for j := range first {
			if first[j].UserID != again[j].UserID {
				t.Fatalf("итерация %d: порядок страниц не детерминирован", i)
			}
		}
	}
}
