package points

import "testing"

func TestTail(t *testing.T) {
	rec := NewRecord(1)
	for _, delta := range []int64{1, 2, 3, 4, 5} {
		rec.Apply(Entry{Delta: delta, Reason: "посев"})
	}

	tests := []struct {
		name       string
		n          int
		wantDeltas []int64
	}{
		{name: "последние две", n: 2, wantDeltas: []int64{4, 5}},
		{name: "n больше истории", n: 10, wantDeltas: []int64{1, 2, 3, 4, 5}},
		{name: "n равно длине", n: 5, wantDeltas: []int64{1, 2, 3, 4, 5}},
		{name: "ноль — ничего", n: 0, wantDeltas: nil},
		{name: "отрицательное — ничего", n: -1, wantDeltas: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rec.Tail(tt.n)
			if len(got) != len(tt.wantDeltas) {
				t.Fatalf("len = %d, ожидалось %d", len(got), len(tt.wantDeltas))
			}
			for i, want := range tt.wantDeltas {
				if got[i].Delta != want {
					t.Errorf("Tail(%d)[%d].Delta = %d, ожидалось %d", tt.n, i, got[i].Delta, want)
				}
			}
		})
	}
}
