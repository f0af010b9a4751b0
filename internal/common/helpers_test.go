package common

import (
	"testing"
	"time"
)

func TestPluralizePoints(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "очков"},
		{1, "очко"},
		{2, "очка"},
		{4, "очка"},
		{5, "очков"},
		{11, "очков"},
		{12, "очков"},
		{14, "очков"},
		{21, "очко"},
		{22, "очка"},
		{100, "очков"},
		{101, "очко"},
		{111, "очков"},
		{-1, "очко"},
		{-5, "очков"},
	}

	for _, tt := range tests {
		if got := PluralizePoints(tt.n); got != tt.want {
			t.Errorf("PluralizePoints(%d) = %q, ожидалось %q", tt.n, got, tt.want)
		}
	}
}

func TestPluralizeRows(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "строка"},
		{2, "строки"},
		{5, "строк"},
		{11, "строк"},
		{21, "строка"},
		{104, "строки"},
	}

	for _, tt := range tests {
		if got := PluralizeRows(tt.n); got != tt.want {
			t.Errorf("PluralizeRows(%d) = %q, ожидалось %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatDelta(t *testing.T) {
	tests := []struct {
		delta int64
		want  string
	}{
		{100, "+100"},
		{-50, "-50"},
		{0, "+0"},
	}

	for _, tt := range tests {
		if got := FormatDelta(tt.delta); got != tt.want {
			t.Errorf("FormatDelta(%d) = %q, ожидалось %q", tt.delta, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1 000"},
		{2350, "2 350"},
		{1234567, "1 234 567"},
		{-2350, "-2 350"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, ожидалось %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatDateTime(t *testing.T) {
	// 12:00 UTC = 15:00 по Москве
	ts := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	if got := FormatDateTime(ts); got != "07.03.2024 15:00" {
		t.Errorf("FormatDateTime = %q, ожидалось %q", got, "07.03.2024 15:00")
	}
}
