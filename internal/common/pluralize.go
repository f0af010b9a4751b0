// Package common — pluralize.go содержит вспомогательные функции
// форматирования дельт и чисел.
// Основная логика плюрализации реализована в helpers.go,
// этот файл экспортирует дополнительные утилиты.
package common

import "fmt"

// FormatDelta создаёт строку вида "+100" или "-50".
// Знак «+» добавляется автоматически для неотрицательных чисел,
// поэтому нулевая корректировка отображается как "+0".
//
// Примеры:
//
//	FormatDelta(100) → "+100"
//	FormatDelta(-50) → "-50"
//	FormatDelta(0)   → "+0"
func FormatDelta(delta int64) string {
	if delta >= 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return fmt.Sprintf("%d", delta)
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	// Простая реализация для чисел до миллиарда
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	// Рекурсивно добавляем разделители
	rest := n / 1000
	last := n % 1000

	if rest > 0 {
		return fmt.Sprintf("%s %03d", FormatNumber(rest), last)
	}
	return fmt.Sprintf("%d", last)
}
