// Package points — importer.go реализует массовый импорт начислений
// из CSV-текста. Каждая строка обрабатывается независимо: одна плохая
// строка не останавливает остальные.
package points

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/mordvinkin/points-bot/internal/common"
)

// UserResolver превращает ссылку на пользователя из строки импорта
// (@username или числовой ID) в Telegram user ID.
// Нераспознанная ссылка — ошибка, оборачивающая common.ErrUserUnresolved.
type UserResolver interface {
	Resolve(ctx context.Context, ref string) (int64, error)
}

// FailureKind различает причины отказа строки: их исправляют по-разному.
type FailureKind string

const (
	// FailureInvalid — строка не разбирается (не два поля, дельта не число)
	FailureInvalid FailureKind = "invalid"
	// FailureUnresolved — ссылка на пользователя не распознана; нужно чинить файл
	FailureUnresolved FailureKind = "unresolved"
	// FailureStorage — хранилище отказало; строку можно повторить позже
	FailureStorage FailureKind = "storage"
)

// RowError — отказ одной строки импорта.
type RowError struct {
	Line int         // Номер строки в файле, с единицы
	Raw  string      // Исходный текст строки
	Kind FailureKind // Класс отказа
	Err  error       // Причина
}

// Summary — итог батча: сколько строк применено и какие отказали.
// Батч не транзакционен: применённые строки остаются применёнными,
// каждая из них — самостоятельная запись аудита.
type Summary struct {
	Applied  int
	Failures []RowError
}

// Failed возвращает число отказавших строк.
func (s *Summary) Failed() int { return len(s.Failures) }

// CountKind возвращает число отказов данного класса.
func (s *Summary) CountKind(kind FailureKind) int {
	n := 0
	for _, f := range s.Failures {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// Importer прогоняет строки CSV через сервис реестра.
type Importer struct {
	service  *Service
	resolver UserResolver
	maxRows  int // Защита от гигантских файлов; 0 — без ограничения
}

// NewImporter создаёт импортёр.
func NewImporter(service *Service, resolver UserResolver, maxRows int) *Importer {
	return &Importer{service: service, resolver: resolver, maxRows: maxRows}
}

// Import применяет строки вида "пользователь,дельта" по одной, в порядке файла.
// Общая причина и ID назначившего одинаковы для всех строк.
//
// Строки независимы: отказ разрешения пользователя, кривая дельта или
// ошибка хранилища записываются в итог, батч продолжается. Пустые строки
// пропускаются молча. Отмена контекста бросает необработанный остаток;
// уже применённые строки не откатываются.
//
// Ошибку (а не Summary) Import возвращает только при проблеме всего батча:
// пустая причина или превышение лимита строк.
func (imp *Importer) Import(ctx context.Context, data, reason string, assignerID int64) (*Summary, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, common.ErrEmptyReason
	}

	lines := strings.Split(data, "\n")
	if imp.maxRows > 0 && countNonEmpty(lines) > imp.maxRows {
		return nil, fmt.Errorf("%w: максимум %d", common.ErrTooManyRows, imp.maxRows)
	}

	summary := &Summary{}
	for i, raw := range lines {
		if err := ctx.Err(); err != nil {
			// Вызывающий отменил импорт: остаток бросаем,
			// применённые строки остаются применёнными
			log.WithField("line", i+1).Warn("Импорт прерван")
			return summary, err
		}

		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" {
			continue
		}

		if rowErr := imp.applyRow(ctx, i+1, line, reason, assignerID); rowErr != nil {
			summary.Failures = append(summary.Failures, *rowErr)
			continue
		}
		summary.Applied++
	}

	log.WithFields(log.Fields{
		"applied": summary.Applied,
		"failed":  summary.Failed(),
	}).Info("Импорт завершён")

	return summary, nil
}

// applyRow обрабатывает одну строку: разбор, разрешение пользователя, начисление.
func (imp *Importer) applyRow(ctx context.Context, lineNo int, line, reason string, assignerID int64) *RowError {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return &RowError{Line: lineNo, Raw: line, Kind: FailureInvalid, Err: common.ErrMalformedRow}
	}

	ref := strings.TrimSpace(fields[0])
	delta, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return &RowError{Line: lineNo, Raw: line, Kind: FailureInvalid,
			Err: fmt.Errorf("%w: %q", common.ErrInvalidAmount, fields[1])}
	}

	userID, err := imp.resolver.Resolve(ctx, ref)
	if err != nil {
		kind := FailureStorage
		if errors.Is(err, common.ErrUserUnresolved) {
			kind = FailureUnresolved
		}
		return &RowError{Line: lineNo, Raw: line, Kind: kind, Err: err}
	}

	if _, err := imp.service.AddPoints(ctx, userID, delta, reason, assignerID); err != nil {
		return &RowError{Line: lineNo, Raw: line, Kind: FailureStorage, Err: err}
	}
	return nil
}

func countNonEmpty(lines []string) int {
	n := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			n++
		}
	}
	return n
}
