// Package points реализует реестр очков: баланс каждого пользователя
// плюс аудируемая история всех изменений.
// models.go описывает структуры записи и истории.
package points

import "time"

// Entry — одна запись в истории очков пользователя.
// Записи неизменяемы: исправление прошлого начисления — это новая
// запись с компенсирующей дельтой, а не правка старой.
type Entry struct {
	Delta      int64     `json:"delta"`       // Изменение баланса (может быть отрицательным или нулевым)
	Reason     string    `json:"reason"`      // Причина начисления (обязательна)
	AssignerID int64     `json:"assigner_id"` // Кто начислил (Telegram user ID)
	CreatedAt  time.Time `json:"created_at"`  // Когда начислено
}

// Record — очки одного пользователя: текущий баланс и полная история.
// Инвариант: Amount всегда равен сумме дельт всех записей History.
// История упорядочена от старых записей к новым и только дописывается;
// единственная разрушающая операция — удаление записи целиком.
type Record struct {
	UserID  int64   `json:"user_id"`
	Amount  int64   `json:"amount"`
	History []Entry `json:"history"`
}

// NewRecord создаёт пустую запись: ноль очков, пустая история.
// Такая запись возвращается и для пользователей, которых реестр
// никогда не видел — отсутствие данных не ошибка.
func NewRecord(userID int64) *Record {
	return &Record{UserID: userID}
}

// Apply дописывает запись в историю и обновляет баланс.
// Единственный способ изменить Record — инвариант баланса
// поддерживается здесь и нигде больше.
func (r *Record) Apply(e Entry) {
	r.History = append(r.History, e)
	r.Amount += e.Delta
}

// Consistent проверяет инвариант: баланс равен сумме дельт истории.
func (r *Record) Consistent() bool {
	var sum int64
	for _, e := range r.History {
		sum += e.Delta
	}
	return sum == r.Amount
}

// Clone возвращает глубокую копию записи.
// Хранилища отдают и принимают копии, чтобы вызывающий код
// не мог изменить состояние хранилища мимо Put.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := &Record{UserID: r.UserID, Amount: r.Amount}
	if len(r.History) > 0 {
		cp.History = make([]Entry, len(r.History))
		copy(cp.History, r.History)
	}
	return cp
}

// Tail возвращает последние n записей истории (для отображения).
// n <= 0 означает «ничего не показывать», а не «показать всё».
func (r *Record) Tail(n int) []Entry {
	if n <= 0 {
		return nil
	}
	if len(r.History) <= n {
		return r.History
	}
	return r.History[len(r.History)-n:]
}
