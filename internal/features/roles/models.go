// Package roles реализует самостоятельный выбор роли участниками:
// бот публикует сообщение с кнопками, нажатие назначает роль.
// models.go описывает варианты ролей и опубликованные сообщения.
package roles

import "time"

// Option — один вариант роли в сообщении выбора.
type Option struct {
	ID          int64     `db:"id"`
	Emoji       string    `db:"emoji"`       // Эмодзи на кнопке
	Role        string    `db:"role"`        // Название роли (до 64 символов)
	Description string    `db:"description"` // Пояснение в тексте сообщения (может быть пустым)
	Position    int       `db:"position"`    // Порядок в сообщении
	CreatedAt   time.Time `db:"created_at"`
}

// ButtonLabel возвращает подпись кнопки.
func (o *Option) ButtonLabel() string {
	return o.Emoji + " " + o.Role
}

// PostedMessage — опубликованное сообщение выбора ролей.
// Хранится, чтобы команда обновления могла переписать все такие
// сообщения после изменения набора вариантов.
type PostedMessage struct {
	ID        int64     `db:"id"`
	ChatID    int64     `db:"chat_id"`
	MessageID int       `db:"message_id"`
	PostedAt  time.Time `db:"posted_at"`
}
