// Package admin — handlers.go обрабатывает /login и /logout в личке.
// Пароль принимается ТОЛЬКО в личных сообщениях, чтобы не светить его в чате.
package admin

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/mordvinkin/points-bot/internal/common"
)

// Handler обрабатывает команды аутентификации.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик админ-команд.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleLogin обрабатывает /login <пароль> в личке.
func (h *Handler) HandleLogin(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "Формат: /login <пароль>")
		return
	}

	err := h.service.Login(ctx, userID, strings.Join(args, " "))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotAdmin):
			h.sendMessage(chatID, "❌ У вас нет прав администратора")
		case errors.Is(err, common.ErrWrongPassword):
			h.sendMessage(chatID, "❌ Неверный пароль")
		case errors.Is(err, common.ErrTooManyAttempts):
			h.sendMessage(chatID, "❌ Слишком много попыток, подождите 1 час")
		default:
			log.WithError(err).Error("Ошибка входа администратора")
			h.sendMessage(chatID, "❌ Ошибка входа, попробуйте позже")
		}
		return
	}

	h.sendMessage(chatID, "✅ Сессия открыта на 24 часа. Команды реестра доступны.")
}

// HandleLogout обрабатывает /logout — гасит все сессии пользователя.
func (h *Handler) HandleLogout(ctx context.Context, chatID, userID int64) {
	if err := h.service.Logout(ctx, userID); err != nil {
		log.WithError(err).Error("Ошибка выхода")
		h.sendMessage(chatID, "❌ Ошибка выхода")
		return
	}
	h.sendMessage(chatID, "✅ Сессии закрыты")
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
