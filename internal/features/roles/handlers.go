// Package roles — handlers.go обрабатывает команды:
// !роли (публикация сообщения выбора), !обновитьроли (переписать все
// опубликованные сообщения из текущих настроек), !добавитьроль,
// !удалитьроль — и нажатия кнопок выбора роли.
package roles

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/mordvinkin/points-bot/internal/common"
	"github.com/mordvinkin/points-bot/internal/features/admin"
)

// Префикс callback-данных кнопок выбора роли
const callbackPrefix = "role:"

// Handler обрабатывает команды и кнопки выбора ролей.
type Handler struct {
	service      *Service
	adminService *admin.Service
	bot          *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик ролей.
func NewHandler(service *Service, adminService *admin.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, adminService: adminService, bot: bot}
}

// HandlePost обрабатывает !роли — публикует сообщение выбора ролей
// и запоминает его для будущих обновлений.
func (h *Handler) HandlePost(ctx context.Context, chatID, actorID int64) {
	if !h.ensureAdmin(ctx, chatID, actorID) {
		return
	}

	options, err := h.service.Options(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения вариантов ролей")
		h.sendMessage(chatID, "❌ Ошибка чтения настроек ролей")
		return
	}

	msg := tgbotapi.NewMessage(chatID, MessageText(options))
	if len(options) > 0 {
		msg.ReplyMarkup = buildKeyboard(options)
	}

	sent, err := h.bot.Send(msg)
	if err != nil {
		log.WithError(err).Error("Ошибка публикации сообщения ролей")
		return
	}

	if err := h.service.repo.SaveMessage(ctx, chatID, sent.MessageID); err != nil {
		log.WithError(err).Error("Ошибка сохранения сообщения ролей")
	}
}

// HandleRefresh обрабатывает !обновитьроли — переписывает каждое
// опубликованное сообщение выбора ролей из текущего набора вариантов.
// Сообщения, которых больше нет в чате, убираются из учёта.
func (h *Handler) HandleRefresh(ctx context.Context, chatID, actorID int64) {
	if !h.ensureAdmin(ctx, chatID, actorID) {
		return
	}

	options, err := h.service.Options(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения вариантов ролей")
		h.sendMessage(chatID, "❌ Ошибка чтения настроек ролей")
		return
	}

	messages, err := h.service.repo.ListMessages(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения сообщений ролей")
		h.sendMessage(chatID, "❌ Ошибка чтения настроек ролей")
		return
	}
	if len(messages) == 0 {
		h.sendMessage(chatID, "Нет опубликованных сообщений. Сначала !роли")
		return
	}

	refreshed := 0
	for _, m := range messages {
		edit := tgbotapi.NewEditMessageTextAndMarkup(m.ChatID, m.MessageID, MessageText(options), buildKeyboard(options))
		if _, err := h.bot.Send(edit); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"chat_id":    m.ChatID,
				"message_id": m.MessageID,
			}).Warn("Не удалось обновить сообщение ролей, убираем из учёта")
			if ferr := h.service.repo.ForgetMessage(ctx, m.ID); ferr != nil {
				log.WithError(ferr).Error("Ошибка удаления сообщения из учёта")
			}
			continue
		}
		refreshed++
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Обновлено сообщений: %d из %d", refreshed, len(messages)))
}

// HandleAddOption обрабатывает !добавитьроль <эмодзи> <роль> [описание].
func (h *Handler) HandleAddOption(ctx context.Context, chatID, actorID int64, args []string) {
	if !h.ensureAdmin(ctx, chatID, actorID) {
		return
	}

	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: !добавитьроль <эмодзи> <роль> [описание]")
		return
	}

	emoji, role := args[0], args[1]
	description := strings.Join(args[2:], " ")

	if len([]rune(role)) > 64 {
		h.sendMessage(chatID, "❌ Роль слишком длинная (максимум 64 символа)")
		return
	}

	id, err := h.service.AddOption(ctx, emoji, role, description)
	if err != nil {
		log.WithError(err).Error("Ошибка добавления варианта роли")
		h.sendMessage(chatID, "❌ Ошибка добавления варианта")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Вариант #%d добавлен. Не забудьте !обновитьроли", id))
}

// HandleDeleteOption обрабатывает !удалитьроль <id варианта>.
func (h *Handler) HandleDeleteOption(ctx context.Context, chatID, actorID int64, args []string) {
	if !h.ensureAdmin(ctx, chatID, actorID) {
		return
	}

	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: !удалитьроль <номер варианта>")
		return
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ Номер варианта должен быть числом")
		return
	}

	existed, err := h.service.DeleteOption(ctx, id)
	if err != nil {
		log.WithError(err).Error("Ошибка удаления варианта роли")
		h.sendMessage(chatID, "❌ Ошибка удаления варианта")
		return
	}
	if !existed {
		h.sendMessage(chatID, "Такого варианта и не было")
		return
	}

	h.sendMessage(chatID, "✅ Вариант удалён. Не забудьте !обновитьроли")
}

// HandleCallback обрабатывает нажатие кнопки выбора роли.
func (h *Handler) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.From == nil || !strings.HasPrefix(callback.Data, callbackPrefix) {
		return
	}

	optionID, err := strconv.ParseInt(strings.TrimPrefix(callback.Data, callbackPrefix), 10, 64)
	if err != nil {
		h.answerCallback(callback.ID, "Некорректная кнопка")
		return
	}

	role, err := h.service.Assign(ctx, callback.From.ID, optionID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRoleOptionNotFound):
			h.answerCallback(callback.ID, "Этого варианта больше нет, дождитесь обновления")
		default:
			log.WithError(err).Error("Ошибка назначения роли")
			h.answerCallback(callback.ID, "Ошибка, попробуйте позже")
		}
		return
	}

	h.answerCallback(callback.ID, fmt.Sprintf("Роль «%s» назначена", role))
}

// buildKeyboard собирает клавиатуру: одна кнопка на вариант.
func buildKeyboard(options []*Option) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, o := range options {
		data := fmt.Sprintf("%s%d", callbackPrefix, o.ID)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(o.ButtonLabel(), data),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// answerCallback отвечает на нажатие кнопки всплывающим уведомлением.
func (h *Handler) answerCallback(callbackID, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.WithError(err).Error("Ошибка ответа на callback")
	}
}

// ensureAdmin проверяет права на команды управления ролями.
func (h *Handler) ensureAdmin(ctx context.Context, chatID, userID int64) bool {
	err := h.adminService.Authorized(ctx, userID)
	if err == nil {
		return true
	}

	switch {
	case errors.Is(err, common.ErrNotAdmin):
		h.sendMessage(chatID, "❌ Команда доступна только администраторам")
	case errors.Is(err, common.ErrNoSession):
		h.sendMessage(chatID, "🔐 Сначала войдите: /login <пароль> в личке с ботом")
	default:
		log.WithError(err).Error("Ошибка проверки прав")
		h.sendMessage(chatID, "❌ Ошибка проверки прав")
	}
	return false
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
