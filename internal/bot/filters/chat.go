// Package filters — chat.go решает, обслуживать ли сообщение.
// Бот работает в одном групповом чате (MAIN_CHAT_ID) и в личке
// участников этого чата; всё остальное игнорируется.
package filters

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/mordvinkin/points-bot/internal/features/members"
)

type ChatFilter struct {
	mainChatID    int64
	memberService *members.Service
	bot           *tgbotapi.BotAPI
}

func NewChatFilter(mainChatID int64, memberService *members.Service, bot *tgbotapi.BotAPI) *ChatFilter {
	return &ChatFilter{
		mainChatID:    mainChatID,
		memberService: memberService,
		bot:           bot,
	}
}

// CheckAccess возвращает true, если сообщение надо обслуживать.
// Личка неизвестного базе пользователя проверяется через Telegram API:
// если он всё же участник чата — запись в БД досоздаётся.
func (f *ChatFilter) CheckAccess(ctx context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil || message.From == nil {
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   chatID,
		"user_id":   userID,
	})

	// 1) Разрешённый чат
	if chatID == f.mainChatID {
		return true
	}

	// 2) Остальные групповые чаты игнорируем
	if !message.Chat.IsPrivate() {
		logger.Debug("deny: чужой групповой чат")
		return false
	}

	// 3) Личка: сначала быстро по БД
	isMember, err := f.memberService.IsMember(ctx, userID)
	if err != nil {
		logger.WithError(err).Error("Ошибка проверки членства (БД)")
		return false
	}
	if isMember {
		return true
	}

	// 3.1) БД не знает пользователя: спрашиваем Telegram
	cm, err := f.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: f.mainChatID,
			UserID: userID,
		},
	})
	if err != nil {
		logger.WithError(err).Error("Ошибка проверки членства (Telegram)")
		return false
	}

	switch cm.Status {
	case "creator", "administrator", "member", "restricted":
		// Участник, которого нет в БД — досоздаём запись
		if err := f.memberService.EnsureMember(
			ctx, userID,
			message.From.UserName,
			message.From.FirstName,
			message.From.LastName,
		); err != nil {
			logger.WithError(err).Warn("Не удалось досоздать участника (пропускаем всё равно)")
		}
		logger.WithField("tg_status", cm.Status).Info("allow: личка участника")
		return true

	default:
		logger.WithField("tg_status", cm.Status).Info("deny: не участник чата")
		msg := tgbotapi.NewMessage(chatID, "❌ Бот работает только для участников основного чата")
		if _, sendErr := f.bot.Send(msg); sendErr != nil {
			logger.WithError(sendErr).Warn("Не удалось отправить отказ")
		}
		return false
	}
}
