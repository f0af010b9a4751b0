// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go связывает обработчики и запускает polling.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/mordvinkin/points-bot/internal/bot/filters"
	"github.com/mordvinkin/points-bot/internal/bot/middleware"
	"github.com/mordvinkin/points-bot/internal/config"
	"github.com/mordvinkin/points-bot/internal/features/admin"
	"github.com/mordvinkin/points-bot/internal/features/members"
	"github.com/mordvinkin/points-bot/internal/features/points"
	"github.com/mordvinkin/points-bot/internal/features/roles"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	memberHandler *members.Handler
	pointsHandler *points.Handler
	rolesHandler  *roles.Handler
	adminHandler  *admin.Handler

	memberService *members.Service

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	memberService *members.Service,
	memberHandler *members.Handler,
	pointsHandler *points.Handler,
	rolesHandler *roles.Handler,
	adminHandler *admin.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:           api,
		cfg:           cfg,
		chatFilter:    chatFilter,
		rateLimiter:   middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		memberHandler: memberHandler,
		pointsHandler: pointsHandler,
		rolesHandler:  rolesHandler,
		adminHandler:  adminHandler,
		memberService: memberService,
		parser:        NewCommandParser(),
		inflight:      make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)
	defer b.rateLimiter.Close()

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	// Нажатия на кнопки выбора роли
	if update.CallbackQuery != nil {
		if b.cfg.FeatureRolesEnabled {
			b.rolesHandler.HandleCallback(ctx, update.CallbackQuery)
		}
		return
	}

	// Обрабатываем новых участников (событие вступления)
	if update.Message != nil && update.Message.NewChatMembers != nil {
		if update.Message.Chat != nil && update.Message.Chat.ID == b.cfg.MainChatID {
			b.memberHandler.HandleNewChatMembers(ctx, update.Message.NewChatMembers)
		}
		return
	}

	if update.Message == nil {
		return
	}

	message := update.Message

	// Текст команды может быть и подписью к документу (!импорт)
	text := message.Text
	if text == "" {
		text = message.Caption
	}
	if text == "" {
		return
	}

	// Логируем входящее
	middleware.LogMessage(message)

	// Проверяем доступ (MAIN_CHAT_ID или DM участника)
	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	// Rate limiting
	if message.From != nil && !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	// EnsureMember — ошибки нельзя игнорировать, иначе потом будет "оно не работает"
	if err := b.memberService.EnsureMember(ctx, userID,
		message.From.UserName, message.From.FirstName, message.From.LastName,
	); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsureMember failed")
	}

	// Парсим команду
	cmd, args, isCommand := b.parser.ParseCommand(text)
	if !isCommand {
		return
	}

	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("parsed command")

	b.routeCommand(ctx, chatID, userID, cmd, args, message)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string, message *tgbotapi.Message) {
	switch cmd {
	case "start", "help", "помощь":
		b.sendMessage(chatID, helpText)

	case "login":
		// пароль — только в личке
		if message.Chat.IsPrivate() {
			b.adminHandler.HandleLogin(ctx, chatID, userID, args)
		} else {
			b.sendMessage(chatID, "🔒 Вход только в личных сообщениях боту")
		}

	case "logout":
		b.adminHandler.HandleLogout(ctx, chatID, userID)

	case "очки":
		b.pointsHandler.HandleGet(ctx, chatID, userID, args)

	case "топ":
		b.pointsHandler.HandleTop(ctx, chatID, args)

	case "начислить":
		b.pointsHandler.HandleAdd(ctx, chatID, userID, args)

	case "обнулить":
		b.pointsHandler.HandleClean(ctx, chatID, userID, args)

	case "импорт":
		b.pointsHandler.HandleImport(ctx, chatID, userID, message)

	case "роли":
		if b.cfg.FeatureRolesEnabled {
			b.rolesHandler.HandlePost(ctx, chatID, userID)
		} else {
			b.sendMessage(chatID, "🏷 Выбор ролей временно отключён")
		}

	case "обновитьроли":
		if b.cfg.FeatureRolesEnabled {
			b.rolesHandler.HandleRefresh(ctx, chatID, userID)
		}

	case "добавитьроль":
		if b.cfg.FeatureRolesEnabled {
			b.rolesHandler.HandleAddOption(ctx, chatID, userID, args)
		}

	case "удалитьроль":
		if b.cfg.FeatureRolesEnabled {
			b.rolesHandler.HandleDeleteOption(ctx, chatID, userID, args)
		}
	}
}

const helpText = "Команды:\n" +
	"!очки [@ник] — баланс и последние начисления\n" +
	"!топ [страница] — таблица лидеров\n" +
	"!роли — выбор роли\n" +
	"Админ: !начислить @ник N причина, !обнулить @ник, !импорт (CSV-файл), " +
	"!обновитьроли, !добавитьроль, !удалитьроль, /login <пароль> (в личке), /logout"

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessage отправляет сообщение в произвольный чат (для планировщика).
func (b *Bot) SendMessage(chatID int64, text string) {
	b.sendMessage(chatID, text)
}
