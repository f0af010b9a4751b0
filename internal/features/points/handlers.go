// Package points — handlers.go обрабатывает команды:
// !очки (баланс и история), !топ (список по страницам),
// !начислить (начисление/списание), !обнулить (полное удаление),
// !импорт (массовый импорт из CSV-файла).
package points

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/mordvinkin/points-bot/internal/common"
	"github.com/mordvinkin/points-bot/internal/config"
	"github.com/mordvinkin/points-bot/internal/features/admin"
	"github.com/mordvinkin/points-bot/internal/features/members"
)

// Handler обрабатывает команды реестра очков.
type Handler struct {
	service       *Service
	importer      *Importer
	memberService *members.Service // Для разрешения @username и отображаемых имён
	adminService  *admin.Service   // Для проверки прав на изменяющие команды
	bot           *tgbotapi.BotAPI
	cfg           *config.Config
}

// NewHandler создаёт обработчик команд реестра.
func NewHandler(service *Service, importer *Importer, memberService *members.Service, adminService *admin.Service, bot *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{
		service:       service,
		importer:      importer,
		memberService: memberService,
		adminService:  adminService,
		bot:           bot,
		cfg:           cfg,
	}
}

// HandleGet обрабатывает команду !очки [@user].
// Без аргумента показывает очки спросившего. Для невиданного
// пользователя это честный ноль с пустой историей.
//
// Формат ответа:
//
//	⭐ Очки Васи: 7
//
//	Последние записи (2 из 2):
//	[+10] 02.01.2026 15:04 | Админ | за доклад
//	[-3] 03.01.2026 11:20 | Админ | поправка
func (h *Handler) HandleGet(ctx context.Context, chatID, userID int64, args []string) {
	target := userID
	if len(args) > 0 {
		resolved, err := h.memberService.Resolve(ctx, args[0])
		if err != nil {
			if errors.Is(err, common.ErrUserUnresolved) {
				h.sendMessage(chatID, "❌ Пользователь не найден")
			} else {
				log.WithError(err).Error("Ошибка разрешения пользователя")
				h.sendMessage(chatID, "❌ Ошибка чтения реестра")
			}
			return
		}
		target = resolved
	}

	rec, err := h.service.GetPoints(ctx, target)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения очков")
		h.sendMessage(chatID, "❌ Ошибка чтения реестра")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⭐ Очки %s: %s\n", h.displayName(ctx, target), common.FormatNumber(rec.Amount)))

	tail := rec.Tail(h.cfg.PointsHistoryTail)
	if len(tail) == 0 {
		sb.WriteString("\nИстория пуста")
	} else {
		sb.WriteString(fmt.Sprintf("\nПоследние записи (%d из %d):\n", len(tail), len(rec.History)))
		for _, e := range tail {
			sb.WriteString(fmt.Sprintf("[%s] %s | %s | %s\n",
				common.FormatDelta(e.Delta),
				common.FormatDateTime(e.CreatedAt),
				h.displayName(ctx, e.AssignerID),
				e.Reason,
			))
		}
	}

	h.sendMessage(chatID, sb.String())
}

// HandleTop обрабатывает команду !топ [страница] — список всех очков
// по страницам. Порядок страниц детерминирован (сортировка по user ID).
func (h *Handler) HandleTop(ctx context.Context, chatID int64, args []string) {
	page := 1
	if len(args) > 0 {
		if p, err := strconv.Atoi(args[0]); err == nil {
			page = p
		}
	}
	if page < 1 {
		page = 1
	}

	all, err := h.service.GetAllPoints(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения реестра")
		h.sendMessage(chatID, "❌ Ошибка чтения реестра")
		return
	}

	items, totalPages, total := Paginate(all, page, h.cfg.PointsPageSize)

	var sb strings.Builder
	sb.WriteString("🏆 Очки участников\n\n")
	if total == 0 {
		sb.WriteString("Реестр пуст\n")
	} else if len(items) == 0 {
		sb.WriteString("На этой странице пусто\n")
	} else {
		offset := (page - 1) * h.cfg.PointsPageSize
		for i, rec := range items {
			sb.WriteString(fmt.Sprintf("%d. %s — %s\n",
				offset+i+1, h.displayName(ctx, rec.UserID), common.FormatPoints(rec.Amount)))
		}
	}
	sb.WriteString(fmt.Sprintf("\nСтраница %d из %d (всего %d)", page, totalPages, total))

	h.sendMessage(chatID, sb.String())
}

// HandleAdd обрабатывает команду !начислить @user N причина.
// N может быть отрицательным (списание) или нулём (запись в аудит).
// Только для администраторов с активной сессией.
func (h *Handler) HandleAdd(ctx context.Context, chatID, actorID int64, args []string) {
	if !h.ensureAdmin(ctx, chatID, actorID) {
		return
	}

	if len(args) < 3 {
		h.sendMessage(chatID, "❌ Формат: !начислить @user число причина")
		return
	}

	target, err := h.memberService.Resolve(ctx, args[0])
	if err != nil {
		if errors.Is(err, common.ErrUserUnresolved) {
			h.sendMessage(chatID, "❌ Пользователь не найден")
		} else {
			log.WithError(err).Error("Ошибка разрешения пользователя")
			h.sendMessage(chatID, "❌ Ошибка чтения реестра")
		}
		return
	}

	delta, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ Количество очков должно быть целым числом")
		return
	}

	reason := strings.Join(args[2:], " ")
	rec, err := h.service.AddPoints(ctx, target, delta, reason, actorID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrEmptyReason):
			h.sendMessage(chatID, "❌ Укажите причину начисления")
		default:
			log.WithError(err).Error("Ошибка начисления очков")
			h.sendMessage(chatID, "❌ Ошибка записи в реестр")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ %s: %s (итого %s)",
		h.displayName(ctx, target), common.FormatDelta(delta), common.FormatPoints(rec.Amount)))
}

// HandleClean обрабатывает команду !обнулить @user — безвозвратно
// удаляет очки и всю историю пользователя. Повторное обнуление
// того же пользователя — тоже успех.
func (h *Handler) HandleClean(ctx context.Context, chatID, actorID int64, args []string) {
	if !h.ensureAdmin(ctx, chatID, actorID) {
		return
	}

	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: !обнулить @user")
		return
	}

	target, err := h.memberService.Resolve(ctx, args[0])
	if err != nil {
		if errors.Is(err, common.ErrUserUnresolved) {
			h.sendMessage(chatID, "❌ Пользователь не найден")
		} else {
			log.WithError(err).Error("Ошибка разрешения пользователя")
			h.sendMessage(chatID, "❌ Ошибка чтения реестра")
		}
		return
	}

	if err := h.service.RemoveAllPoints(ctx, target, actorID); err != nil {
		log.WithError(err).Error("Ошибка удаления очков")
		h.sendMessage(chatID, "❌ Ошибка записи в реестр")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("🧹 Очки %s обнулены, история удалена", h.displayName(ctx, target)))
}

// HandleImport обрабатывает импорт из CSV: документ с подписью !импорт
// (или !импорт в ответ на сообщение с документом).
// Формат файла: "пользователь,очки" на строку, пользователь — @username
// или числовой ID. Плохие строки не прерывают импорт, итог — в отчёте.
func (h *Handler) HandleImport(ctx context.Context, chatID, actorID int64, message *tgbotapi.Message) {
	if !h.ensureAdmin(ctx, chatID, actorID) {
		return
	}

	doc := message.Document
	if doc == nil && message.ReplyToMessage != nil {
		doc = message.ReplyToMessage.Document
	}
	if doc == nil {
		h.sendMessage(chatID, "❌ Приложите CSV-файл к команде !импорт")
		return
	}
	if int64(doc.FileSize) > h.cfg.ImportMaxFileBytes {
		h.sendMessage(chatID, "❌ Файл слишком большой")
		return
	}

	h.sendMessage(chatID, "⏳ Загружаю файл...")

	data, err := h.downloadDocument(ctx, doc)
	if err != nil {
		log.WithError(err).Error("Ошибка загрузки файла импорта")
		h.sendMessage(chatID, "❌ Не удалось загрузить файл")
		return
	}

	reason := fmt.Sprintf("Импорт из CSV (%s)", doc.FileName)
	summary, err := h.importer.Import(ctx, data, reason, actorID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTooManyRows):
			h.sendMessage(chatID, fmt.Sprintf("❌ Слишком много строк (максимум %d)", h.cfg.ImportMaxRows))
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Частично применённый батч: применённые строки уже в реестре
			h.sendMessage(chatID, fmt.Sprintf("⚠️ Импорт прерван: применено %d %s",
				summary.Applied, common.PluralizeRows(summary.Applied)))
		default:
			log.WithError(err).Error("Ошибка импорта")
			h.sendMessage(chatID, "❌ Ошибка импорта")
		}
		return
	}

	h.sendMessage(chatID, formatImportReport(summary))
}

// formatImportReport собирает отчёт об импорте.
// Отказы разрешения пользователя и отказы хранилища считаются отдельно:
// первые чинят правкой файла, вторые — повтором импорта.
func formatImportReport(s *Summary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📥 Импорт завершён: применено %d %s",
		s.Applied, common.PluralizeRows(s.Applied)))

	if s.Failed() == 0 {
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf(", отказов %d", s.Failed()))
	sb.WriteString(fmt.Sprintf("\n(не найдено: %d, формат: %d, хранилище: %d)\n",
		s.CountKind(FailureUnresolved), s.CountKind(FailureInvalid), s.CountKind(FailureStorage)))

	// Показываем первые отказы, чтобы не раздувать сообщение
	const maxShown = 5
	for i, f := range s.Failures {
		if i >= maxShown {
			sb.WriteString(fmt.Sprintf("... и ещё %d\n", s.Failed()-maxShown))
			break
		}
		sb.WriteString(fmt.Sprintf("строка %d (%s): %v\n", f.Line, f.Raw, f.Err))
	}
	return sb.String()
}

// downloadDocument скачивает документ через файловый API Telegram.
func (h *Handler) downloadDocument(ctx context.Context, doc *tgbotapi.Document) (string, error) {
	url, err := h.bot.GetFileDirectURL(doc.FileID)
	if err != nil {
		return "", fmt.Errorf("ошибка получения ссылки на файл: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("ошибка создания запроса: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ошибка скачивания файла: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("сервер вернул статус %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.cfg.ImportMaxFileBytes+1))
	if err != nil {
		return "", fmt.Errorf("ошибка чтения файла: %w", err)
	}
	if int64(len(body)) > h.cfg.ImportMaxFileBytes {
		return "", fmt.Errorf("файл больше %d байт", h.cfg.ImportMaxFileBytes)
	}
	return string(body), nil
}

// ensureAdmin проверяет права на изменяющие команды.
// При отказе сам отвечает пользователю и возвращает false.
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

// displayName возвращает отображаемое имя пользователя.
// Если участник не найден в базе — показываем числовой ID.
func (h *Handler) displayName(ctx context.Context, userID int64) string {
	m, err := h.memberService.GetByUserID(ctx, userID)
	if err != nil || m == nil {
		return fmt.Sprintf("id:%d", userID)
	}
	return m.DisplayName()
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
