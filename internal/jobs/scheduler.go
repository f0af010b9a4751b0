// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежедневный дайджест топа
// и ежечасная чистка просроченных админ-сессий.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/mordvinkin/points-bot/internal/common"
	"github.com/mordvinkin/points-bot/internal/features/admin"
	"github.com/mordvinkin/points-bot/internal/features/members"
	"github.com/mordvinkin/points-bot/internal/features/points"
)

// digestSize — сколько позиций показываем в ежедневном дайджесте.
const digestSize = 10

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron          *cron.Cron
	pointsService *points.Service
	memberService *members.Service
	adminService  *admin.Service
	sendFunc      func(chatID int64, text string)
	mainChatID    int64
	digestEnabled bool
}

// NewScheduler создаёт планировщик задач с московским часовым поясом.
func NewScheduler(
	pointsService *points.Service,
	memberService *members.Service,
	adminService *admin.Service,
	sendFunc func(chatID int64, text string),
	mainChatID int64,
	digestEnabled bool,
) *Scheduler {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		log.WithError(err).Warn("Не удалось загрузить Europe/Moscow, используем UTC+3")
		loc = time.FixedZone("MSK", 3*60*60)
	}

	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:          c,
		pointsService: pointsService,
		memberService: memberService,
		adminService:  adminService,
		sendFunc:      sendFunc,
		mainChatID:    mainChatID,
		digestEnabled: digestEnabled,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Ежедневный дайджест в 20:00 по Москве
	if s.digestEnabled {
		s.cron.AddFunc("0 20 * * *", func() {
			log.Info("[CRON] Ежедневный дайджест очков")
			if err := s.sendDigest(ctx); err != nil {
				log.WithError(err).Error("[CRON] Ошибка дайджеста")
			}
		})
	}

	// Чистка просроченных админ-сессий каждый час
	s.cron.AddFunc("0 * * * *", func() {
		n, err := s.adminService.CleanupExpired(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка чистки сессий")
			return
		}
		if n > 0 {
			log.WithField("count", n).Info("[CRON] Деактивированы просроченные сессии")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (Europe/Moscow)")
}

// Stop останавливает планировщик и ждёт завершения задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// sendDigest собирает топ по очкам и отправляет в основной чат.
func (s *Scheduler) sendDigest(ctx context.Context) error {
	all, err := s.pointsService.GetAllPoints(ctx)
	if err != nil {
		return fmt.Errorf("дайджест: %w", err)
	}
	if len(all) == 0 {
		return nil
	}

	records := make([]*points.Record, 0, len(all))
	for _, rec := range all {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Amount != records[j].Amount {
			return records[i].Amount > records[j].Amount
		}
		return records[i].UserID < records[j].UserID
	})
	if len(records) > digestSize {
		records = records[:digestSize]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏆 Топ по очкам на %s:\n", common.MoscowTime().Format("02.01.2006")))
	for i, rec := range records {
		name := fmt.Sprintf("id:%d", rec.UserID)
		if m, err := s.memberService.GetByUserID(ctx, rec.UserID); err == nil && m != nil {
			name = m.DisplayName()
		}
		sb.WriteString(fmt.Sprintf("%d. %s — %s\n", i+1, name, common.FormatPoints(rec.Amount)))
	}

	s.sendFunc(s.mainChatID, sb.String())
	return nil
}
