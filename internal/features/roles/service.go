// Package roles — service.go содержит бизнес-логику выбора ролей.
package roles

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/mordvinkin/points-bot/internal/features/members"
)

// Service управляет вариантами ролей и их назначением.
type Service struct {
	repo          *Repository
	memberService *members.Service
}

// NewService создаёт сервис ролей.
func NewService(repo *Repository, memberService *members.Service) *Service {
	return &Service{repo: repo, memberService: memberService}
}

// Options возвращает все варианты ролей в порядке отображения.
func (s *Service) Options(ctx context.Context) ([]*Option, error) {
	return s.repo.ListOptions(ctx)
}

// AddOption добавляет вариант роли.
func (s *Service) AddOption(ctx context.Context, emoji, role, description string) (int64, error) {
	return s.repo.AddOption(ctx, emoji, role, description)
}

// DeleteOption убирает вариант роли. Уже назначенные роли не трогаем —
// участник сохраняет роль, пока сам не выберет другую.
func (s *Service) DeleteOption(ctx context.Context, id int64) (bool, error) {
	return s.repo.DeleteOption(ctx, id)
}

// Assign назначает участнику роль выбранного варианта.
// Возвращает название назначенной роли.
func (s *Service) Assign(ctx context.Context, userID, optionID int64) (string, error) {
	option, err := s.repo.GetOption(ctx, optionID)
	if err != nil {
		return "", err
	}

	if err := s.memberService.UpdateRole(ctx, userID, option.Role); err != nil {
		return "", fmt.Errorf("ошибка назначения роли: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"role":    option.Role,
	}).Info("Роль назначена")

	return option.Role, nil
}

// MessageText собирает текст сообщения выбора ролей из вариантов.
func MessageText(options []*Option) string {
	var sb strings.Builder
	sb.WriteString("🎭 Выбор ролей\n\nНажмите кнопку, чтобы выбрать роль:\n\n")

	if len(options) == 0 {
		sb.WriteString("Пока нет ни одного варианта")
		return sb.String()
	}

	for _, o := range options {
		if o.Description != "" {
			sb.WriteString(fmt.Sprintf("%s — %s: %s\n", o.Emoji, o.Role, o.Description))
		} else {
			sb.WriteString(fmt.Sprintf("%s — %s\n", o.Emoji, o.Role))
		}
	}
	return sb.String()
}
