// Package members — service.go содержит бизнес-логику управления участниками.
// Сервис координирует регистрацию участников, проверку членства
// и разрешение ссылок на пользователей для реестра очков.
package members

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"github.com/mordvinkin/points-bot/internal/common"
)

// Service управляет участниками чата.
// Связывает обработчики Telegram-событий с репозиторием БД.
type Service struct {
	repo *Repository // Репозиторий для работы с таблицей members
}

// NewService создаёт новый сервис участников.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// HandleNewMember обрабатывает вступление нового пользователя в чат.
// Если пользователь уже есть в базе (перезашёл) — обновляет его данные.
// Если пользователь новый — создаёт запись.
func (s *Service) HandleNewMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	// Проверяем, есть ли уже в базе
	existing, _ := s.repo.GetByUserID(ctx, userID)
	if existing != nil {
		// Пользователь уже зарегистрирован — обновляем данные
		log.WithField("user_id", userID).Info("Участник перезашёл в чат, обновляем данные")
		return s.repo.UpdateInfo(ctx, userID, UpdateInfo{
			Username:  username,
			FirstName: firstName,
			LastName:  lastName,
		})
	}

	// Создаём нового участника
	member := &Member{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		IsAdmin:   false,
	}

	if err := s.repo.Create(ctx, member); err != nil {
		return fmt.Errorf("ошибка регистрации нового участника: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": username,
	}).Info("Новый участник зарегистрирован")

	return nil
}

// IsMember проверяет, является ли пользователь участником чата.
// Используется для валидации доступа к DM.
func (s *Service) IsMember(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

// GetByUserID возвращает участника по его Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetByUsername возвращает участника по @username (без @).
func (s *Service) GetByUsername(ctx context.Context, username string) (*Member, error) {
	return s.repo.GetByUsername(ctx, username)
}

// UpdateRole назначает участнику роль (до 64 символов).
func (s *Service) UpdateRole(ctx context.Context, userID int64, role string) error {
	if len([]rune(role)) > 64 {
		return common.ErrRoleTooLong
	}
	return s.repo.UpdateRole(ctx, userID, role)
}

// EnsureMember гарантирует, что пользователь есть в базе.
// Если нет — создаёт запись. Используется при первом сообщении в чате.
func (s *Service) EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.HandleNewMember(ctx, userID, username, firstName, lastName)
}

// Resolve превращает ссылку на пользователя в Telegram user ID.
// Понимает "@username", "username" и числовой ID. Используется реестром
// очков: командами и импортом из CSV.
//
// Неизвестный пользователь — ошибка с common.ErrUserUnresolved,
// ошибки БД возвращаются как есть (отказ хранилища, а не ссылки).
func (s *Service) Resolve(ctx context.Context, ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, fmt.Errorf("%w: пустая ссылка", common.ErrUserUnresolved)
	}

	// Числовой ID принимаем, только если такой участник известен
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, fmt.Errorf("%w: id %d", common.ErrUserUnresolved, id)
		}
		return id, nil
	}

	m, err := s.repo.GetByUsername(ctx, strings.TrimPrefix(ref, "@"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", common.ErrUserUnresolved, ref)
		}
		return 0, err
	}
	return m.UserID, nil
}
