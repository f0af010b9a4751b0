// Package admin — service.go содержит логику аутентификации и проверки прав.
// Изменяющие команды реестра (!начислить, !обнулить, !импорт) и управление
// ролями требуют: флаг администратора плюс живая сессия после /login.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"github.com/mordvinkin/points-bot/internal/common"
	"github.com/mordvinkin/points-bot/internal/config"
	"github.com/mordvinkin/points-bot/internal/features/members"
)

// Продолжительность сессии и параметры анти-brute-force
const (
	sessionTTL     = 24 * time.Hour
	maxAttempts    = 3
	attemptsWindow = 1 * time.Hour
)

// Service управляет аутентификацией администраторов.
type Service struct {
	repo       *Repository
	memberRepo *members.Repository
	cfg        *config.Config
}

// NewService создаёт сервис админки.
func NewService(repo *Repository, memberRepo *members.Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, memberRepo: memberRepo, cfg: cfg}
}

// Login проверяет пароль администратора и открывает сессию на 24 часа.
// Защита от brute-force: 3 неудачные попытки за час — блокировка.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	if !s.isAdmin(ctx, userID) {
		return common.ErrNotAdmin
	}

	// Проверяем лимит попыток
	attempts, err := s.repo.GetRecentFailedAttempts(ctx, userID, attemptsWindow)
	if err != nil {
		return err
	}
	if attempts >= maxAttempts {
		return common.ErrTooManyAttempts
	}

	// Проверяем пароль
	match := verifyArgon2id(password, s.cfg.AdminPasswordHash)

	// Логируем попытку
	if err := s.repo.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).Warn("Не удалось записать попытку входа")
	}

	if !match {
		return common.ErrWrongPassword
	}

	session := &Session{
		UserID:       userID,
		SessionToken: generateSecureToken(),
		ExpiresAt:    time.Now().Add(sessionTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Администратор вошёл в систему")
	return nil
}

// Logout деактивирует все сессии пользователя.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.repo.DeactivateSessions(ctx, userID)
}

// Authorized проверяет право выполнять административные команды.
// Возвращает nil, common.ErrNotAdmin или common.ErrNoSession.
func (s *Service) Authorized(ctx context.Context, userID int64) error {
	if !s.isAdmin(ctx, userID) {
		return common.ErrNotAdmin
	}

	active, err := s.repo.HasActiveSession(ctx, userID)
	if err != nil {
		return err
	}
	if !active {
		return common.ErrNoSession
	}
	return nil
}

// CleanupExpired деактивирует просроченные сессии (вызывается по cron).
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeactivateExpired(ctx)
}

// isAdmin: администратор — это участник с флагом is_admin
// либо пользователь из ADMIN_IDS (bootstrap до первой записи в БД).
func (s *Service) isAdmin(ctx context.Context, userID int64) bool {
	if s.cfg.IsAdminID(userID) {
		return true
	}
	member, err := s.memberRepo.GetByUserID(ctx, userID)
	return err == nil && member.IsAdmin
}

// --- Криптографические утилиты ---

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	// Парсим хеш
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	// Извлекаем параметры
	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	// Декодируем соль
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}

	// Декодируем хеш
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	// Вычисляем хеш введённого пароля
	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравниваем в постоянном времени (защита от timing attack)
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}

// generateSecureToken генерирует криптографически безопасный токен сессии.
func generateSecureToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}
