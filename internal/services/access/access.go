// Package access определяет, есть ли у пользователя активная подписка
// и входит ли он в список администраторов.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
	"github.com/CromwellTrading/PelisBot/internal/models"
)

// UserRepository: чтение пользователей из хранилища.
type UserRepository interface {
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error)
}

// AdminList: статический список администраторов из конфигурации.
type AdminList interface {
	IsAdmin(id int64) bool
}

// Status: результат проверки доступа пользователя.
type Status struct {
	Exists  bool
	Active  bool
	Plan    models.Plan
	Expiry  *time.Time
	IsAdmin bool
}

// Service вычисляет статус доступа.
type Service struct {
	repo   UserRepository
	admins AdminList
	log    *slog.Logger
	now    func() time.Time
}

// New создаёт сервис доступа.
func New(repo UserRepository, admins AdminList, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		admins: admins,
		log:    log,
		now:    time.Now,
	}
}

// Status возвращает статус пользователя. Отсутствие пользователя ошибкой не является;
// прочие ошибки хранилища возвращаются как models.ErrStorage.
func (s *Service) Status(ctx context.Context, userID int64) (Status, error) {
	const op = "services.access.Status"

	st := Status{IsAdmin: s.admins.IsAdmin(userID)}
	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return st, nil
	}
	if err != nil {
		s.log.Error("failed to read user", slog.String("op", op), slog.Int64("telegram_id", userID), sl.Err(err))
		return st, fmt.Errorf("%s: %w: %w", op, models.ErrStorage, err)
	}

	st.Exists = true
	st.Plan = user.Plan
	st.Expiry = user.SubscriptionExpire
	st.Active = user.IsActive(s.now())
	return st, nil
}

// IsAdmin сообщает, является ли пользователь администратором.
func (s *Service) IsAdmin(userID int64) bool {
	return s.admins.IsAdmin(userID)
}

// RequireAdmin возвращает models.ErrUnauthorized, если пользователь не администратор.
func (s *Service) RequireAdmin(userID int64) error {
	if !s.admins.IsAdmin(userID) {
		return fmt.Errorf("services.access.RequireAdmin: %w", models.ErrUnauthorized)
	}
	return nil
}

// RequireActive возвращает пользователя с активной подпиской
// или models.ErrForbidden.
func (s *Service) RequireActive(ctx context.Context, userID int64) (*models.User, error) {
	const op = "services.access.RequireActive"

	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrStorage, err)
	}
	if !user.IsActive(s.now()) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	return user, nil
}

// Users возвращает страницу пользователей для администратора.
func (s *Service) Users(ctx context.Context, adminID int64, page int) (*models.UserPage, error) {
	const op = "services.access.Users"
	if err := s.RequireAdmin(adminID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page, offset := models.NormalizePage(page)
	users, total, err := s.repo.ListUsers(ctx, models.PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrStorage, err)
	}
	now := s.now()
	for _, u := range users {
		u.Active = u.IsActive(now)
	}
	return &models.UserPage{Items: users, Total: total, Page: page}, nil
}
