// Package suggestion принимает пожелания подписчиков и отдаёт их администраторам.
package suggestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/CromwellTrading/PelisBot/internal/models"
)

// MaxTextLength: максимальная длина текста предложения в символах.
const MaxTextLength = 500

// Repository: хранилище предложений.
type Repository interface {
	CreateSuggestion(ctx context.Context, telegramID int64, text string) (int64, error)
	ListSuggestions(ctx context.Context, status models.SuggestionStatus) ([]*models.Suggestion, error)
	UpdateSuggestionStatus(ctx context.Context, id int64, status models.SuggestionStatus) error
}

// Access проверяет подписку и роль вызывающего.
type Access interface {
	RequireActive(ctx context.Context, userID int64) (*models.User, error)
	RequireAdmin(userID int64) error
}

// Service: операции над предложениями.
type Service struct {
	repo    Repository
	access  Access
	enabled bool
	log     *slog.Logger
}

// New создаёт сервис. При enabled = false все операции возвращают models.ErrFeatureDisabled.
func New(repo Repository, access Access, enabled bool, log *slog.Logger) *Service {
	return &Service{repo: repo, access: access, enabled: enabled, log: log}
}

// Enabled сообщает, включена ли функция.
func (s *Service) Enabled() bool {
	return s.enabled
}

// Create сохраняет предложение подписчика в статусе pending.
func (s *Service) Create(ctx context.Context, userID int64, text string) (int64, error) {
	const op = "services.suggestion.Create"
	if !s.enabled {
		return 0, fmt.Errorf("%s: %w", op, models.ErrFeatureDisabled)
	}
	if _, err := s.access.RequireActive(ctx, userID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%s: %w: text is required", op, models.ErrValidation)
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return 0, fmt.Errorf("%s: %w: text is too long", op, models.ErrValidation)
	}

	id, err := s.repo.CreateSuggestion(ctx, userID, text)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", op, models.ErrPersistence, err)
	}
	s.log.Info("suggestion created", slog.Int64("id", id), slog.Int64("telegram_id", userID))
	return id, nil
}

// List возвращает предложения, при пустом status: все.
func (s *Service) List(ctx context.Context, adminID int64, status models.SuggestionStatus) ([]*models.Suggestion, error) {
	const op = "services.suggestion.List"
	if !s.enabled {
		return nil, fmt.Errorf("%s: %w", op, models.ErrFeatureDisabled)
	}
	if err := s.access.RequireAdmin(adminID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%s: %w: invalid status %q", op, models.ErrValidation, status)
	}

	list, err := s.repo.ListSuggestions(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrStorage, err)
	}
	return list, nil
}

// UpdateStatus меняет статус предложения.
func (s *Service) UpdateStatus(ctx context.Context, adminID, id int64, status models.SuggestionStatus) error {
	const op = "services.suggestion.UpdateStatus"
	if !s.enabled {
		return fmt.Errorf("%s: %w", op, models.ErrFeatureDisabled)
	}
	if err := s.access.RequireAdmin(adminID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !status.Valid() {
		return fmt.Errorf("%s: %w: invalid status %q", op, models.ErrValidation, status)
	}

	if err := s.repo.UpdateSuggestionStatus(ctx, id, status); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: %w: %w", op, models.ErrPersistence, err)
	}
	return nil
}
