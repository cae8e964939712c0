// Package commission отдаёт статистику панели и управляет сбором комиссии.
package commission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/CromwellTrading/PelisBot/internal/models"
)

// Repository: источники данных для статистики и журнала.
type Repository interface {
	CountUsers(ctx context.Context, now time.Time) (int, int, error)
	CountPendingRequests(ctx context.Context) (int, error)
	GetOpenLedger(ctx context.Context, adminID int64) (*models.CommissionLedger, error)
	CollectLedger(ctx context.Context, adminID int64, at time.Time) (*models.CommissionLedger, error)
}

// AdminChecker проверяет права администратора.
type AdminChecker interface {
	RequireAdmin(userID int64) error
}

// Service: статистика и журнал комиссий.
type Service struct {
	repo        Repository
	access      AdminChecker
	ledgerAdmin int64
	enabled     bool
	log         *slog.Logger
	now         func() time.Time
}

// New создаёт сервис. ledgerAdmin: владелец журнала, в который
// начисляются одобренные платежи.
func New(repo Repository, access AdminChecker, ledgerAdmin int64, enabled bool, log *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		access:      access,
		ledgerAdmin: ledgerAdmin,
		enabled:     enabled,
		log:         log,
		now:         time.Now,
	}
}

// Stats возвращает число пользователей, активных подписок, ожидающих заявок
// и текущую открытую запись журнала (если комиссия включена и запись есть).
func (s *Service) Stats(ctx context.Context, adminID int64) (*models.Stats, error) {
	const op = "services.commission.Stats"
	if err := s.access.RequireAdmin(adminID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	total, active, err := s.repo.CountUsers(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrStorage, err)
	}
	pending, err := s.repo.CountPendingRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrStorage, err)
	}

	stats := &models.Stats{TotalUsers: total, ActiveUsers: active, PendingRequests: pending}
	if !s.enabled {
		return stats, nil
	}
	ledger, err := s.repo.GetOpenLedger(ctx, s.ledgerAdmin)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrStorage, err)
	default:
		stats.Ledger = ledger
	}
	return stats, nil
}

// Collect закрывает открытую запись журнала. Следующее одобрение
// откроет новую запись даже в том же месяце.
func (s *Service) Collect(ctx context.Context, adminID int64) (*models.CommissionLedger, error) {
	const op = "services.commission.Collect"
	if !s.enabled {
		return nil, fmt.Errorf("%s: %w", op, models.ErrFeatureDisabled)
	}
	if err := s.access.RequireAdmin(adminID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ledger, err := s.repo.CollectLedger(ctx, s.ledgerAdmin, s.now())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrPersistence, err)
	}
	s.log.Info("commission collected",
		slog.Int64("ledger_id", ledger.ID),
		slog.Int64("admin_id", adminID),
		slog.Int("total", ledger.Total()),
	)
	return ledger, nil
}
