// Package approval реализует рассмотрение заявок администратором:
// переход pending -> approved или pending -> rejected.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/CromwellTrading/PelisBot/internal/lib/metrics"
	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
	"github.com/CromwellTrading/PelisBot/internal/models"
)

// Repository выполняет условные переходы заявки в хранилище.
type Repository interface {
	GetPaymentRequest(ctx context.Context, id int64) (*models.PaymentRequest, error)
	ApproveRequest(ctx context.Context, p models.ApproveParams) (*models.PaymentRequest, error)
	RejectRequest(ctx context.Context, requestID, adminID int64, reason string, at time.Time) (*models.PaymentRequest, error)
}

// AdminChecker проверяет права администратора.
type AdminChecker interface {
	RequireAdmin(userID int64) error
}

// Pricer возвращает каноническую цену плана для способа оплаты.
type Pricer interface {
	Price(plan models.Plan, method models.Method) int
}

// Notifier доставляет текстовое сообщение в чат.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Options: настраиваемое поведение сервиса.
type Options struct {
	CommissionEnabled bool
	LedgerAdminID     int64
}

// Service рассматривает заявки.
type Service struct {
	repo     Repository
	access   AdminChecker
	pricer   Pricer
	notifier Notifier
	opts     Options
	log      *slog.Logger
	now      func() time.Time
}

// New создаёт сервис рассмотрения заявок.
func New(repo Repository, access AdminChecker, pricer Pricer, notifier Notifier, opts Options, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		access:   access,
		pricer:   pricer,
		notifier: notifier,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// Approve одобряет заявку: выставляет пользователю тариф заявки и срок
// now + 30 дней (без суммирования с остатком), начисляет комиссию
// и уведомляет пользователя. methodOverride позволяет администратору
// указать способ оплаты для заявки с неизвестным способом.
func (s *Service) Approve(ctx context.Context, adminID, requestID int64, methodOverride models.Method) (*models.PaymentRequest, error) {
	const op = "services.approval.Approve"

	if err := s.access.RequireAdmin(adminID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if methodOverride != "" && methodOverride != models.MethodBankTransfer && methodOverride != models.MethodMobileBalance {
		return nil, fmt.Errorf("%s: %w: invalid method %q", op, models.ErrValidation, methodOverride)
	}

	req, err := s.repo.GetPaymentRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storageErr(err))
	}
	if req.Status != models.StatusPending {
		return nil, fmt.Errorf("%s: %w", op, models.ErrAlreadyHandled)
	}

	method := req.Method
	if methodOverride != "" {
		method = methodOverride
	}

	now := s.now()
	params := models.ApproveParams{
		RequestID:   requestID,
		AdminID:     adminID,
		Method:      method,
		ApprovedAt:  now,
		ExpiresAt:   now.Add(models.SubscriptionPeriod),
		LedgerAdmin: s.opts.LedgerAdminID,
	}
	if s.opts.CommissionEnabled {
		params.Amount = s.pricer.Price(req.Plan, method)
	}

	approved, err := s.repo.ApproveRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storageErr(err))
	}

	metrics.Reviews.WithLabelValues("approved").Inc()
	s.log.Info("payment request approved",
		slog.Int64("id", requestID),
		slog.Int64("admin_id", adminID),
		slog.Int64("telegram_id", approved.TelegramID),
		slog.String("plan", string(approved.Plan)),
		slog.Int("amount", params.Amount),
	)

	text := fmt.Sprintf("✅ ¡Tu pago ha sido aprobado!\n\nPlan: %s\nTu suscripción vence el %s.\nUsa /start para buscar películas.",
		planTitle(approved.Plan), params.ExpiresAt.Format("02/01/2006"))
	s.notify(ctx, approved.TelegramID, text)

	return approved, nil
}

// Reject отклоняет заявку с обязательной причиной и уведомляет пользователя.
// Подписка пользователя не меняется.
func (s *Service) Reject(ctx context.Context, adminID, requestID int64, reason string) (*models.PaymentRequest, error) {
	const op = "services.approval.Reject"

	if err := s.access.RequireAdmin(adminID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%s: %w: reason is required", op, models.ErrValidation)
	}

	rejected, err := s.repo.RejectRequest(ctx, requestID, adminID, reason, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storageErr(err))
	}

	metrics.Reviews.WithLabelValues("rejected").Inc()
	s.log.Info("payment request rejected",
		slog.Int64("id", requestID),
		slog.Int64("admin_id", adminID),
		slog.Int64("telegram_id", rejected.TelegramID),
	)

	s.notify(ctx, rejected.TelegramID, fmt.Sprintf("❌ Tu solicitud de pago fue rechazada.\n\nMotivo: %s\n\nPuedes enviar una nueva captura con /start.", reason))
	return rejected, nil
}

func (s *Service) notify(ctx context.Context, chatID int64, text string) {
	if err := s.notifier.Notify(ctx, chatID, text); err != nil {
		s.log.Warn("failed to notify user", slog.Int64("telegram_id", chatID), sl.Err(err))
	}
}

// storageErr оставляет доменные ошибки как есть, прочие помечает как ошибку хранилища.
func storageErr(err error) error {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrAlreadyHandled) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrStorage, err)
}

func planTitle(p models.Plan) string {
	switch p {
	case models.PlanPremium:
		return "Premium"
	case models.PlanClassic:
		return "Clásico"
	default:
		return string(p)
	}
}
