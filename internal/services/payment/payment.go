// Package payment принимает заявки на оплату: проверяет данные,
// загружает скриншот в объектное хранилище и сохраняет заявку.
package payment

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/CromwellTrading/PelisBot/internal/lib/metrics"
	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
	"github.com/CromwellTrading/PelisBot/internal/models"
)

// Uploader сохраняет файл и возвращает его публичный URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// RequestRepository сохраняет и читает заявки.
type RequestRepository interface {
	CreatePaymentRequest(ctx context.Context, req models.PaymentRequest) (int64, error)
	ListPendingRequests(ctx context.Context) ([]*models.PaymentRequest, error)
}

// Notifier доставляет текстовое сообщение в чат.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// AdminChecker проверяет права администратора.
type AdminChecker interface {
	RequireAdmin(userID int64) error
}

// SubmitRequest: данные новой заявки.
type SubmitRequest struct {
	UserID int64
	Plan   models.Plan
	Method models.Method
	Image  []byte
	// From: подпись отправителя для уведомления администраторов.
	From string
}

// Service реализует приём заявок.
type Service struct {
	repo     RequestRepository
	uploader Uploader
	notifier Notifier
	access   AdminChecker
	admins   []int64
	panelURL string
	log      *slog.Logger
}

// New создаёт сервис приёма заявок. admins получают оповещение о каждой новой заявке.
func New(repo RequestRepository, uploader Uploader, notifier Notifier, access AdminChecker,
	admins []int64, panelURL string, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		uploader: uploader,
		notifier: notifier,
		access:   access,
		admins:   admins,
		panelURL: panelURL,
		log:      log,
	}
}

// Submit проверяет заявку, загружает изображение и сохраняет заявку в статусе pending.
// При ошибке проверки ничего не записывается. Изображение, загруженное перед
// неудачной вставкой строки, остаётся в хранилище.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (int64, error) {
	const op = "services.payment.Submit"

	contentType, err := validate(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	key := fmt.Sprintf("%d_%s_%s.jpg", req.UserID, req.Plan, uuid.NewString())
	url, err := s.uploader.Upload(ctx, key, contentType, req.Image)
	if err != nil {
		s.log.Error("failed to upload proof", slog.String("op", op), slog.String("key", key), sl.Err(err))
		return 0, fmt.Errorf("%s: %w: %w", op, models.ErrStorage, err)
	}

	id, err := s.repo.CreatePaymentRequest(ctx, models.PaymentRequest{
		TelegramID: req.UserID,
		Plan:       req.Plan,
		Method:     req.Method,
		ProofURL:   url,
		Status:     models.StatusPending,
	})
	if err != nil {
		s.log.Error("failed to save payment request", slog.String("op", op), slog.String("url", url), sl.Err(err))
		return 0, fmt.Errorf("%s: %w: %w", op, models.ErrPersistence, err)
	}

	metrics.PaymentsSubmitted.WithLabelValues(string(req.Plan), string(req.Method)).Inc()
	s.log.Info("payment request created",
		slog.Int64("id", id),
		slog.Int64("telegram_id", req.UserID),
		slog.String("plan", string(req.Plan)),
		slog.String("method", string(req.Method)),
	)

	s.alertAdmins(ctx, req, id)
	return id, nil
}

func validate(req SubmitRequest) (string, error) {
	if req.UserID == 0 {
		return "", fmt.Errorf("%w: telegram_id is required", models.ErrValidation)
	}
	if !req.Plan.Valid() {
		return "", fmt.Errorf("%w: invalid plan %q", models.ErrValidation, req.Plan)
	}
	if !req.Method.Valid() {
		return "", fmt.Errorf("%w: invalid method %q", models.ErrValidation, req.Method)
	}
	if len(req.Image) == 0 {
		return "", fmt.Errorf("%w: image is required", models.ErrValidation)
	}
	mt := mimetype.Detect(req.Image)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: unsupported image type %s", models.ErrValidation, mt.String())
	}
	return mt.String(), nil
}

func (s *Service) alertAdmins(ctx context.Context, req SubmitRequest, id int64) {
	from := req.From
	if from == "" {
		from = fmt.Sprintf("%d", req.UserID)
	}
	text := fmt.Sprintf("📩 Nueva solicitud de pago #%d de %s\nPlan: %s\nMétodo: %s\nID: %d\nRevisa en la webapp: %s",
		id, from, req.Plan, req.Method, req.UserID, s.panelURL)

	for _, adminID := range s.admins {
		if err := s.notifier.Notify(ctx, adminID, text); err != nil {
			s.log.Warn("failed to alert admin", slog.Int64("admin_id", adminID), sl.Err(err))
		}
	}
}

// Pending возвращает ожидающие заявки (только для администратора), старые первыми.
func (s *Service) Pending(ctx context.Context, adminID int64) ([]*models.PaymentRequest, error) {
	const op = "services.payment.Pending"
	if err := s.access.RequireAdmin(adminID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	reqs, err := s.repo.ListPendingRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrStorage, err)
	}
	return reqs, nil
}

// DecodeDataURL разбирает изображение в формате data:image/...;base64,...
// Строка без префикса считается чистым base64.
func DecodeDataURL(s string) ([]byte, error) {
	const op = "services.payment.DecodeDataURL"
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%s: %w: empty image", op, models.ErrValidation)
	}

	payload := s
	if strings.HasPrefix(s, "data:") {
		header, data, ok := strings.Cut(s, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, fmt.Errorf("%s: %w: malformed data url", op, models.ErrValidation)
		}
		if !strings.HasPrefix(header, "data:image/") {
			return nil, fmt.Errorf("%s: %w: not an image", op, models.ErrValidation)
		}
		payload = data
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrValidation, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: %w: empty image", op, models.ErrValidation)
	}
	return raw, nil
}
