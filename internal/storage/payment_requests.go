package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/CromwellTrading/PelisBot/internal/lib/month"
	"github.com/CromwellTrading/PelisBot/internal/models"
)

const requestColumns = `id, telegram_id, plan_solicitado, metodo_pago, captura_url, estado,
	motivo_rechazo, revisado_por, fecha_revision, created_at`

func scanRequest(row scanner) (*models.PaymentRequest, error) {
	var r models.PaymentRequest
	var reason sql.NullString
	var reviewedBy sql.NullInt64
	var reviewedAt sql.NullTime
	if err := row.Scan(&r.ID, &r.TelegramID, &r.Plan, &r.Method, &r.ProofURL, &r.Status,
		&reason, &reviewedBy, &reviewedAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	if reason.Valid {
		r.RejectionReason = &reason.String
	}
	if reviewedBy.Valid {
		r.ReviewedBy = &reviewedBy.Int64
	}
	if reviewedAt.Valid {
		r.ReviewedAt = &reviewedAt.Time
	}
	return &r, nil
}

// CreatePaymentRequest сохраняет новую заявку в статусе pending и возвращает её ID.
func (s *Storage) CreatePaymentRequest(ctx context.Context, req models.PaymentRequest) (int64, error) {
	const op = "storage.CreatePaymentRequest"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payment_requests (telegram_id, plan_solicitado, metodo_pago, captura_url, estado)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var id int64
	if err := s.DB.QueryRowContext(ctx, query,
		req.TelegramID, req.Plan, req.Method, req.ProofURL, models.StatusPending).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetPaymentRequest возвращает заявку по ID.
func (s *Storage) GetPaymentRequest(ctx context.Context, id int64) (*models.PaymentRequest, error) {
	const op = "storage.GetPaymentRequest"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + requestColumns + ` FROM payment_requests WHERE id = $1`
	r, err := scanRequest(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return r, nil
}

// ListPendingRequests возвращает ожидающие заявки, старые первыми.
func (s *Storage) ListPendingRequests(ctx context.Context) ([]*models.PaymentRequest, error) {
	const op = "storage.ListPendingRequests"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + requestColumns + `
			  FROM payment_requests
			  WHERE estado = $1
			  ORDER BY created_at, id`
	rows, err := s.DB.QueryContext(ctx, query, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.PaymentRequest, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountPendingRequests возвращает число ожидающих заявок.
func (s *Storage) CountPendingRequests(ctx context.Context) (int, error) {
	const op = "storage.CountPendingRequests"
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM payment_requests WHERE estado = $1`,
		models.StatusPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// ApproveRequest в одной транзакции переводит заявку из pending в approved,
// выставляет пользователю тариф и срок подписки и начисляет сумму в журнал комиссий.
// Возвращает models.ErrNotFound для несуществующей заявки и
// models.ErrAlreadyHandled, если заявка уже рассмотрена.
func (s *Storage) ApproveRequest(ctx context.Context, p models.ApproveParams) (*models.PaymentRequest, error) {
	const op = "storage.ApproveRequest"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE payment_requests
			  SET estado = $2, metodo_pago = $3, revisado_por = $4, fecha_revision = $5
			  WHERE id = $1 AND estado = $6
			  RETURNING ` + requestColumns
	req, err := scanRequest(tx.QueryRowContext(ctx, query,
		p.RequestID, models.StatusApproved, p.Method, p.AdminID, p.ApprovedAt, models.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.transitionError(ctx, tx, p.RequestID, err))
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (telegram_id, plan, fecha_inicio, fecha_expiracion)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO UPDATE
		SET plan = EXCLUDED.plan,
		    fecha_inicio = EXCLUDED.fecha_inicio,
		    fecha_expiracion = EXCLUDED.fecha_expiracion`,
		req.TelegramID, req.Plan, p.ApprovedAt, p.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("%s: upsert user: %w", op, err)
	}

	if p.Amount > 0 {
		if err = addToLedger(ctx, tx, p.LedgerAdmin, month.Start(p.ApprovedAt), p.Method, p.Amount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return req, nil
}

// RejectRequest переводит заявку из pending в rejected с указанной причиной.
func (s *Storage) RejectRequest(ctx context.Context, requestID, adminID int64, reason string, at time.Time) (*models.PaymentRequest, error) {
	const op = "storage.RejectRequest"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE payment_requests
			  SET estado = $2, motivo_rechazo = $3, revisado_por = $4, fecha_revision = $5
			  WHERE id = $1 AND estado = $6
			  RETURNING ` + requestColumns
	req, err := scanRequest(tx.QueryRowContext(ctx, query,
		requestID, models.StatusRejected, reason, adminID, at, models.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, s.transitionError(ctx, tx, requestID, err))
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return req, nil
}

// transitionError различает отсутствующую и уже рассмотренную заявку,
// когда условное обновление не затронуло ни одной строки.
func (s *Storage) transitionError(ctx context.Context, tx *sql.Tx, requestID int64, err error) error {
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	var status models.RequestStatus
	lookupErr := tx.QueryRowContext(ctx, `SELECT estado FROM payment_requests WHERE id = $1`, requestID).Scan(&status)
	switch {
	case errors.Is(lookupErr, sql.ErrNoRows):
		return models.ErrNotFound
	case lookupErr != nil:
		return lookupErr
	default:
		return models.ErrAlreadyHandled
	}
}
