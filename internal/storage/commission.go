package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/CromwellTrading/PelisBot/internal/models"
)

const ledgerColumns = `id, admin_id, mes, total_transferencia, total_saldo, total_desconocido,
	recogida, fecha_recogida`

func scanLedger(row scanner) (*models.CommissionLedger, error) {
	var l models.CommissionLedger
	var collectedAt sql.NullTime
	if err := row.Scan(&l.ID, &l.AdminID, &l.Month, &l.BankTransferTotal, &l.MobileBalanceTotal,
		&l.UnknownTotal, &l.Collected, &collectedAt); err != nil {
		return nil, err
	}
	if collectedAt.Valid {
		l.CollectedAt = &collectedAt.Time
	}
	return &l, nil
}

func ledgerColumn(method models.Method) string {
	switch method {
	case models.MethodBankTransfer:
		return "total_transferencia"
	case models.MethodMobileBalance:
		return "total_saldo"
	default:
		return "total_desconocido"
	}
}

// addToLedger прибавляет amount к открытой записи журнала за месяц,
// создавая её при отсутствии.
func addToLedger(ctx context.Context, tx *sql.Tx, adminID int64, month time.Time, method models.Method, amount int) error {
	const op = "storage.addToLedger"
	col := ledgerColumn(method)
	query := `INSERT INTO commission_ledgers (admin_id, mes, ` + col + `)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (admin_id, mes) WHERE NOT recogida
			  DO UPDATE SET ` + col + ` = commission_ledgers.` + col + ` + EXCLUDED.` + col
	if _, err := tx.ExecContext(ctx, query, adminID, month, amount); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetOpenLedger возвращает самую свежую несобранную запись журнала администратора.
func (s *Storage) GetOpenLedger(ctx context.Context, adminID int64) (*models.CommissionLedger, error) {
	const op = "storage.GetOpenLedger"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + ledgerColumns + `
			  FROM commission_ledgers
			  WHERE admin_id = $1 AND NOT recogida
			  ORDER BY mes DESC
			  LIMIT 1`
	l, err := scanLedger(s.DB.QueryRowContext(ctx, query, adminID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return l, nil
}

// CollectLedger помечает самую свежую открытую запись как собранную и возвращает её.
func (s *Storage) CollectLedger(ctx context.Context, adminID int64, at time.Time) (*models.CommissionLedger, error) {
	const op = "storage.CollectLedger"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE commission_ledgers
			  SET recogida = TRUE, fecha_recogida = $2
			  WHERE id = (
			      SELECT id FROM commission_ledgers
			      WHERE admin_id = $1 AND NOT recogida
			      ORDER BY mes DESC
			      LIMIT 1
			      FOR UPDATE
			  )
			  RETURNING ` + ledgerColumns
	l, err := scanLedger(s.DB.QueryRowContext(ctx, query, adminID, at))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return l, nil
}
