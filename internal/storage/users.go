package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/CromwellTrading/PelisBot/internal/models"
)

const userColumns = `telegram_id, plan, fecha_inicio, fecha_expiracion, created_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	var start, expire sql.NullTime
	if err := row.Scan(&u.TelegramID, &u.Plan, &start, &expire, &u.CreatedAt); err != nil {
		return nil, err
	}
	if start.Valid {
		u.SubscriptionStart = &start.Time
	}
	if expire.Valid {
		u.SubscriptionExpire = &expire.Time
	}
	return &u, nil
}

// GetUser возвращает пользователя по идентификатору Telegram
// или models.ErrNotFound, если записи нет.
func (s *Storage) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, telegramID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

// ListUsers возвращает страницу пользователей (новые первыми) и их общее количество.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  ORDER BY created_at DESC, telegram_id DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// CountUsers возвращает общее число пользователей и число активных на момент now.
func (s *Storage) CountUsers(ctx context.Context, now time.Time) (int, int, error) {
	const op = "storage.CountUsers"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total, active int
	query := `SELECT COUNT(*),
			      COUNT(*) FILTER (WHERE fecha_expiracion > $1)
			  FROM users`
	if err := s.DB.QueryRowContext(ctx, query, now).Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, active, nil
}

// FindUsersExpiringBetween находит пользователей, чья подписка истекает в [from, to).
func (s *Storage) FindUsersExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	const op = "storage.FindUsersExpiringBetween"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE fecha_expiracion >= $1 AND fecha_expiracion < $2
			  ORDER BY telegram_id`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
