package storage

import (
	"context"
	"fmt"

	"github.com/CromwellTrading/PelisBot/internal/models"
)

// CreateSuggestion сохраняет предложение пользователя.
func (s *Storage) CreateSuggestion(ctx context.Context, telegramID int64, text string) (int64, error) {
	const op = "storage.CreateSuggestion"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var id int64
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO suggestions (telegram_id, texto, estado) VALUES ($1, $2, $3) RETURNING id`,
		telegramID, text, models.SuggestionPending).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListSuggestions возвращает предложения, новые первыми. Пустой status: все.
func (s *Storage) ListSuggestions(ctx context.Context, status models.SuggestionStatus) ([]*models.Suggestion, error) {
	const op = "storage.ListSuggestions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, telegram_id, texto, estado, created_at
			  FROM suggestions
			  WHERE $1::text = '' OR estado = $1::text
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Suggestion, 0)
	for rows.Next() {
		var sg models.Suggestion
		if err = rows.Scan(&sg.ID, &sg.TelegramID, &sg.Text, &sg.Status, &sg.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &sg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateSuggestionStatus меняет статус предложения.
func (s *Storage) UpdateSuggestionStatus(ctx context.Context, id int64, status models.SuggestionStatus) error {
	const op = "storage.UpdateSuggestionStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE suggestions SET estado = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}
