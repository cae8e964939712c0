package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/CromwellTrading/PelisBot/internal/models"
)

const movieColumns = `id, titulo, message_id, canal_id, created_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern строит шаблон ILIKE для поиска подстроки, экранируя спецсимволы.
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

func scanMovie(row scanner) (*models.Movie, error) {
	var m models.Movie
	if err := row.Scan(&m.ID, &m.Title, &m.MessageID, &m.ChannelID, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMovies возвращает страницу каталога, отфильтрованную по подстроке названия
// без учёта регистра и упорядоченную по названию, и общее число совпадений.
func (s *Storage) ListMovies(ctx context.Context, search string, limit, offset int) ([]*models.Movie, int, error) {
	const op = "storage.ListMovies"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	pattern := containsPattern(search)

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM movies WHERE titulo ILIKE $1 ESCAPE '\'`, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + movieColumns + `
			  FROM movies
			  WHERE titulo ILIKE $1 ESCAPE '\'
			  ORDER BY titulo ASC, id ASC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Movie, 0, limit)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// GetMovie возвращает фильм по ID.
func (s *Storage) GetMovie(ctx context.Context, id int64) (*models.Movie, error) {
	const op = "storage.GetMovie"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	m, err := scanMovie(s.DB.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return m, nil
}

// CreateMovie добавляет фильм в каталог и возвращает его ID.
func (s *Storage) CreateMovie(ctx context.Context, m models.Movie) (int64, error) {
	const op = "storage.CreateMovie"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var id int64
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO movies (titulo, message_id, canal_id) VALUES ($1, $2, $3) RETURNING id`,
		m.Title, m.MessageID, m.ChannelID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UpdateMovie меняет название и сообщение фильма.
func (s *Storage) UpdateMovie(ctx context.Context, id int64, title string, messageID int) error {
	const op = "storage.UpdateMovie"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE movies SET titulo = $2, message_id = $3 WHERE id = $1`, id, title, messageID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

// DeleteMovie удаляет фильм из каталога.
func (s *Storage) DeleteMovie(ctx context.Context, id int64) error {
	const op = "storage.DeleteMovie"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(op, res)
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func affected(op string, res rowsAffecter) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}
