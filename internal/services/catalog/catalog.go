// Package catalog отвечает за поиск по каталогу, доставку фильмов
// подписчикам и администрирование каталога.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/CromwellTrading/PelisBot/internal/lib/metrics"
	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
	"github.com/CromwellTrading/PelisBot/internal/models"
)

// ProtectionNotice отправляется после пересылки с защитой содержимого.
const ProtectionNotice = "ℹ️ Esta película tiene protección de contenido. No puedes reenviarla ni guardarla. " +
	"Para disfrutar de estas funciones, actualiza al plan Premium."

// Repository: хранилище каталога.
type Repository interface {
	ListMovies(ctx context.Context, search string, limit, offset int) ([]*models.Movie, int, error)
	GetMovie(ctx context.Context, id int64) (*models.Movie, error)
	CreateMovie(ctx context.Context, m models.Movie) (int64, error)
	UpdateMovie(ctx context.Context, id int64, title string, messageID int) error
	DeleteMovie(ctx context.Context, id int64) error
}

// Access проверяет подписку и роль вызывающего.
type Access interface {
	RequireActive(ctx context.Context, userID int64) (*models.User, error)
	RequireAdmin(userID int64) error
}

// Forwarder пересылает сообщение канала в чат пользователя.
type Forwarder interface {
	Forward(ctx context.Context, chatID, fromChatID int64, messageID int, protect bool) error
}

// Notifier доставляет текстовое сообщение в чат.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Service: операции над каталогом.
type Service struct {
	repo      Repository
	access    Access
	forwarder Forwarder
	notifier  Notifier
	channelID int64
	log       *slog.Logger
}

// New создаёт сервис каталога. channelID: канал по умолчанию для новых фильмов.
func New(repo Repository, access Access, forwarder Forwarder, notifier Notifier, channelID int64, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		access:    access,
		forwarder: forwarder,
		notifier:  notifier,
		channelID: channelID,
		log:       log,
	}
}

// List возвращает страницу каталога для подписчика с активной подпиской.
func (s *Service) List(ctx context.Context, callerID int64, page int, search string) (*models.MoviePage, error) {
	const op = "services.catalog.List"
	if _, err := s.access.RequireActive(ctx, callerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.list(ctx, page, search)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// AdminList возвращает страницу каталога для администратора.
func (s *Service) AdminList(ctx context.Context, adminID int64, page int, search string) (*models.MoviePage, error) {
	const op = "services.catalog.AdminList"
	if err := s.access.RequireAdmin(adminID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.list(ctx, page, search)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func (s *Service) list(ctx context.Context, page int, search string) (*models.MoviePage, error) {
	page, offset := models.NormalizePage(page)
	items, total, err := s.repo.ListMovies(ctx, strings.TrimSpace(search), models.PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	return &models.MoviePage{Items: items, Total: total, Page: page}, nil
}

// Deliver пересылает фильм пользователю. Тариф classic получает
// пересылку с защитой содержимого и пояснение после неё.
func (s *Service) Deliver(ctx context.Context, callerID, movieID int64) (*models.Movie, error) {
	const op = "services.catalog.Deliver"

	user, err := s.access.RequireActive(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	movie, err := s.repo.GetMovie(ctx, movieID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrStorage, err)
	}

	protect := user.Plan.Protected()
	protectedLabel := strconv.FormatBool(protect)
	if err := s.forwarder.Forward(ctx, callerID, movie.ChannelID, movie.MessageID, protect); err != nil {
		metrics.Deliveries.WithLabelValues(protectedLabel, "error").Inc()
		s.log.Error("failed to forward movie",
			slog.String("op", op),
			slog.Int64("telegram_id", callerID),
			slog.Int64("movie_id", movieID),
			sl.Err(err),
		)
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrDelivery, err)
	}
	metrics.Deliveries.WithLabelValues(protectedLabel, "ok").Inc()

	if protect {
		if err := s.notifier.Notify(ctx, callerID, ProtectionNotice); err != nil {
			s.log.Warn("failed to send protection notice", slog.Int64("telegram_id", callerID), sl.Err(err))
		}
	}
	return movie, nil
}

// Add добавляет фильм в каталог. channelID = 0 означает канал по умолчанию.
func (s *Service) Add(ctx context.Context, adminID int64, title string, messageID int, channelID int64) (int64, error) {
	const op = "services.catalog.Add"
	if err := s.access.RequireAdmin(adminID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	title = strings.TrimSpace(title)
	if title == "" || messageID <= 0 {
		return 0, fmt.Errorf("%s: %w: title and message_id are required", op, models.ErrValidation)
	}
	if channelID == 0 {
		channelID = s.channelID
	}

	id, err := s.repo.CreateMovie(ctx, models.Movie{Title: title, MessageID: messageID, ChannelID: channelID})
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", op, models.ErrPersistence, err)
	}
	s.log.Info("movie added", slog.Int64("id", id), slog.String("title", title), slog.Int64("admin_id", adminID))
	return id, nil
}

// Update меняет название и сообщение канала у фильма.
func (s *Service) Update(ctx context.Context, adminID, id int64, title string, messageID int) error {
	const op = "services.catalog.Update"
	if err := s.access.RequireAdmin(adminID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	title = strings.TrimSpace(title)
	if title == "" || messageID <= 0 {
		return fmt.Errorf("%s: %w: title and message_id are required", op, models.ErrValidation)
	}
	if err := s.repo.UpdateMovie(ctx, id, title, messageID); err != nil {
		return fmt.Errorf("%s: %w", op, writeErr(err))
	}
	return nil
}

// Delete удаляет фильм из каталога.
func (s *Service) Delete(ctx context.Context, adminID, id int64) error {
	const op = "services.catalog.Delete"
	if err := s.access.RequireAdmin(adminID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteMovie(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, writeErr(err))
	}
	s.log.Info("movie deleted", slog.Int64("id", id), slog.Int64("admin_id", adminID))
	return nil
}

func writeErr(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrPersistence, err)
}
