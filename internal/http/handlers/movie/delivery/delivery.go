// Package delivery пересылает выбранный фильм подписчику в чат.
package delivery

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/CromwellTrading/PelisBot/internal/http/request"
	"github.com/CromwellTrading/PelisBot/internal/http/response"
	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
	"github.com/CromwellTrading/PelisBot/internal/models"
)

// Request: тело запроса.
type Request struct {
	TelegramID int64 `json:"telegram_id" validate:"required,gt=0"`
	MovieID    int64 `json:"pelicula_id" validate:"required,gt=0"`
}

// Service доставляет фильм.
type Service interface {
	Deliver(ctx context.Context, callerID, movieID int64) (*models.Movie, error)
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/request-movie.
type Handler struct {
	log      *slog.Logger
	service  Service
	resolver Resolver
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, resolver Resolver) *Handler {
	return &Handler{log: log, service: service, resolver: resolver, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Получить фильм
// @Description Пересылает фильм из канала в личный чат. Для плана clasico пересылка защищена
// @Tags Movies
// @Accept  json
// @Produce  json
// @Param request body Request true "Фильм"
// @Success 200 {object} response.SuccessResponse
// @Failure 403 {object} response.ErrorResponse "Подписка не активна"
// @Failure 404 {object} response.ErrorResponse "Фильм не найден"
// @Failure 500 {object} response.ErrorResponse "Не удалось переслать"
// @Router /api/request-movie [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.movie.request"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	caller, err := h.resolver.Resolve(r, req.TelegramID)
	if err != nil {
		log.Warn("caller not resolved", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	movie, err := h.service.Deliver(r.Context(), caller, req.MovieID)
	if err != nil {
		log.Error("failed to deliver movie", slog.Int64("pelicula_id", req.MovieID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("movie delivered", slog.Int64("pelicula_id", movie.ID), slog.Int64("telegram_id", caller))
	render.JSON(w, r, response.OK())
}
