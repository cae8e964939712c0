// Package remove удаляет фильм из каталога.
package remove

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
)

// Request: тело запроса.
type Request struct {
	AdminID int64 `json:"admin_id" validate:"required,gt=0"`
	MovieID int64 `json:"pelicula_id" validate:"required,gt=0"`
}

// Service удаляет фильм.
type Service interface {
	Delete(ctx context.Context, adminID, id int64) error
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/delete-movie.
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
// @Summary Удалить фильм
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Фильм"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse "Фильм не найден"
// @Router /api/delete-movie [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.movie.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	caller, err := h.resolver.Resolve(r, req.AdminID)
	if err != nil {
		log.Warn("caller not resolved", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), caller, req.MovieID); err != nil {
		log.Error("failed to delete movie", slog.Int64("pelicula_id", req.MovieID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("movie deleted", slog.Int64("pelicula_id", req.MovieID))
	render.JSON(w, r, response.OK())
}
