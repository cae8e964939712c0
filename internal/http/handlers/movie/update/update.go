// Package update изменяет название и сообщение фильма.
package update

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
	AdminID   int64  `json:"admin_id" validate:"required,gt=0"`
	MovieID   int64  `json:"pelicula_id" validate:"required,gt=0"`
	Title     string `json:"titulo" validate:"required,max=255"`
	MessageID int    `json:"message_id" validate:"required,gt=0"`
}

// Service обновляет фильм.
type Service interface {
	Update(ctx context.Context, adminID, id int64, title string, messageID int) error
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/update-movie.
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
// @Summary Изменить фильм
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Фильм"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse "Фильм не найден"
// @Router /api/update-movie [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.movie.update"
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

	if err := h.service.Update(r.Context(), caller, req.MovieID, req.Title, req.MessageID); err != nil {
		log.Error("failed to update movie", slog.Int64("pelicula_id", req.MovieID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK())
}
