// Package add добавляет фильм в каталог.
package add

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

// Request: тело запроса. ChannelID = 0 означает канал по умолчанию.
type Request struct {
	AdminID   int64  `json:"admin_id" validate:"required,gt=0"`
	Title     string `json:"titulo" validate:"required,max=255"`
	MessageID int    `json:"message_id" validate:"required,gt=0"`
	ChannelID int64  `json:"canal_id"`
}

// Service создаёт фильм.
type Service interface {
	Add(ctx context.Context, adminID int64, title string, messageID int, channelID int64) (int64, error)
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/add-movie.
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
// @Summary Добавить фильм
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Фильм"
// @Success 200 {object} response.SuccessResponse
// @Failure 401 {object} response.ErrorResponse "Не администратор"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Не удалось сохранить"
// @Router /api/add-movie [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.movie.add"
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

	id, err := h.service.Add(r.Context(), caller, req.Title, req.MessageID, req.ChannelID)
	if err != nil {
		log.Error("failed to add movie", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("movie added", slog.Int64("pelicula_id", id))
	render.JSON(w, r, response.OKWithID(id))
}
