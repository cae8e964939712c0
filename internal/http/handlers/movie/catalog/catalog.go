// Package catalog отдаёт каталог фильмов подписчику.
package catalog

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

// Request: тело запроса каталога.
type Request struct {
	TelegramID int64  `json:"telegram_id" validate:"required,gt=0"`
	Page       int    `json:"page" validate:"omitempty,max=100000"`
	Search     string `json:"search" validate:"max=200"`
}

// Service возвращает страницу каталога.
type Service interface {
	List(ctx context.Context, callerID int64, page int, search string) (*models.MoviePage, error)
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/catalogo.
type Handler struct {
	log      *slog.Logger
	service  Service
	resolver Resolver
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, resolver Resolver) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		resolver: resolver,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Каталог фильмов
// @Description Постраничный список фильмов по 10 штук с поиском по названию. Только для активных подписчиков
// @Tags Movies
// @Accept  json
// @Produce  json
// @Param request body Request true "Страница и строка поиска"
// @Success 200 {object} models.MoviePage
// @Failure 403 {object} response.ErrorResponse "Подписка не активна"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Router /api/catalogo [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.movie.catalog"
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

	page, err := h.service.List(r.Context(), caller, req.Page, req.Search)
	if err != nil {
		log.Error("failed to list catalog", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, page)
}
