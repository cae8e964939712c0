// Package adminlist отдаёт каталог администратору без проверки подписки.
package adminlist

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
	AdminID int64  `json:"admin_id" validate:"required,gt=0"`
	Page    int    `json:"page" validate:"omitempty,max=100000"`
	Search  string `json:"search" validate:"max=200"`
}

// Service возвращает страницу каталога для администратора.
type Service interface {
	AdminList(ctx context.Context, adminID int64, page int, search string) (*models.MoviePage, error)
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/catalogo-admin.
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
// @Summary Каталог (администратор)
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Страница и строка поиска"
// @Success 200 {object} models.MoviePage
// @Failure 401 {object} response.ErrorResponse "Не администратор"
// @Router /api/catalogo-admin [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.movie.adminlist"
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

	page, err := h.service.AdminList(r.Context(), caller, req.Page, req.Search)
	if err != nil {
		log.Error("failed to list catalog", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, page)
}
