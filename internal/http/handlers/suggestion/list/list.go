// Package list отдаёт администратору предложения пользователей.
package list

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

// Request тело запроса. Пустой Status означает все предложения.
type Request struct {
	AdminID int64  `json:"admin_id" validate:"required,gt=0"`
	Status  string `json:"estado" validate:"omitempty,oneof=pendiente revisada"`
}

// Service возвращает предложения.
type Service interface {
	List(ctx context.Context, adminID int64, status models.SuggestionStatus) ([]*models.Suggestion, error)
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/sugerencias.
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
// @Summary Предложения пользователей
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Фильтр по статусу"
// @Success 200 {array} models.Suggestion
// @Failure 404 {object} response.ErrorResponse "Функция отключена"
// @Router /api/sugerencias [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.suggestion.list"
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

	items, err := h.service.List(r.Context(), caller, models.SuggestionStatus(req.Status))
	if err != nil {
		log.Error("failed to list suggestions", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	if items == nil {
		items = []*models.Suggestion{}
	}
	render.JSON(w, r, items)
}
