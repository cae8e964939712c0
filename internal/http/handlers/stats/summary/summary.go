// Package summary отдаёт администратору статистику и текущую комиссию.
package summary

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
	AdminID int64 `json:"admin_id" validate:"required,gt=0"`
}

// Service считает статистику.
type Service interface {
	Stats(ctx context.Context, adminID int64) (*models.Stats, error)
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/estadisticas.
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
// @Summary Статистика
// @Description Количество пользователей, активных подписок, ожидающих заявок и открытая комиссия месяца
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Администратор"
// @Success 200 {object} models.Stats
// @Failure 401 {object} response.ErrorResponse "Не администратор"
// @Router /api/estadisticas [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stats.summary"
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

	stats, err := h.service.Stats(r.Context(), caller)
	if err != nil {
		log.Error("failed to compute stats", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, stats)
}
