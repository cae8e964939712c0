// Package collect закрывает открытую запись комиссии.
package collect

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

// Service отмечает комиссию собранной.
type Service interface {
	Collect(ctx context.Context, adminID int64) (*models.CommissionLedger, error)
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/recoger-comision.
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
// @Summary Собрать комиссию
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Администратор"
// @Success 200 {object} models.CommissionLedger
// @Failure 404 {object} response.ErrorResponse "Нет открытой комиссии или функция отключена"
// @Router /api/recoger-comision [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stats.collect"
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

	ledger, err := h.service.Collect(r.Context(), caller)
	if err != nil {
		log.Error("failed to collect commission", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	log.Info("commission collected", slog.Int64("ledger_id", ledger.ID), slog.Int("total", ledger.Total()))
	render.JSON(w, r, ledger)
}
