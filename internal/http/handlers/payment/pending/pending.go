// Package pending отдаёт администратору заявки, ожидающие проверки.
package pending

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
}

// Service возвращает ожидающие заявки.
type Service interface {
	Pending(ctx context.Context, adminID int64) ([]*models.PaymentRequest, error)
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/pending-requests.
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
// @Summary Ожидающие заявки
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Администратор"
// @Success 200 {array} models.PaymentRequest
// @Failure 401 {object} response.ErrorResponse "Не администратор"
// @Router /api/pending-requests [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.pending"
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

	reqs, err := h.service.Pending(r.Context(), caller)
	if err != nil {
		log.Error("failed to list pending requests", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	if reqs == nil {
		reqs = []*models.PaymentRequest{}
	}
	render.JSON(w, r, reqs)
}
