// Package reject отклоняет заявку на оплату.
package reject

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
	AdminID   int64  `json:"admin_id" validate:"required,gt=0"`
	RequestID int64  `json:"solicitud_id" validate:"required,gt=0"`
	Reason    string `json:"motivo" validate:"required,max=500"`
}

// Service отклоняет заявку.
type Service interface {
	Reject(ctx context.Context, adminID, requestID int64, reason string) (*models.PaymentRequest, error)
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/reject-request.
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
// @Summary Отклонить заявку
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Заявка и причина"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse "Пустая причина"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Failure 409 {object} response.ErrorResponse "Заявка уже обработана"
// @Router /api/reject-request [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.reject"
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

	if _, err := h.service.Reject(r.Context(), caller, req.RequestID, req.Reason); err != nil {
		log.Error("failed to reject request", slog.Int64("solicitud_id", req.RequestID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK())
}
