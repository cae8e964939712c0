// Package approve подтверждает заявку на оплату.
package approve

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

// Request: тело запроса. Method переопределяет способ оплаты, если заявка пришла из чата.
type Request struct {
	AdminID   int64  `json:"admin_id" validate:"required,gt=0"`
	RequestID int64  `json:"solicitud_id" validate:"required,gt=0"`
	Method    string `json:"metodo" validate:"omitempty,oneof=transferencia saldo"`
}

// Service подтверждает заявку.
type Service interface {
	Approve(ctx context.Context, adminID, requestID int64, methodOverride models.Method) (*models.PaymentRequest, error)
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/approve-request.
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
// @Summary Подтвердить заявку
// @Description Активирует подписку на 30 дней и уведомляет пользователя
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Заявка"
// @Success 200 {object} response.SuccessResponse
// @Failure 401 {object} response.ErrorResponse "Не администратор"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Failure 409 {object} response.ErrorResponse "Заявка уже обработана"
// @Router /api/approve-request [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.approve"
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

	pr, err := h.service.Approve(r.Context(), caller, req.RequestID, models.Method(req.Method))
	if err != nil {
		log.Error("failed to approve request", slog.Int64("solicitud_id", req.RequestID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("request approved", slog.Int64("solicitud_id", pr.ID), slog.Int64("telegram_id", pr.TelegramID))
	render.JSON(w, r, response.OK())
}
