// Package submit принимает заявку на оплату из веб-панели.
package submit

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
	"github.com/CromwellTrading/PelisBot/internal/services/payment"
)

// Request: заявка с изображением в виде data URL.
type Request struct {
	TelegramID int64  `json:"telegram_id" validate:"required,gt=0"`
	Plan       string `json:"plan" validate:"required,oneof=clasico premium"`
	Method     string `json:"metodo" validate:"required,oneof=transferencia saldo"`
	Image      string `json:"imagen" validate:"required"`
}

// Service сохраняет заявку.
type Service interface {
	Submit(ctx context.Context, req payment.SubmitRequest) (int64, error)
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/submit-payment.
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
// @Summary Отправить заявку на оплату
// @Description Загружает скриншот оплаты и создаёт заявку в статусе pendiente
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные заявки"
// @Success 200 {object} response.SubmitResponse
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или изображение"
// @Failure 401 {object} response.ErrorResponse "Идентификатор не совпадает с токеном"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Router /api/submit-payment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.submit"
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

	image, err := payment.DecodeDataURL(req.Image)
	if err != nil {
		log.Error("failed to decode image", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	id, err := h.service.Submit(r.Context(), payment.SubmitRequest{
		UserID: caller,
		Plan:   models.Plan(req.Plan),
		Method: models.Method(req.Method),
		Image:  image,
	})
	if err != nil {
		log.Error("failed to submit payment", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("payment submitted", slog.Int64("request_id", id))
	render.JSON(w, r, response.SubmitResponse{Success: true, RequestID: id})
}
