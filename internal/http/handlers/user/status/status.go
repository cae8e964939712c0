// Package status отдаёт статус подписки пользователя веб-панели.
package status

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/CromwellTrading/PelisBot/internal/http/request"
	"github.com/CromwellTrading/PelisBot/internal/http/response"
	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
	"github.com/CromwellTrading/PelisBot/internal/models"
	"github.com/CromwellTrading/PelisBot/internal/services/access"
)

// Request: тело запроса статуса.
type Request struct {
	TelegramID int64 `json:"telegram_id" validate:"required,gt=0"`
}

// Response: статус подписки.
type Response struct {
	Exists  bool        `json:"existe"`
	Active  bool        `json:"activo"`
	Plan    models.Plan `json:"plan,omitempty"`
	Expiry  *time.Time  `json:"expiracion"`
	IsAdmin bool        `json:"es_admin"`
}

// Service вычисляет статус доступа.
type Service interface {
	Status(ctx context.Context, userID int64) (access.Status, error)
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/user-status.
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
// @Summary Статус подписки
// @Description Возвращает существование, активность, план и дату окончания подписки
// @Tags Users
// @Accept  json
// @Produce  json
// @Param request body Request true "Telegram ID"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Идентификатор не совпадает с токеном"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Router /api/user-status [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.status"
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

	st, err := h.service.Status(r.Context(), caller)
	if err != nil {
		log.Error("failed to get status", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, Response{
		Exists:  st.Exists,
		Active:  st.Active,
		Plan:    st.Plan,
		Expiry:  st.Expiry,
		IsAdmin: st.IsAdmin,
	})
}
