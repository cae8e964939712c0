// Package update меняет статус предложения.
package update

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
	AdminID      int64  `json:"admin_id" validate:"required,gt=0"`
	SuggestionID int64  `json:"sugerencia_id" validate:"required,gt=0"`
	Status       string `json:"estado" validate:"required,oneof=pendiente revisada"`
}

// Service меняет статус.
type Service interface {
	UpdateStatus(ctx context.Context, adminID, id int64, status models.SuggestionStatus) error
}

// Resolver определяет вызывающего.
type Resolver interface {
	Resolve(r *http.Request, bodyID int64) (int64, error)
}

// Handler обрабатывает POST /api/update-sugerencia.
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
// @Summary Изменить статус предложения
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Предложение и статус"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse "Не найдено или функция отключена"
// @Router /api/update-sugerencia [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.suggestion.update"
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

	err = h.service.UpdateStatus(r.Context(), caller, req.SuggestionID, models.SuggestionStatus(req.Status))
	if err != nil {
		log.Error("failed to update suggestion", slog.Int64("sugerencia_id", req.SuggestionID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OK())
}
