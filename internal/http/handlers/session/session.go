// Package session обменивает подписанный initData мини-приложения на JWT.
package session

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/CromwellTrading/PelisBot/internal/http/request"
	"github.com/CromwellTrading/PelisBot/internal/http/response"
	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
	"github.com/CromwellTrading/PelisBot/internal/lib/telegramauth"
)

// Request: тело запроса.
type Request struct {
	InitData string `json:"init_data" validate:"required"`
}

// Response: выданный токен.
type Response struct {
	Token      string `json:"token"`
	TelegramID int64  `json:"telegram_id"`
	IsAdmin    bool   `json:"es_admin"`
}

// InitDataValidator проверяет подпись initData.
type InitDataValidator interface {
	Validate(initData string) (*telegramauth.WebAppUser, error)
}

// TokenIssuer выпускает JWT.
type TokenIssuer interface {
	GenerateToken(telegramID int64, isAdmin bool) (string, error)
}

// AdminChecker сверяет идентификатор со списком администраторов.
type AdminChecker interface {
	IsAdmin(userID int64) bool
}

// Handler обрабатывает POST /api/session.
type Handler struct {
	log      *slog.Logger
	initData InitDataValidator
	tokens   TokenIssuer
	admins   AdminChecker
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, initData InitDataValidator, tokens TokenIssuer, admins AdminChecker) *Handler {
	return &Handler{
		log:      log,
		initData: initData,
		tokens:   tokens,
		admins:   admins,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Открыть сессию веб-панели
// @Description Проверяет подпись initData Telegram WebApp и выдаёт Bearer-токен
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "initData из Telegram.WebApp"
// @Success 200 {object} Response
// @Failure 401 {object} response.ErrorResponse "Неверная подпись или устаревшие данные"
// @Failure 500 {object} response.ErrorResponse "Не удалось выпустить токен"
// @Router /api/session [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	user, err := h.initData.Validate(req.InitData)
	if err != nil {
		log.Warn("init data rejected", sl.Err(err))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid init data"))
		return
	}

	isAdmin := h.admins.IsAdmin(user.ID)
	token, err := h.tokens.GenerateToken(user.ID, isAdmin)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("session opened", slog.Int64("telegram_id", user.ID), slog.Bool("es_admin", isAdmin))
	render.JSON(w, r, Response{Token: token, TelegramID: user.ID, IsAdmin: isAdmin})
}
