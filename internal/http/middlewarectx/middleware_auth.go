// Package middlewarectx содержит HTTP middleware: разбор JWT-токена веб-панели,
// определение вызывающего, проверку секрета вебхука и ограничение частоты запросов.
package middlewarectx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/CromwellTrading/PelisBot/internal/http/response"
	"github.com/CromwellTrading/PelisBot/internal/lib/jwt"
	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
	"github.com/CromwellTrading/PelisBot/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// Caller: ключ для Telegram ID из проверенного токена.
	Caller Key = "telegram_id"
)

// TokenParser проверяет JWT веб-панели.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// JWTMiddleware разбирает заголовок Authorization, если он есть.
// Валидный токен кладёт Telegram ID в контекст, невалидный даёт 401.
// Запрос без заголовка проходит дальше: решение принимает ResolveCaller.
func JWTMiddleware(maker TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid authorization header"))
				return
			}

			claims, err := maker.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), Caller, claims.TelegramID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerResolver определяет, от чьего имени выполняется запрос.
type CallerResolver struct {
	allowBare bool
	log       *slog.Logger
}

// NewCallerResolver создаёт резолвер. allowBare разрешает устаревший режим,
// в котором идентификатор из тела запроса принимается без токена.
func NewCallerResolver(allowBare bool, log *slog.Logger) *CallerResolver {
	return &CallerResolver{allowBare: allowBare, log: log}
}

// Resolve возвращает Telegram ID вызывающего. При наличии токена
// идентификатор из тела (если задан) должен с ним совпадать.
func (c *CallerResolver) Resolve(r *http.Request, bodyID int64) (int64, error) {
	const op = "middlewarectx.Resolve"

	if tokenID, ok := r.Context().Value(Caller).(int64); ok && tokenID != 0 {
		if bodyID != 0 && bodyID != tokenID {
			return 0, fmt.Errorf("%s: %w: identifier does not match token", op, models.ErrUnauthorized)
		}
		return tokenID, nil
	}

	if !c.allowBare || bodyID == 0 {
		return 0, fmt.Errorf("%s: %w: missing token", op, models.ErrUnauthorized)
	}
	c.log.Debug("legacy bare identifier accepted",
		slog.Int64("telegram_id", bodyID),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	return bodyID, nil
}
