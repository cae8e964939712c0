// Package cinebot собирает основное приложение: HTTP API веб-панели и бота.
package cinebot

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/CromwellTrading/PelisBot/internal/http/handlers/health"
	"github.com/CromwellTrading/PelisBot/internal/http/handlers/movie/add"
	"github.com/CromwellTrading/PelisBot/internal/http/handlers/movie/adminlist"
	"github.com/CromwellTrading/PelisBot/internal/http/handlers/movie/catalog"
	"github.com/CromwellTrading/PelisBot/internal/http/handlers/movie/delivery"
	"github.com/CromwellTrading/PelisBot/internal/http/handlers/movie/remove"
	movieupdate "github.com/CromwellTrading/PelisBot/internal/http/handlers/movie/update"
	"github.com/CromwellTrading/PelisBot/internal/http/handlers/payment/approve"
	"github.com/CromwellTrading/PelisBot/internal/http/handlers/payment/pending"
	"github.com/CromwellTrading/PelisBot/internal/http/handlers/payment/reject"
	"github.com/CromwellTrading/PelisBot/internal/http/handlers/payment/submit"
	"github.com/CromwellTrading/PelisBot/internal/http/handlers/session"
	"github.com/CromwellTrading/PelisBot/internal/http/handlers/stats/collect"
	"github.com/CromwellTrading/PelisBot/internal/http/handlers/stats/summary"
	suggestionlist "github.com/CromwellTrading/PelisBot/internal/http/handlers/suggestion/list"
	suggestionupdate "github.com/CromwellTrading/PelisBot/internal/http/handlers/suggestion/update"
	userlist "github.com/CromwellTrading/PelisBot/internal/http/handlers/user/list"
	"github.com/CromwellTrading/PelisBot/internal/http/handlers/user/status"
	"github.com/CromwellTrading/PelisBot/internal/http/middlewarectx"
	"github.com/CromwellTrading/PelisBot/internal/lib/jwt"
	"github.com/CromwellTrading/PelisBot/internal/lib/telegramauth"
	"github.com/CromwellTrading/PelisBot/internal/services/access"
	"github.com/CromwellTrading/PelisBot/internal/services/approval"
	catalogservice "github.com/CromwellTrading/PelisBot/internal/services/catalog"
	"github.com/CromwellTrading/PelisBot/internal/services/commission"
	"github.com/CromwellTrading/PelisBot/internal/services/payment"
	"github.com/CromwellTrading/PelisBot/internal/services/suggestion"
)

// Deps: зависимости HTTP-маршрутов.
type Deps struct {
	Access      *access.Service
	Payments    *payment.Service
	Approval    *approval.Service
	Catalog     *catalogservice.Service
	Suggestions *suggestion.Service
	Commission  *commission.Service
	Tokens      *jwt.MakerImpl
	InitData    *telegramauth.Validator
	Resolver    *middlewarectx.CallerResolver
	DB          health.Pinger
	// Webhook принимает обновления Telegram; nil в режиме long polling.
	Webhook       http.Handler
	WebhookSecret string
	RateLimit     float64
	RateBurst     int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, d.RateLimit, d.RateBurst))

		r.Post("/session", session.New(logger, d.InitData, d.Tokens, d.Access).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Tokens, logger))

			r.Post("/user-status", status.New(logger, d.Access, d.Resolver).ServeHTTP)
			r.Post("/submit-payment", submit.New(logger, d.Payments, d.Resolver).ServeHTTP)
			r.Post("/catalogo", catalog.New(logger, d.Catalog, d.Resolver).ServeHTTP)
			r.Post("/request-movie", delivery.New(logger, d.Catalog, d.Resolver).ServeHTTP)

			// Администрирование
			r.Post("/pending-requests", pending.New(logger, d.Payments, d.Resolver).ServeHTTP)
			r.Post("/approve-request", approve.New(logger, d.Approval, d.Resolver).ServeHTTP)
			r.Post("/reject-request", reject.New(logger, d.Approval, d.Resolver).ServeHTTP)
			r.Post("/users", userlist.New(logger, d.Access, d.Resolver).ServeHTTP)
			r.Post("/catalogo-admin", adminlist.New(logger, d.Catalog, d.Resolver).ServeHTTP)
			r.Post("/add-movie", add.New(logger, d.Catalog, d.Resolver).ServeHTTP)
			r.Post("/update-movie", movieupdate.New(logger, d.Catalog, d.Resolver).ServeHTTP)
			r.Post("/delete-movie", remove.New(logger, d.Catalog, d.Resolver).ServeHTTP)
			r.Post("/estadisticas", summary.New(logger, d.Commission, d.Resolver).ServeHTTP)
			r.Post("/recoger-comision", collect.New(logger, d.Commission, d.Resolver).ServeHTTP)
			r.Post("/sugerencias", suggestionlist.New(logger, d.Suggestions, d.Resolver).ServeHTTP)
			r.Post("/update-sugerencia", suggestionupdate.New(logger, d.Suggestions, d.Resolver).ServeHTTP)
		})
	})

	if d.Webhook != nil {
		r.With(middlewarectx.WebhookSecretMiddleware(d.WebhookSecret, logger)).
			Post("/webhook", d.Webhook.ServeHTTP)
	}

	r.Get("/health", health.New(logger, d.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
