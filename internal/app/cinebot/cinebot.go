package cinebot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	tgbot "github.com/go-telegram/bot"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	"github.com/CromwellTrading/PelisBot/internal/bot"
	"github.com/CromwellTrading/PelisBot/internal/cache"
	"github.com/CromwellTrading/PelisBot/internal/config"
	"github.com/CromwellTrading/PelisBot/internal/http/middlewarectx"
	"github.com/CromwellTrading/PelisBot/internal/lib/jwt"
	"github.com/CromwellTrading/PelisBot/internal/lib/pricing"
	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
	"github.com/CromwellTrading/PelisBot/internal/lib/telegramauth"
	"github.com/CromwellTrading/PelisBot/internal/migrations"
	"github.com/CromwellTrading/PelisBot/internal/objectstore"
	"github.com/CromwellTrading/PelisBot/internal/rabbitmq"
	"github.com/CromwellTrading/PelisBot/internal/services/access"
	"github.com/CromwellTrading/PelisBot/internal/services/approval"
	"github.com/CromwellTrading/PelisBot/internal/services/catalog"
	"github.com/CromwellTrading/PelisBot/internal/services/commission"
	"github.com/CromwellTrading/PelisBot/internal/services/payment"
	"github.com/CromwellTrading/PelisBot/internal/services/suggestion"
	"github.com/CromwellTrading/PelisBot/internal/storage"
	"github.com/CromwellTrading/PelisBot/internal/telegram"
)

const shutdownTimeout = 15 * time.Second

// notifier: общий интерфейс прямой отправки и публикации в очередь.
type notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// App: основное приложение.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *storage.Storage
	cache   *cache.Cache
	tg      *telegram.Client
	webhook config.Telegram
	amqp    *amqp.Connection
}

// New инициализирует хранилища, сервисы, бота и HTTP-сервер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	objects, err := objectstore.NewClient(cfg.ObjectStorage, logger)
	if err != nil {
		_ = db.Close()
		_ = cacheRedis.Close()
		return nil, err
	}
	if err = objects.EnsureBucket(ctx); err != nil {
		_ = db.Close()
		_ = cacheRedis.Close()
		return nil, err
	}

	tg, err := telegram.New(cfg.Telegram, logger)
	if err != nil {
		_ = db.Close()
		_ = cacheRedis.Close()
		return nil, err
	}

	app := &App{
		logger:  logger,
		db:      db,
		cache:   cacheRedis,
		tg:      tg,
		webhook: cfg.Telegram,
	}

	var notify notifier = tg
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, err
		}
		app.amqp = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.close()
			return nil, err
		}
		notify = rabbitmq.NewPublisher(ch)
		logger.Info("notifications go through RabbitMQ")
	}

	prices := pricing.New(cfg.AdjustmentPercent)
	accessService := access.New(db, cfg, logger)
	paymentService := payment.New(db, objects, notify, accessService, cfg.AdminIDs, cfg.WebAppURL, logger)
	approvalService := approval.New(db, accessService, prices, notify, approval.Options{
		CommissionEnabled: cfg.Commission,
		LedgerAdminID:     cfg.LedgerAdminID,
	}, logger)
	catalogService := catalog.New(db, accessService, tg, notify, cfg.ChannelID, logger)
	suggestionService := suggestion.New(db, accessService, cfg.Suggestions, logger)
	commissionService := commission.New(db, accessService, cfg.LedgerAdminID, cfg.Commission, logger)

	handlers := bot.New(tg, accessService, paymentService, catalogService, suggestionService,
		cache.NewSessions(cacheRedis, cfg.SessionTTL), prices,
		bot.Options{ChannelID: cfg.ChannelID, WebAppURL: cfg.WebAppURL}, logger)
	handlers.Register(tg.Raw())

	deps := Deps{
		Access:      accessService,
		Payments:    paymentService,
		Approval:    approvalService,
		Catalog:     catalogService,
		Suggestions: suggestionService,
		Commission:  commissionService,
		Tokens:      jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		InitData:    telegramauth.NewValidator(cfg.BotToken, cfg.InitDataMaxAge),
		Resolver:    middlewarectx.NewCallerResolver(cfg.AllowBareIdentifier, logger),
		DB:          db.DB,
		RateLimit:   cfg.RateLimit,
		RateBurst:   cfg.RateBurst,
	}
	if cfg.WebhookURL != "" {
		deps.Webhook = tg.Raw().WebhookHandler()
		deps.WebhookSecret = cfg.WebhookSecret
	}

	if cfg.JWTSecretKey == "" {
		logger.Warn("jwt secret key is empty, web panel sessions are disabled")
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, deps)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает HTTP-сервер и приём обновлений бота до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.runBot(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown HTTP server", sl.Err(err))
			return err
		}
		return nil
	})

	return g.Wait()
}

// runBot выбирает режим приёма обновлений: вебхук при заданном URL, иначе long polling.
func (a *App) runBot(ctx context.Context) error {
	b := a.tg.Raw()
	if a.webhook.WebhookURL == "" {
		if _, err := b.DeleteWebhook(ctx, &tgbot.DeleteWebhookParams{}); err != nil {
			a.logger.Warn("failed to delete webhook", sl.Err(err))
		}
		a.logger.Info("bot started in polling mode")
		b.Start(ctx)
		return nil
	}

	_, err := b.SetWebhook(ctx, &tgbot.SetWebhookParams{
		URL:         a.webhook.WebhookURL,
		SecretToken: a.webhook.WebhookSecret,
	})
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	a.logger.Info("bot started in webhook mode", slog.String("url", a.webhook.WebhookURL))
	b.StartWebhook(ctx)
	return nil
}

func (a *App) close() {
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			a.logger.Error("failed to close RabbitMQ connection", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
