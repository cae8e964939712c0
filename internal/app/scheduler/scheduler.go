// Package scheduler запускает ежедневные напоминания об окончании подписки.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/CromwellTrading/PelisBot/internal/config"
	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
	"github.com/CromwellTrading/PelisBot/internal/rabbitmq"
	schedulerservice "github.com/CromwellTrading/PelisBot/internal/services/scheduler"
	"github.com/CromwellTrading/PelisBot/internal/storage"
	"github.com/CromwellTrading/PelisBot/internal/telegram"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.Service
	cron             string
	db               *storage.Storage
	conn             *amqp.Connection
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, db *storage.Storage) error {
	for range 10 {
		err := storage.CheckDatabaseReady(ctx, db)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика. Без RABBITMQ_URL
// напоминания отправляются напрямую через Bot API.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{cron: cfg.Cron, db: db, logger: logger}

	var notifier schedulerservice.Notifier
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		app.conn = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		notifier = rabbitmq.NewPublisher(ch)
	} else {
		tg, err := telegram.New(cfg.Telegram, logger)
		if err != nil {
			app.close()
			return nil, err
		}
		notifier = tg
	}

	app.schedulerService = schedulerservice.New(db, notifier, cfg.ReminderDays, logger)
	return app, nil
}

func (a *App) close() {
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()
	err := a.schedulerService.Run(ctx, a.cron)
	a.logger.Info("shutting down scheduler service")
	return err
}
