// Package scheduler рассылает напоминания об окончании подписки.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
	"github.com/CromwellTrading/PelisBot/internal/models"
)

// JobTimeout ограничивает один прогон рассылки.
const JobTimeout = 5 * time.Minute

// UserRepository ищет пользователей по дате окончания подписки.
type UserRepository interface {
	FindUsersExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.User, error)
}

// Notifier доставляет текстовое сообщение в чат.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Service: рассылка напоминаний.
type Service struct {
	repo     UserRepository
	notifier Notifier
	days     []int
	log      *slog.Logger
	now      func() time.Time
}

// New создаёт сервис. days: за сколько дней до окончания напоминать.
func New(repo UserRepository, notifier Notifier, days []int, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		days:     days,
		log:      log,
		now:      time.Now,
	}
}

// ReminderText формирует текст напоминания.
func ReminderText(days int) string {
	return fmt.Sprintf("⏰ Tu suscripción expira en %d día(s).\nRenueva para seguir disfrutando del catálogo.", days)
}

// Remind отправляет напоминания пользователям, у которых подписка
// истекает в календарный день через N дней, для каждого N из настроек.
// Возвращает число отправленных сообщений.
func (s *Service) Remind(ctx context.Context) (int, error) {
	const op = "services.scheduler.Remind"

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	sent := 0
	for _, d := range s.days {
		from := today.AddDate(0, 0, d)
		to := from.AddDate(0, 0, 1)

		users, err := s.repo.FindUsersExpiringBetween(ctx, from, to)
		if err != nil {
			return sent, fmt.Errorf("%s: %w", op, err)
		}
		if len(users) == 0 {
			continue
		}
		s.log.Info("found expiring subscriptions", slog.Int("days", d), slog.Int("count", len(users)))

		for _, u := range users {
			if err := s.notifier.Notify(ctx, u.TelegramID, ReminderText(d)); err != nil {
				s.log.Warn("failed to send reminder", slog.Int64("telegram_id", u.TelegramID), sl.Err(err))
				continue
			}
			sent++
		}
	}
	return sent, nil
}

// Run запускает Remind по расписанию schedule (с секундами) до отмены ctx.
func (s *Service) Run(ctx context.Context, schedule string) error {
	const op = "services.scheduler.Run"

	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(schedule, func() {
		jobCtx, cancel := context.WithTimeout(ctx, JobTimeout)
		defer cancel()

		s.log.Info("starting expiry reminders")
		sent, err := s.Remind(jobCtx)
		if err != nil {
			s.log.Error("expiry reminders failed", sl.Err(err))
			return
		}
		s.log.Info("expiry reminders finished", slog.Int("sent", sent))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.Start()
	s.log.Info("scheduler started", slog.String("cron", schedule))
	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}
