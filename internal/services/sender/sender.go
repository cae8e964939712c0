// Package sender доставляет уведомления из очереди в Telegram.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
	"github.com/CromwellTrading/PelisBot/internal/models"
	"github.com/CromwellTrading/PelisBot/internal/telegram"
)

// Transport отправляет текст в чат.
type Transport interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Service: обработчик сообщений очереди уведомлений.
type Service struct {
	transport Transport
	log       *slog.Logger
}

// New создаёт обработчик.
func New(transport Transport, log *slog.Logger) *Service {
	return &Service{transport: transport, log: log}
}

// Handle декодирует уведомление и отправляет его. Битые сообщения и
// неустранимые ошибки Telegram подтверждаются, прочие ошибки возвращаются
// для повторной постановки в очередь.
func (s *Service) Handle(ctx context.Context, body []byte) error {
	const op = "services.sender.Handle"

	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		s.log.Error("failed to unmarshal notification", slog.String("op", op), sl.Err(err))
		return nil
	}
	if n.ChatID == 0 || n.Text == "" {
		s.log.Warn("dropping empty notification", slog.String("op", op), slog.Int64("chat_id", n.ChatID))
		return nil
	}

	if err := s.transport.Notify(ctx, n.ChatID, n.Text); err != nil {
		if errors.Is(err, telegram.ErrPermanent) {
			s.log.Warn("notification dropped", slog.Int64("chat_id", n.ChatID), sl.Err(err))
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("notification sent", slog.Int64("chat_id", n.ChatID))
	return nil
}
