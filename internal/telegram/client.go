// Package telegram оборачивает go-telegram/bot: отправку текста, пересылку
// сообщений канала и скачивание файлов.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/CromwellTrading/PelisBot/internal/config"
	"github.com/CromwellTrading/PelisBot/internal/lib/metrics"
)

const (
	// RequestTimeout ограничивает один вызов Bot API.
	RequestTimeout = 30 * time.Second
	// MaxDownloadSize: предел размера скачиваемого файла (лимит Bot API на getFile).
	MaxDownloadSize = 20 * 1024 * 1024
)

// ErrPermanent помечает ошибку, повтор которой бесполезен (бот заблокирован,
// чат не найден или сообщение удалено).
var ErrPermanent = errors.New("permanent telegram error")

var permanentMarkers = []string{
	"forbidden",
	"chat not found",
	"bot was blocked",
	"user is deactivated",
	"message to forward not found",
	"message_id_invalid",
}

// Client: обёртка над *tgbot.Bot.
type Client struct {
	bot        *tgbot.Bot
	token      string
	apiURL     string
	httpClient *http.Client
	log        *slog.Logger
}

// New создаёт бота. Дополнительные опции передаются как есть.
func New(cfg config.Telegram, log *slog.Logger, opts ...tgbot.Option) (*Client, error) {
	const op = "telegram.New"
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("%s: bot token is required", op)
	}

	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.telegram.org"
	}
	opts = append([]tgbot.Option{tgbot.WithServerURL(apiURL)}, opts...)

	b, err := tgbot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("telegram bot created")

	return &Client{
		bot:        b,
		token:      cfg.BotToken,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: RequestTimeout},
		log:        log,
	}, nil
}

// Raw возвращает исходного бота для регистрации обработчиков.
func (c *Client) Raw() *tgbot.Bot {
	return c.bot
}

// SendText отправляет сообщение без разметки.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	const op = "telegram.SendText"
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := c.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	return nil
}

// Notify доставляет уведомление напрямую через Bot API.
func (c *Client) Notify(ctx context.Context, chatID int64, text string) error {
	err := c.SendText(ctx, chatID, text)
	if err != nil {
		metrics.Notifications.WithLabelValues("error").Inc()
		return err
	}
	metrics.Notifications.WithLabelValues("ok").Inc()
	return nil
}

// SendMenu отправляет сообщение с inline-клавиатурой.
func (c *Client) SendMenu(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) error {
	const op = "telegram.SendMenu"
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := c.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	return nil
}

// AnswerCallback отвечает на нажатие inline-кнопки.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	const op = "telegram.AnswerCallback"
	_, err := c.bot.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	return nil
}

// Forward пересылает сообщение канала. protect включает защиту содержимого.
func (c *Client) Forward(ctx context.Context, chatID, fromChatID int64, messageID int, protect bool) error {
	const op = "telegram.Forward"
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := c.bot.ForwardMessage(ctx, &tgbot.ForwardMessageParams{
		ChatID:         chatID,
		FromChatID:     strconv.FormatInt(fromChatID, 10),
		MessageID:      messageID,
		ProtectContent: protect,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	return nil
}

// DownloadFile скачивает файл по file_id.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	const op = "telegram.DownloadFile"
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	file, err := c.bot.GetFile(ctx, &tgbot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("%s: empty file path", op)
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", c.apiURL, c.token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(data) > MaxDownloadSize {
		return nil, fmt.Errorf("%s: file exceeds %d bytes", op, MaxDownloadSize)
	}
	return data, nil
}

// classify помечает неустранимые ошибки Bot API как ErrPermanent.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	for _, m := range permanentMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %w", ErrPermanent, err)
		}
	}
	return err
}
