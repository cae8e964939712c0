// Package bot реализует чат-интерфейс (меню, выбор тарифа, приём скриншотов оплаты,
// поиск и доставка фильмов, предложения, команды администратора).
package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/CromwellTrading/PelisBot/internal/cache"
	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
	domain "github.com/CromwellTrading/PelisBot/internal/models"
	"github.com/CromwellTrading/PelisBot/internal/services/access"
	"github.com/CromwellTrading/PelisBot/internal/services/payment"
)

// Messenger: исходящие вызовы Bot API.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendMenu(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// Access: статус подписки и роль пользователя.
type Access interface {
	Status(ctx context.Context, userID int64) (access.Status, error)
	IsAdmin(userID int64) bool
}

// Payments: приём заявок на оплату.
type Payments interface {
	Submit(ctx context.Context, req payment.SubmitRequest) (int64, error)
}

// Catalog: поиск, доставка и добавление фильмов.
type Catalog interface {
	List(ctx context.Context, callerID int64, page int, search string) (*domain.MoviePage, error)
	Deliver(ctx context.Context, callerID, movieID int64) (*domain.Movie, error)
	Add(ctx context.Context, adminID int64, title string, messageID int, channelID int64) (int64, error)
}

// Suggestions: пожелания пользователей.
type Suggestions interface {
	Enabled() bool
	Create(ctx context.Context, userID int64, text string) (int64, error)
}

// Sessions: состояние диалога пользователя.
type Sessions interface {
	Get(ctx context.Context, userID int64) (cache.Session, error)
	Update(ctx context.Context, userID int64, fn func(*cache.Session)) (cache.Session, error)
}

// Pricer: канонический прайс для текстов меню.
type Pricer interface {
	Price(plan domain.Plan, method domain.Method) int
}

// Options: параметры чат-интерфейса.
type Options struct {
	ChannelID int64
	WebAppURL string
}

// Handlers содержит обработчики обновлений.
type Handlers struct {
	msg         Messenger
	access      Access
	payments    Payments
	catalog     Catalog
	suggestions Suggestions
	sessions    Sessions
	prices      Pricer
	channelID   int64
	webAppURL   string
	log         *slog.Logger
	now         func() time.Time
}

// New создаёт обработчики.
func New(msg Messenger, acc Access, payments Payments, catalog Catalog, suggestions Suggestions,
	sessions Sessions, prices Pricer, opts Options, log *slog.Logger) *Handlers {
	return &Handlers{
		msg:         msg,
		access:      acc,
		payments:    payments,
		catalog:     catalog,
		suggestions: suggestions,
		sessions:    sessions,
		prices:      prices,
		channelID:   opts.ChannelID,
		webAppURL:   opts.WebAppURL,
		log:         log,
		now:         time.Now,
	}
}

// Register регистрирует обработчики на боте.
func (h *Handlers) Register(b *tgbot.Bot) {
	b.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypePrefix, h.HandleStart)
	b.RegisterHandler(tgbot.HandlerTypeMessageText, "/sugerir", tgbot.MatchTypePrefix, h.HandleSuggestCommand)
	b.RegisterHandler(tgbot.HandlerTypeMessageText, "/addpelicula", tgbot.MatchTypePrefix, h.HandleAddMovie)
	b.RegisterHandler(tgbot.HandlerTypeMessageText, "/panel", tgbot.MatchTypeExact, h.HandlePanel)

	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, cbPlanPrefix, tgbot.MatchTypePrefix, h.HandlePlan)
	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, cbMethodPrefix, tgbot.MatchTypePrefix, h.HandleMethod)
	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, cbPagePrefix, tgbot.MatchTypePrefix, h.HandlePage)
	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, cbMoviePrefix, tgbot.MatchTypePrefix, h.HandleMovie)
	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, cbSearch, tgbot.MatchTypeExact, h.HandleSearchButton)
	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, cbProfile, tgbot.MatchTypeExact, h.HandleProfile)
	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, cbRenew, tgbot.MatchTypeExact, h.HandleRenew)
	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, cbHelp, tgbot.MatchTypeExact, h.HandleHelp)
	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, cbHome, tgbot.MatchTypeExact, h.HandleHome)
	b.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, cbSuggest, tgbot.MatchTypeExact, h.HandleSuggestButton)

	b.RegisterHandlerMatchFunc(isPhoto, h.HandlePhoto)
	b.RegisterHandlerMatchFunc(isFreeText, h.HandleText)

	h.log.Info("telegram handlers registered")
}

func isPhoto(update *models.Update) bool {
	return update.Message != nil && len(update.Message.Photo) > 0
}

func isFreeText(update *models.Update) bool {
	if update.Message == nil {
		return false
	}
	text := strings.TrimSpace(update.Message.Text)
	return text != "" && !strings.HasPrefix(text, "/")
}

// reply отправляет текст, ошибки отправки только логируются.
func (h *Handlers) reply(ctx context.Context, chatID int64, text string) {
	if err := h.msg.SendText(ctx, chatID, text); err != nil {
		h.log.Warn("failed to send message", slog.Int64("chat_id", chatID), sl.Err(err))
	}
}

func (h *Handlers) replyMenu(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	if err := h.msg.SendMenu(ctx, chatID, text, markup); err != nil {
		h.log.Warn("failed to send menu", slog.Int64("chat_id", chatID), sl.Err(err))
	}
}

// answer закрывает «часики» на нажатой кнопке.
func (h *Handlers) answer(ctx context.Context, q *models.CallbackQuery) {
	if err := h.msg.AnswerCallback(ctx, q.ID, ""); err != nil {
		h.log.Warn("failed to answer callback", slog.String("data", q.Data), sl.Err(err))
	}
}

func (h *Handlers) daysLeft(expiry *time.Time) int {
	if expiry == nil {
		return 0
	}
	d := int(expiry.Sub(h.now()).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// sendHome показывает главное меню в зависимости от статуса подписки.
func (h *Handlers) sendHome(ctx context.Context, userID int64, name string) {
	st, err := h.access.Status(ctx, userID)
	if err != nil {
		h.log.Error("failed to load user status", slog.Int64("telegram_id", userID), sl.Err(err))
		h.reply(ctx, userID, msgInternalError)
		return
	}
	if st.Active {
		h.replyMenu(ctx, userID, h.welcomeActiveText(name, st.Plan, h.daysLeft(st.Expiry)), h.activeMenu())
		return
	}
	h.replyMenu(ctx, userID, h.welcomeText(),
		plansMenu([]models.InlineKeyboardButton{button("❓ Ayuda", cbHelp)}))
}
