package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/CromwellTrading/PelisBot/internal/cache"
	"github.com/CromwellTrading/PelisBot/internal/lib/sl"
	domain "github.com/CromwellTrading/PelisBot/internal/models"
	"github.com/CromwellTrading/PelisBot/internal/services/payment"
)

const minQueryLength = 3

// HandleStart: команда /start.
func (h *Handlers) HandleStart(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	from := update.Message.From
	h.log.Debug("command received", slog.String("command", "/start"), slog.Int64("telegram_id", from.ID))

	if _, err := h.sessions.Update(ctx, from.ID, func(s *cache.Session) { s.Awaiting = cache.AwaitingNothing }); err != nil {
		h.log.Warn("failed to reset session", slog.Int64("telegram_id", from.ID), sl.Err(err))
	}
	h.sendHome(ctx, from.ID, from.FirstName)
}

// HandleHome: кнопка «Volver al inicio».
func (h *Handlers) HandleHome(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	q := update.CallbackQuery
	if q == nil {
		return
	}
	h.answer(ctx, q)
	h.sendHome(ctx, q.From.ID, "")
}

// HandlePlan запоминает выбранный тариф и показывает реквизиты.
func (h *Handlers) HandlePlan(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	q := update.CallbackQuery
	if q == nil {
		return
	}
	h.answer(ctx, q)

	plan := domain.Plan(strings.TrimPrefix(q.Data, cbPlanPrefix))
	if !plan.Valid() {
		h.log.Warn("unknown plan selected", slog.String("data", q.Data))
		return
	}

	_, err := h.sessions.Update(ctx, q.From.ID, func(s *cache.Session) {
		s.Plan = plan
		s.Method = ""
		s.Awaiting = cache.AwaitingNothing
	})
	if err != nil {
		h.log.Error("failed to store plan", slog.Int64("telegram_id", q.From.ID), sl.Err(err))
		h.reply(ctx, q.From.ID, msgInternalError)
		return
	}
	h.replyMenu(ctx, q.From.ID, h.paymentText(plan), methodsMenu())
}

// HandleMethod запоминает способ оплаты.
func (h *Handlers) HandleMethod(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	q := update.CallbackQuery
	if q == nil {
		return
	}
	h.answer(ctx, q)

	method := domain.Method(strings.TrimPrefix(q.Data, cbMethodPrefix))
	if method != domain.MethodBankTransfer && method != domain.MethodMobileBalance {
		h.log.Warn("unknown method selected", slog.String("data", q.Data))
		return
	}

	sess, err := h.sessions.Update(ctx, q.From.ID, func(s *cache.Session) {
		if s.Plan != "" {
			s.Method = method
		}
	})
	if err != nil {
		h.log.Error("failed to store method", slog.Int64("telegram_id", q.From.ID), sl.Err(err))
		h.reply(ctx, q.From.ID, msgInternalError)
		return
	}
	if sess.Plan == "" {
		h.reply(ctx, q.From.ID, msgChoosePlanFirst)
		return
	}
	h.reply(ctx, q.From.ID, methodSelectedText(sess.Plan, method))
}

// HandlePhoto принимает скриншот оплаты. Тариф и способ читаются из сессии
// один раз до скачивания файла.
func (h *Handlers) HandlePhoto(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || len(msg.Photo) == 0 {
		return
	}
	from := msg.From

	sess, err := h.sessions.Get(ctx, from.ID)
	if err != nil {
		h.log.Error("failed to read session", slog.Int64("telegram_id", from.ID), sl.Err(err))
		h.reply(ctx, msg.Chat.ID, msgInternalError)
		return
	}
	if sess.Plan == "" {
		h.reply(ctx, msg.Chat.ID, msgChoosePlanFirst)
		return
	}
	plan, method := sess.Plan, sess.Method
	if method == "" {
		method = domain.MethodUnknown
	}

	data, err := h.msg.DownloadFile(ctx, largestPhoto(msg.Photo).FileID)
	if err != nil {
		h.log.Error("failed to download proof", slog.Int64("telegram_id", from.ID), sl.Err(err))
		h.reply(ctx, msg.Chat.ID, msgImageError)
		return
	}

	id, err := h.payments.Submit(ctx, payment.SubmitRequest{
		UserID: from.ID,
		Plan:   plan,
		Method: method,
		Image:  data,
		From:   displayName(from),
	})
	if err != nil {
		h.log.Error("failed to submit payment", slog.Int64("telegram_id", from.ID), sl.Err(err))
		h.reply(ctx, msg.Chat.ID, msgImageError)
		return
	}
	h.log.Info("payment proof received", slog.Int64("telegram_id", from.ID), slog.Int64("request_id", id))

	if _, err := h.sessions.Update(ctx, from.ID, func(s *cache.Session) {
		s.Plan = ""
		s.Method = ""
	}); err != nil {
		h.log.Warn("failed to reset session", slog.Int64("telegram_id", from.ID), sl.Err(err))
	}
	h.replyMenu(ctx, msg.Chat.ID, msgRequestReceived, keyboard(homeRow()))
}

// HandleSearchButton переводит сессию в ожидание поискового запроса.
func (h *Handlers) HandleSearchButton(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	q := update.CallbackQuery
	if q == nil {
		return
	}
	h.answer(ctx, q)

	if _, err := h.sessions.Update(ctx, q.From.ID, func(s *cache.Session) { s.Awaiting = cache.AwaitingSearch }); err != nil {
		h.log.Warn("failed to update session", slog.Int64("telegram_id", q.From.ID), sl.Err(err))
	}
	h.reply(ctx, q.From.ID, msgSearchPrompt)
}

// HandleText обрабатывает свободный текст: предложение, если бот его ждёт,
// иначе поиск по каталогу.
func (h *Handlers) HandleText(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	sess, err := h.sessions.Get(ctx, userID)
	if err != nil {
		h.log.Warn("failed to read session", slog.Int64("telegram_id", userID), sl.Err(err))
	}
	if sess.Awaiting == cache.AwaitingSuggestion {
		h.createSuggestion(ctx, userID, msg.Chat.ID, text)
		return
	}

	if utf8.RuneCountInString(text) < minQueryLength {
		h.reply(ctx, msg.Chat.ID, msgSearchTooShort)
		return
	}
	h.search(ctx, userID, msg.Chat.ID, text, 1, true)
}

// HandlePage листает результаты последнего поиска.
func (h *Handlers) HandlePage(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	q := update.CallbackQuery
	if q == nil {
		return
	}
	h.answer(ctx, q)

	page, err := strconv.Atoi(strings.TrimPrefix(q.Data, cbPagePrefix))
	if err != nil {
		h.log.Warn("invalid page callback", slog.String("data", q.Data))
		return
	}
	sess, err := h.sessions.Get(ctx, q.From.ID)
	if err != nil || sess.LastQuery == "" {
		h.reply(ctx, q.From.ID, msgSearchPrompt)
		return
	}
	h.search(ctx, q.From.ID, q.From.ID, sess.LastQuery, page, false)
}

func (h *Handlers) search(ctx context.Context, userID, chatID int64, query string, page int, remember bool) {
	res, err := h.catalog.List(ctx, userID, page, query)
	if errors.Is(err, domain.ErrForbidden) {
		h.reply(ctx, chatID, msgNotActive)
		return
	}
	if err != nil {
		h.log.Error("search failed", slog.Int64("telegram_id", userID), sl.Err(err))
		h.reply(ctx, chatID, msgInternalError)
		return
	}
	if res.Total == 0 {
		h.replyMenu(ctx, chatID, noResultsText(query), keyboard(homeRow()))
		return
	}

	if remember {
		if _, err := h.sessions.Update(ctx, userID, func(s *cache.Session) {
			s.LastQuery = query
			s.Awaiting = cache.AwaitingNothing
		}); err != nil {
			h.log.Warn("failed to store last query", slog.Int64("telegram_id", userID), sl.Err(err))
		}
	}
	h.replyMenu(ctx, chatID, resultsText(query, res.Page, totalPages(res.Total)), resultsMenu(res))
}

// HandleMovie доставляет выбранный фильм.
func (h *Handlers) HandleMovie(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	q := update.CallbackQuery
	if q == nil {
		return
	}
	h.answer(ctx, q)

	id, err := strconv.ParseInt(strings.TrimPrefix(q.Data, cbMoviePrefix), 10, 64)
	if err != nil {
		h.reply(ctx, q.From.ID, msgMovieNotFound)
		return
	}

	_, err = h.catalog.Deliver(ctx, q.From.ID, id)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrForbidden):
		h.reply(ctx, q.From.ID, msgSubscriptionOff)
	case errors.Is(err, domain.ErrNotFound):
		h.reply(ctx, q.From.ID, msgMovieNotFound)
	default:
		h.log.Error("failed to deliver movie", slog.Int64("telegram_id", q.From.ID), slog.Int64("movie_id", id), sl.Err(err))
		h.reply(ctx, q.From.ID, msgDeliveryFailed)
	}
}

// HandleProfile показывает тариф и срок подписки.
func (h *Handlers) HandleProfile(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	q := update.CallbackQuery
	if q == nil {
		return
	}
	h.answer(ctx, q)

	st, err := h.access.Status(ctx, q.From.ID)
	if err != nil {
		h.log.Error("failed to load user status", slog.Int64("telegram_id", q.From.ID), sl.Err(err))
		h.reply(ctx, q.From.ID, msgInternalError)
		return
	}
	if !st.Active || st.Expiry == nil {
		h.reply(ctx, q.From.ID, msgNoProfile)
		return
	}

	markup := keyboard(
		[]models.InlineKeyboardButton{button("🎬 Buscar películas", cbSearch)},
		[]models.InlineKeyboardButton{button("🔄 Renovar suscripción", cbRenew)},
		homeRow(),
	)
	h.replyMenu(ctx, q.From.ID, profileText(st.Plan, st.Expiry.Format("02/01/2006"), h.daysLeft(st.Expiry)), markup)
}

// HandleRenew показывает выбор тарифа для продления.
func (h *Handlers) HandleRenew(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	q := update.CallbackQuery
	if q == nil {
		return
	}
	h.answer(ctx, q)
	h.replyMenu(ctx, q.From.ID, msgRenew, plansMenu(homeRow()))
}

// HandleHelp: справка.
func (h *Handlers) HandleHelp(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	q := update.CallbackQuery
	if q == nil {
		return
	}
	h.answer(ctx, q)
	h.replyMenu(ctx, q.From.ID, msgHelp, keyboard(homeRow()))
}

// HandleSuggestButton переводит сессию в ожидание текста предложения.
func (h *Handlers) HandleSuggestButton(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	q := update.CallbackQuery
	if q == nil {
		return
	}
	h.answer(ctx, q)
	h.promptSuggestion(ctx, q.From.ID, q.From.ID)
}

// HandleSuggestCommand: /sugerir <texto>; без текста ведёт себя как кнопка.
func (h *Handlers) HandleSuggestCommand(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	text := strings.TrimSpace(commandArgs(msg.Text))
	if text == "" {
		h.promptSuggestion(ctx, msg.From.ID, msg.Chat.ID)
		return
	}
	h.createSuggestion(ctx, msg.From.ID, msg.Chat.ID, text)
}

func (h *Handlers) promptSuggestion(ctx context.Context, userID, chatID int64) {
	if !h.suggestions.Enabled() {
		h.reply(ctx, chatID, msgSuggestDisabled)
		return
	}
	st, err := h.access.Status(ctx, userID)
	if err != nil {
		h.log.Error("failed to load user status", slog.Int64("telegram_id", userID), sl.Err(err))
		h.reply(ctx, chatID, msgInternalError)
		return
	}
	if !st.Active {
		h.reply(ctx, chatID, msgNotActive)
		return
	}
	if _, err := h.sessions.Update(ctx, userID, func(s *cache.Session) { s.Awaiting = cache.AwaitingSuggestion }); err != nil {
		h.log.Warn("failed to update session", slog.Int64("telegram_id", userID), sl.Err(err))
	}
	h.reply(ctx, chatID, msgSuggestPrompt)
}

func (h *Handlers) createSuggestion(ctx context.Context, userID, chatID int64, text string) {
	if _, err := h.sessions.Update(ctx, userID, func(s *cache.Session) { s.Awaiting = cache.AwaitingNothing }); err != nil {
		h.log.Warn("failed to reset session", slog.Int64("telegram_id", userID), sl.Err(err))
	}

	_, err := h.suggestions.Create(ctx, userID, text)
	switch {
	case err == nil:
		h.replyMenu(ctx, chatID, msgSuggestThanks, keyboard(homeRow()))
	case errors.Is(err, domain.ErrFeatureDisabled):
		h.reply(ctx, chatID, msgSuggestDisabled)
	case errors.Is(err, domain.ErrForbidden):
		h.reply(ctx, chatID, msgNotActive)
	case errors.Is(err, domain.ErrValidation):
		h.reply(ctx, chatID, msgSuggestEmpty)
	default:
		h.log.Error("failed to create suggestion", slog.Int64("telegram_id", userID), sl.Err(err))
		h.reply(ctx, chatID, msgInternalError)
	}
}

// HandleAddMovie: /addpelicula <título> в ответ на сообщение канала.
func (h *Handlers) HandleAddMovie(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !h.access.IsAdmin(msg.From.ID) {
		h.reply(ctx, msg.Chat.ID, msgUnauthorized)
		return
	}

	replied := msg.ReplyToMessage
	if replied == nil {
		h.reply(ctx, msg.Chat.ID, msgAddNeedsReply)
		return
	}
	if replied.Chat.ID != h.channelID {
		h.reply(ctx, msg.Chat.ID, msgAddWrongChannel)
		return
	}
	title := strings.TrimSpace(commandArgs(msg.Text))
	if title == "" {
		h.reply(ctx, msg.Chat.ID, msgAddNeedsTitle)
		return
	}

	if _, err := h.catalog.Add(ctx, msg.From.ID, title, replied.ID, h.channelID); err != nil {
		h.log.Error("failed to add movie", slog.Int64("admin_id", msg.From.ID), sl.Err(err))
		h.reply(ctx, msg.Chat.ID, msgInternalError)
		return
	}
	h.reply(ctx, msg.Chat.ID, movieAddedText(title))
}

// HandlePanel: /panel, ссылка на веб-панель для администратора.
func (h *Handlers) HandlePanel(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !h.access.IsAdmin(msg.From.ID) {
		h.reply(ctx, msg.Chat.ID, msgUnauthorized)
		return
	}
	h.reply(ctx, msg.Chat.ID, panelText(h.webAppURL))
}

// commandArgs возвращает текст после команды.
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return ""
	}
	return text[i+1:]
}

func largestPhoto(photos []models.PhotoSize) models.PhotoSize {
	best := photos[0]
	for _, p := range photos[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best
}

func displayName(u *models.User) string {
	if u.Username != "" {
		return fmt.Sprintf("%s (@%s)", u.FirstName, u.Username)
	}
	return u.FirstName
}
