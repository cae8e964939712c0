package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CromwellTrading/PelisBot/internal/cache"
	"github.com/CromwellTrading/PelisBot/internal/lib/pricing"
	domain "github.com/CromwellTrading/PelisBot/internal/models"
	"github.com/CromwellTrading/PelisBot/internal/services/access"
	"github.com/CromwellTrading/PelisBot/internal/services/payment"
)

const (
	userID    int64 = 700
	adminID   int64 = 1
	channelID int64 = -100123
)

type sent struct {
	chatID int64
	text   string
	markup models.ReplyMarkup
}

type fakeMessenger struct {
	mu       sync.Mutex
	messages []sent
	answered []string
	files    map[string][]byte
}

func (f *fakeMessenger) SendText(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sent{chatID: chatID, text: text})
	return nil
}

func (f *fakeMessenger) SendMenu(_ context.Context, chatID int64, text string, markup models.ReplyMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sent{chatID: chatID, text: text, markup: markup})
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, id)
	return nil
}

func (f *fakeMessenger) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	data, ok := f.files[fileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func (f *fakeMessenger) last() sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return sent{}
	}
	return f.messages[len(f.messages)-1]
}

type fakeSessions struct {
	mu   sync.Mutex
	data map[int64]cache.Session
}

func (f *fakeSessions) Get(_ context.Context, id int64) (cache.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[id], nil
}

func (f *fakeSessions) Update(_ context.Context, id int64, fn func(*cache.Session)) (cache.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.data[id]
	fn(&s)
	f.data[id] = s
	return s, nil
}

type AccessMock struct{ mock.Mock }

func (m *AccessMock) Status(ctx context.Context, id int64) (access.Status, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(access.Status), args.Error(1)
}

func (m *AccessMock) IsAdmin(id int64) bool {
	return id == adminID
}

type PaymentsMock struct{ mock.Mock }

func (m *PaymentsMock) Submit(ctx context.Context, req payment.SubmitRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}

type CatalogMock struct{ mock.Mock }

func (m *CatalogMock) List(ctx context.Context, caller int64, page int, search string) (*domain.MoviePage, error) {
	args := m.Called(ctx, caller, page, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MoviePage), args.Error(1)
}

func (m *CatalogMock) Deliver(ctx context.Context, caller, id int64) (*domain.Movie, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movie), args.Error(1)
}

func (m *CatalogMock) Add(ctx context.Context, admin int64, title string, messageID int, channel int64) (int64, error) {
	args := m.Called(ctx, admin, title, messageID, channel)
	return args.Get(0).(int64), args.Error(1)
}

type SuggestionsMock struct {
	mock.Mock
	enabled bool
}

func (m *SuggestionsMock) Enabled() bool { return m.enabled }

func (m *SuggestionsMock) Create(ctx context.Context, id int64, text string) (int64, error) {
	args := m.Called(ctx, id, text)
	return args.Get(0).(int64), args.Error(1)
}

type env struct {
	h        *Handlers
	msg      *fakeMessenger
	sessions *fakeSessions
	access   *AccessMock
	payments *PaymentsMock
	catalog  *CatalogMock
	sugg     *SuggestionsMock
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newEnv() *env {
	e := &env{
		msg:      &fakeMessenger{files: map[string][]byte{}},
		sessions: &fakeSessions{data: map[int64]cache.Session{}},
		access:   new(AccessMock),
		payments: new(PaymentsMock),
		catalog:  new(CatalogMock),
		sugg:     &SuggestionsMock{enabled: true},
	}
	e.h = New(e.msg, e.access, e.payments, e.catalog, e.sugg, e.sessions, pricing.New(0),
		Options{ChannelID: channelID, WebAppURL: "https://panel.example"}, newNoopLogger())
	e.h.now = func() time.Time { return now }
	return e
}

func textUpdate(from int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		ID:   1,
		From: &models.User{ID: from, FirstName: "Ana"},
		Chat: models.Chat{ID: from},
		Text: text,
	}}
}

func callback(from int64, data string) *models.Update {
	return &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:   "cb-" + data,
		From: models.User{ID: from},
		Data: data,
	}}
}

func callbackData(markup models.ReplyMarkup) []string {
	kb, ok := markup.(*models.InlineKeyboardMarkup)
	if !ok {
		return nil
	}
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			out = append(out, b.CallbackData)
		}
	}
	return out
}

func TestHandleStart(t *testing.T) {
	expiry := now.Add(10 * 24 * time.Hour)

	tests := []struct {
		name     string
		status   access.Status
		wantText string
		wantData []string
	}{
		{
			name:     "active user",
			status:   access.Status{Exists: true, Active: true, Plan: domain.PlanPremium, Expiry: &expiry},
			wantText: "Días restantes: 10",
			wantData: []string{cbSearch, cbProfile, cbSuggest, cbHelp, ""},
		},
		{
			name:     "new user",
			status:   access.Status{},
			wantText: "Clásico 200 CUP | Premium 350 CUP",
			wantData: []string{"plan_clasico", "plan_premium", cbHelp},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			e.access.On("Status", mock.Anything, userID).Return(tt.status, nil)

			e.h.HandleStart(context.Background(), nil, textUpdate(userID, "/start"))

			last := e.msg.last()
			assert.Equal(t, userID, last.chatID)
			assert.Contains(t, last.text, tt.wantText)
			assert.Equal(t, tt.wantData, callbackData(last.markup))
		})
	}
}

func TestHandlePlanAndMethod(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	e.h.HandleMethod(ctx, nil, callback(userID, "metodo_saldo"))
	assert.Equal(t, msgChoosePlanFirst, e.msg.last().text)

	e.h.HandlePlan(ctx, nil, callback(userID, "plan_premium"))
	assert.Contains(t, e.msg.last().text, "Has elegido el plan Premium")
	assert.Contains(t, e.msg.last().text, "9248-1299-7027-1730")
	assert.Equal(t, []string{"metodo_transferencia", "metodo_saldo", cbHome}, callbackData(e.msg.last().markup))

	e.h.HandleMethod(ctx, nil, callback(userID, "metodo_saldo"))
	sess, _ := e.sessions.Get(ctx, userID)
	assert.Equal(t, domain.PlanPremium, sess.Plan)
	assert.Equal(t, domain.MethodMobileBalance, sess.Method)

	e.h.HandlePlan(ctx, nil, callback(userID, "plan_oro"))
	sess, _ = e.sessions.Get(ctx, userID)
	assert.Equal(t, domain.PlanPremium, sess.Plan)

	assert.Len(t, e.msg.answered, 4)
}

func photoUpdate(from int64) *models.Update {
	u := textUpdate(from, "")
	u.Message.Photo = []models.PhotoSize{
		{FileID: "small", Width: 90, Height: 90},
		{FileID: "big", Width: 1280, Height: 960},
		{FileID: "mid", Width: 320, Height: 240},
	}
	return u
}

func TestHandlePhoto(t *testing.T) {
	ctx := context.Background()

	t.Run("without plan", func(t *testing.T) {
		e := newEnv()
		e.h.HandlePhoto(ctx, nil, photoUpdate(userID))
		assert.Equal(t, msgChoosePlanFirst, e.msg.last().text)
		e.payments.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("unknown method submitted from largest photo", func(t *testing.T) {
		e := newEnv()
		e.sessions.data[userID] = cache.Session{Plan: domain.PlanClassic}
		e.msg.files["big"] = []byte("jpeg")
		e.payments.On("Submit", mock.Anything, payment.SubmitRequest{
			UserID: userID,
			Plan:   domain.PlanClassic,
			Method: domain.MethodUnknown,
			Image:  []byte("jpeg"),
			From:   "Ana",
		}).Return(int64(5), nil).Once()

		e.h.HandlePhoto(ctx, nil, photoUpdate(userID))

		assert.Equal(t, msgRequestReceived, e.msg.last().text)
		sess, _ := e.sessions.Get(ctx, userID)
		assert.Empty(t, sess.Plan)
		e.payments.AssertExpectations(t)
	})

	t.Run("upload failure", func(t *testing.T) {
		e := newEnv()
		e.sessions.data[userID] = cache.Session{Plan: domain.PlanClassic, Method: domain.MethodBankTransfer}
		e.msg.files["big"] = []byte("jpeg")
		e.payments.On("Submit", mock.Anything, mock.Anything).Return(int64(0), domain.ErrStorage).Once()

		e.h.HandlePhoto(ctx, nil, photoUpdate(userID))

		assert.Equal(t, msgImageError, e.msg.last().text)
		sess, _ := e.sessions.Get(ctx, userID)
		assert.Equal(t, domain.PlanClassic, sess.Plan)
	})

	t.Run("download failure", func(t *testing.T) {
		e := newEnv()
		e.sessions.data[userID] = cache.Session{Plan: domain.PlanClassic}

		e.h.HandlePhoto(ctx, nil, photoUpdate(userID))

		assert.Equal(t, msgImageError, e.msg.last().text)
		e.payments.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})
}

func TestHandleText_Search(t *testing.T) {
	ctx := context.Background()
	page := &domain.MoviePage{
		Items: []*domain.Movie{{ID: 3, Title: "Alien"}, {ID: 4, Title: "Aliens"}},
		Total: 12,
		Page:  1,
	}

	t.Run("too short", func(t *testing.T) {
		e := newEnv()
		e.h.HandleText(ctx, nil, textUpdate(userID, "al"))
		assert.Equal(t, msgSearchTooShort, e.msg.last().text)
	})

	t.Run("inactive", func(t *testing.T) {
		e := newEnv()
		e.catalog.On("List", mock.Anything, userID, 1, "alien").Return(nil, domain.ErrForbidden)
		e.h.HandleText(ctx, nil, textUpdate(userID, "alien"))
		assert.Equal(t, msgNotActive, e.msg.last().text)
	})

	t.Run("no results", func(t *testing.T) {
		e := newEnv()
		e.catalog.On("List", mock.Anything, userID, 1, "zzz").Return(&domain.MoviePage{Page: 1}, nil)
		e.h.HandleText(ctx, nil, textUpdate(userID, "zzz"))
		assert.Equal(t, noResultsText("zzz"), e.msg.last().text)
	})

	t.Run("results with paging", func(t *testing.T) {
		e := newEnv()
		e.catalog.On("List", mock.Anything, userID, 1, "alien").Return(page, nil)
		e.catalog.On("List", mock.Anything, userID, 2, "alien").
			Return(&domain.MoviePage{Items: []*domain.Movie{{ID: 9, Title: "Alien 3"}}, Total: 12, Page: 2}, nil)

		e.h.HandleText(ctx, nil, textUpdate(userID, " alien "))
		last := e.msg.last()
		assert.Equal(t, resultsText("alien", 1, 2), last.text)
		assert.Equal(t, []string{"pelicula_3", "pelicula_4", "pagina_2", cbHome}, callbackData(last.markup))

		sess, _ := e.sessions.Get(ctx, userID)
		assert.Equal(t, "alien", sess.LastQuery)

		e.h.HandlePage(ctx, nil, callback(userID, "pagina_2"))
		last = e.msg.last()
		assert.Equal(t, resultsText("alien", 2, 2), last.text)
		assert.Equal(t, []string{"pelicula_9", "pagina_1", cbHome}, callbackData(last.markup))
	})
}

func TestHandleText_Suggestion(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	expiry := now.Add(time.Hour)
	e.access.On("Status", mock.Anything, userID).Return(access.Status{Active: true, Expiry: &expiry}, nil)
	e.sugg.On("Create", mock.Anything, userID, "Dune").Return(int64(1), nil).Once()

	e.h.HandleSuggestButton(ctx, nil, callback(userID, cbSuggest))
	assert.Equal(t, msgSuggestPrompt, e.msg.last().text)

	e.h.HandleText(ctx, nil, textUpdate(userID, "Dune"))
	assert.Equal(t, msgSuggestThanks, e.msg.last().text)

	sess, _ := e.sessions.Get(ctx, userID)
	assert.Equal(t, cache.AwaitingNothing, sess.Awaiting)
	e.sugg.AssertExpectations(t)
	e.catalog.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleSuggestCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("with text", func(t *testing.T) {
		e := newEnv()
		e.sugg.On("Create", mock.Anything, userID, "Matrix Resurrections").Return(int64(2), nil).Once()
		e.h.HandleSuggestCommand(ctx, nil, textUpdate(userID, "/sugerir Matrix Resurrections"))
		assert.Equal(t, msgSuggestThanks, e.msg.last().text)
	})

	t.Run("disabled", func(t *testing.T) {
		e := newEnv()
		e.sugg.enabled = false
		e.h.HandleSuggestCommand(ctx, nil, textUpdate(userID, "/sugerir"))
		assert.Equal(t, msgSuggestDisabled, e.msg.last().text)
	})
}

func TestHandleMovie(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText string
	}{
		{name: "delivered", err: nil, wantText: ""},
		{name: "inactive", err: domain.ErrForbidden, wantText: msgSubscriptionOff},
		{name: "missing", err: domain.ErrNotFound, wantText: msgMovieNotFound},
		{name: "forward failure", err: domain.ErrDelivery, wantText: msgDeliveryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			if tt.err == nil {
				e.catalog.On("Deliver", mock.Anything, userID, int64(3)).Return(&domain.Movie{ID: 3}, nil)
			} else {
				e.catalog.On("Deliver", mock.Anything, userID, int64(3)).Return(nil, tt.err)
			}

			e.h.HandleMovie(context.Background(), nil, callback(userID, "pelicula_3"))

			assert.Equal(t, tt.wantText, e.msg.last().text)
			assert.Equal(t, []string{"cb-pelicula_3"}, e.msg.answered)
		})
	}
}

func TestHandleProfile(t *testing.T) {
	ctx := context.Background()
	expiry := time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC)

	e := newEnv()
	e.access.On("Status", mock.Anything, userID).
		Return(access.Status{Exists: true, Active: true, Plan: domain.PlanClassic, Expiry: &expiry}, nil)
	e.h.HandleProfile(ctx, nil, callback(userID, cbProfile))
	assert.Equal(t, profileText(domain.PlanClassic, "11/06/2025", 10), e.msg.last().text)

	e2 := newEnv()
	e2.access.On("Status", mock.Anything, userID).Return(access.Status{}, nil)
	e2.h.HandleProfile(ctx, nil, callback(userID, cbProfile))
	assert.Equal(t, msgNoProfile, e2.msg.last().text)
}

func TestHandleAddMovie(t *testing.T) {
	ctx := context.Background()

	withReply := func(from int64, text string, chat int64) *models.Update {
		u := textUpdate(from, text)
		u.Message.ReplyToMessage = &models.Message{ID: 55, Chat: models.Chat{ID: chat}}
		return u
	}

	tests := []struct {
		name     string
		update   *models.Update
		wantText string
	}{
		{"not admin", withReply(userID, "/addpelicula Alien", channelID), msgUnauthorized},
		{"no reply", textUpdate(adminID, "/addpelicula Alien"), msgAddNeedsReply},
		{"wrong channel", withReply(adminID, "/addpelicula Alien", -999), msgAddWrongChannel},
		{"missing title", withReply(adminID, "/addpelicula   ", channelID), msgAddNeedsTitle},
		{"added", withReply(adminID, "/addpelicula Alien: El octavo pasajero", channelID), movieAddedText("Alien: El octavo pasajero")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			e.catalog.On("Add", mock.Anything, adminID, "Alien: El octavo pasajero", 55, channelID).Return(int64(1), nil).Maybe()

			e.h.HandleAddMovie(ctx, nil, tt.update)
			assert.Equal(t, tt.wantText, e.msg.last().text)
		})
	}
}

func TestHandlePanel(t *testing.T) {
	e := newEnv()
	e.h.HandlePanel(context.Background(), nil, textUpdate(userID, "/panel"))
	assert.Equal(t, msgUnauthorized, e.msg.last().text)

	e.h.HandlePanel(context.Background(), nil, textUpdate(adminID, "/panel"))
	assert.Equal(t, panelText("https://panel.example"), e.msg.last().text)
}

func TestMatchers(t *testing.T) {
	assert.True(t, isPhoto(photoUpdate(userID)))
	assert.False(t, isPhoto(textUpdate(userID, "hola")))
	assert.True(t, isFreeText(textUpdate(userID, "alien")))
	assert.False(t, isFreeText(textUpdate(userID, "/start")))
	assert.False(t, isFreeText(callback(userID, cbHelp)))
	require.Equal(t, "", commandArgs("/panel"))
	require.Equal(t, "Alien", commandArgs("/addpelicula Alien"))
}
