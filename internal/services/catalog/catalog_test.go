package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CromwellTrading/PelisBot/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListMovies(ctx context.Context, search string, limit, offset int) ([]*models.Movie, int, error) {
	args := m.Called(ctx, search, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Movie), args.Int(1), args.Error(2)
}

func (m *RepoMock) GetMovie(ctx context.Context, id int64) (*models.Movie, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Movie), args.Error(1)
}

func (m *RepoMock) CreateMovie(ctx context.Context, mv models.Movie) (int64, error) {
	args := m.Called(ctx, mv)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) UpdateMovie(ctx context.Context, id int64, title string, messageID int) error {
	return m.Called(ctx, id, title, messageID).Error(0)
}

func (m *RepoMock) DeleteMovie(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type AccessMock struct{ mock.Mock }

func (m *AccessMock) RequireActive(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *AccessMock) RequireAdmin(id int64) error {
	return m.Called(id).Error(0)
}

type ForwarderMock struct{ mock.Mock }

func (m *ForwarderMock) Forward(ctx context.Context, chatID, fromChatID int64, messageID int, protect bool) error {
	return m.Called(ctx, chatID, fromChatID, messageID, protect).Error(0)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Notify(ctx context.Context, chatID int64, text string) error {
	return m.Called(ctx, chatID, text).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const channel int64 = -100123

type deps struct {
	repo *RepoMock
	acc  *AccessMock
	fwd  *ForwarderMock
	ntf  *NotifierMock
}

func newDeps() deps {
	d := deps{new(RepoMock), new(AccessMock), new(ForwarderMock), new(NotifierMock)}
	d.acc.On("RequireAdmin", int64(1)).Return(nil).Maybe()
	d.acc.On("RequireAdmin", mock.Anything).Return(models.ErrUnauthorized).Maybe()
	return d
}

func (d deps) service() *Service {
	return New(d.repo, d.acc, d.fwd, d.ntf, channel, newNoopLogger())
}

func TestService_List(t *testing.T) {
	movies := []*models.Movie{{ID: 1, Title: "Alien"}, {ID: 2, Title: "Aliens"}}

	tests := []struct {
		name       string
		page       int
		search     string
		setupMocks func(d deps)
		wantPage   int
		wantErr    error
	}{
		{
			name:   "first page with trimmed search",
			page:   1,
			search: "  ali ",
			setupMocks: func(d deps) {
				d.acc.On("RequireActive", mock.Anything, int64(7)).Return(&models.User{TelegramID: 7}, nil)
				d.repo.On("ListMovies", mock.Anything, "ali", 10, 0).Return(movies, 2, nil)
			},
			wantPage: 1,
		},
		{
			name: "page below one treated as first",
			page: -3,
			setupMocks: func(d deps) {
				d.acc.On("RequireActive", mock.Anything, int64(7)).Return(&models.User{TelegramID: 7}, nil)
				d.repo.On("ListMovies", mock.Anything, "", 10, 0).Return(movies, 2, nil)
			},
			wantPage: 1,
		},
		{
			name: "third page offset",
			page: 3,
			setupMocks: func(d deps) {
				d.acc.On("RequireActive", mock.Anything, int64(7)).Return(&models.User{TelegramID: 7}, nil)
				d.repo.On("ListMovies", mock.Anything, "", 10, 20).Return([]*models.Movie{}, 2, nil)
			},
			wantPage: 3,
		},
		{
			name: "inactive caller",
			page: 1,
			setupMocks: func(d deps) {
				d.acc.On("RequireActive", mock.Anything, int64(7)).Return(nil, models.ErrForbidden)
			},
			wantErr: models.ErrForbidden,
		},
		{
			name: "storage failure",
			page: 1,
			setupMocks: func(d deps) {
				d.acc.On("RequireActive", mock.Anything, int64(7)).Return(&models.User{TelegramID: 7}, nil)
				d.repo.On("ListMovies", mock.Anything, "", 10, 0).Return(nil, 0, errors.New("boom"))
			},
			wantErr: models.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps()
			tt.setupMocks(d)

			got, err := d.service().List(context.Background(), 7, tt.page, tt.search)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, 2, got.Total)
			d.repo.AssertExpectations(t)
		})
	}
}

func TestService_AdminList(t *testing.T) {
	d := newDeps()
	d.repo.On("ListMovies", mock.Anything, "x", 10, 10).Return([]*models.Movie{}, 11, nil)

	got, err := d.service().AdminList(context.Background(), 1, 2, "x")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Page)

	_, err = d.service().AdminList(context.Background(), 2, 1, "")
	require.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestService_Deliver(t *testing.T) {
	movie := &models.Movie{ID: 4, Title: "Alien", MessageID: 55, ChannelID: channel}

	tests := []struct {
		name       string
		setupMocks func(d deps)
		wantErr    error
	}{
		{
			name: "classic plan gets protected forward and notice",
			setupMocks: func(d deps) {
				d.acc.On("RequireActive", mock.Anything, int64(7)).Return(&models.User{Plan: models.PlanClassic}, nil)
				d.repo.On("GetMovie", mock.Anything, int64(4)).Return(movie, nil)
				d.fwd.On("Forward", mock.Anything, int64(7), channel, 55, true).Return(nil).Once()
				d.ntf.On("Notify", mock.Anything, int64(7), ProtectionNotice).Return(nil).Once()
			},
		},
		{
			name: "premium plan gets unprotected forward without notice",
			setupMocks: func(d deps) {
				d.acc.On("RequireActive", mock.Anything, int64(7)).Return(&models.User{Plan: models.PlanPremium}, nil)
				d.repo.On("GetMovie", mock.Anything, int64(4)).Return(movie, nil)
				d.fwd.On("Forward", mock.Anything, int64(7), channel, 55, false).Return(nil).Once()
			},
		},
		{
			name: "notice failure ignored",
			setupMocks: func(d deps) {
				d.acc.On("RequireActive", mock.Anything, int64(7)).Return(&models.User{Plan: models.PlanClassic}, nil)
				d.repo.On("GetMovie", mock.Anything, int64(4)).Return(movie, nil)
				d.fwd.On("Forward", mock.Anything, int64(7), channel, 55, true).Return(nil).Once()
				d.ntf.On("Notify", mock.Anything, int64(7), ProtectionNotice).Return(errors.New("blocked")).Once()
			},
		},
		{
			name: "inactive",
			setupMocks: func(d deps) {
				d.acc.On("RequireActive", mock.Anything, int64(7)).Return(nil, models.ErrForbidden)
			},
			wantErr: models.ErrForbidden,
		},
		{
			name: "missing movie",
			setupMocks: func(d deps) {
				d.acc.On("RequireActive", mock.Anything, int64(7)).Return(&models.User{Plan: models.PlanClassic}, nil)
				d.repo.On("GetMovie", mock.Anything, int64(4)).Return(nil, models.ErrNotFound)
			},
			wantErr: models.ErrNotFound,
		},
		{
			name: "forward failure",
			setupMocks: func(d deps) {
				d.acc.On("RequireActive", mock.Anything, int64(7)).Return(&models.User{Plan: models.PlanClassic}, nil)
				d.repo.On("GetMovie", mock.Anything, int64(4)).Return(movie, nil)
				d.fwd.On("Forward", mock.Anything, int64(7), channel, 55, true).Return(errors.New("message not found")).Once()
			},
			wantErr: models.ErrDelivery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps()
			tt.setupMocks(d)

			got, err := d.service().Deliver(context.Background(), 7, 4)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				d.ntf.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Alien", got.Title)
			d.fwd.AssertExpectations(t)
			d.ntf.AssertExpectations(t)
		})
	}
}

func TestService_Add(t *testing.T) {
	t.Run("defaults channel", func(t *testing.T) {
		d := newDeps()
		d.repo.On("CreateMovie", mock.Anything, models.Movie{Title: "Alien", MessageID: 55, ChannelID: channel}).
			Return(int64(10), nil).Once()

		id, err := d.service().Add(context.Background(), 1, " Alien ", 55, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(10), id)
	})

	t.Run("explicit channel", func(t *testing.T) {
		d := newDeps()
		d.repo.On("CreateMovie", mock.Anything, models.Movie{Title: "Alien", MessageID: 55, ChannelID: -42}).
			Return(int64(11), nil).Once()

		_, err := d.service().Add(context.Background(), 1, "Alien", 55, -42)
		require.NoError(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		d := newDeps()
		_, err := d.service().Add(context.Background(), 1, "  ", 55, 0)
		require.ErrorIs(t, err, models.ErrValidation)
		_, err = d.service().Add(context.Background(), 1, "Alien", 0, 0)
		require.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("non admin", func(t *testing.T) {
		d := newDeps()
		_, err := d.service().Add(context.Background(), 5, "Alien", 55, 0)
		require.ErrorIs(t, err, models.ErrUnauthorized)
		d.repo.AssertNotCalled(t, "CreateMovie", mock.Anything, mock.Anything)
	})

	t.Run("persistence failure", func(t *testing.T) {
		d := newDeps()
		d.repo.On("CreateMovie", mock.Anything, mock.Anything).Return(int64(0), errors.New("boom")).Once()
		_, err := d.service().Add(context.Background(), 1, "Alien", 55, 0)
		require.ErrorIs(t, err, models.ErrPersistence)
	})
}

func TestService_UpdateDelete(t *testing.T) {
	d := newDeps()
	d.repo.On("UpdateMovie", mock.Anything, int64(3), "New", 9).Return(nil).Once()
	d.repo.On("UpdateMovie", mock.Anything, int64(4), "New", 9).Return(models.ErrNotFound).Once()
	d.repo.On("DeleteMovie", mock.Anything, int64(3)).Return(nil).Once()
	d.repo.On("DeleteMovie", mock.Anything, int64(4)).Return(errors.New("boom")).Once()
	s := d.service()

	require.NoError(t, s.Update(context.Background(), 1, 3, "New", 9))
	require.ErrorIs(t, s.Update(context.Background(), 1, 4, "New", 9), models.ErrNotFound)
	require.ErrorIs(t, s.Update(context.Background(), 1, 3, "", 9), models.ErrValidation)
	require.ErrorIs(t, s.Update(context.Background(), 2, 3, "New", 9), models.ErrUnauthorized)

	require.NoError(t, s.Delete(context.Background(), 1, 3))
	require.ErrorIs(t, s.Delete(context.Background(), 1, 4), models.ErrPersistence)
	require.ErrorIs(t, s.Delete(context.Background(), 2, 3), models.ErrUnauthorized)
	d.repo.AssertExpectations(t)
}
