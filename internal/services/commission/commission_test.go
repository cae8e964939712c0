package commission

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CromwellTrading/PelisBot/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CountUsers(ctx context.Context, now time.Time) (int, int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *RepoMock) CountPendingRequests(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) GetOpenLedger(ctx context.Context, adminID int64) (*models.CommissionLedger, error) {
	args := m.Called(ctx, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommissionLedger), args.Error(1)
}

func (m *RepoMock) CollectLedger(ctx context.Context, adminID int64, at time.Time) (*models.CommissionLedger, error) {
	args := m.Called(ctx, adminID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommissionLedger), args.Error(1)
}

type admins []int64

func (a admins) RequireAdmin(id int64) error {
	for _, v := range a {
		if v == id {
			return nil
		}
	}
	return models.ErrUnauthorized
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newService(repo *RepoMock, enabled bool) *Service {
	s := New(repo, admins{1, 2}, 1, enabled, newNoopLogger())
	s.now = func() time.Time { return now }
	return s
}

func TestService_Stats(t *testing.T) {
	ledger := &models.CommissionLedger{ID: 4, AdminID: 1, BankTransferTotal: 550, MobileBalanceTotal: 120}

	tests := []struct {
		name       string
		adminID    int64
		setupMocks func(r *RepoMock)
		want       *models.Stats
		wantErr    error
	}{
		{
			name:    "with open ledger",
			adminID: 2,
			setupMocks: func(r *RepoMock) {
				r.On("CountUsers", mock.Anything, now).Return(10, 6, nil)
				r.On("CountPendingRequests", mock.Anything).Return(3, nil)
				r.On("GetOpenLedger", mock.Anything, int64(1)).Return(ledger, nil)
			},
			want: &models.Stats{TotalUsers: 10, ActiveUsers: 6, PendingRequests: 3, Ledger: ledger},
		},
		{
			name:    "no open ledger",
			adminID: 1,
			setupMocks: func(r *RepoMock) {
				r.On("CountUsers", mock.Anything, now).Return(0, 0, nil)
				r.On("CountPendingRequests", mock.Anything).Return(0, nil)
				r.On("GetOpenLedger", mock.Anything, int64(1)).Return(nil, models.ErrNotFound)
			},
			want: &models.Stats{},
		},
		{
			name:       "non admin",
			adminID:    9,
			setupMocks: func(_ *RepoMock) {},
			wantErr:    models.ErrUnauthorized,
		},
		{
			name:    "storage failure",
			adminID: 1,
			setupMocks: func(r *RepoMock) {
				r.On("CountUsers", mock.Anything, now).Return(0, 0, errors.New("boom"))
			},
			wantErr: models.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			got, err := newService(repo, true).Stats(context.Background(), tt.adminID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Collect(t *testing.T) {
	collected := &models.CommissionLedger{ID: 4, AdminID: 1, BankTransferTotal: 200, Collected: true, CollectedAt: &now}

	repo := new(RepoMock)
	repo.On("CollectLedger", mock.Anything, int64(1), now).Return(collected, nil).Once()
	repo.On("CollectLedger", mock.Anything, int64(1), now).Return(nil, models.ErrNotFound).Once()
	s := newService(repo, true)

	got, err := s.Collect(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, got.Collected)
	assert.Equal(t, 200, got.Total())

	_, err = s.Collect(context.Background(), 2)
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.Collect(context.Background(), 9)
	require.ErrorIs(t, err, models.ErrUnauthorized)
	repo.AssertExpectations(t)
}

func TestService_Disabled(t *testing.T) {
	repo := new(RepoMock)
	repo.On("CountUsers", mock.Anything, now).Return(5, 2, nil)
	repo.On("CountPendingRequests", mock.Anything).Return(1, nil)
	s := newService(repo, false)

	stats, err := s.Stats(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, stats.Ledger)
	assert.Equal(t, 5, stats.TotalUsers)
	repo.AssertNotCalled(t, "GetOpenLedger", mock.Anything, mock.Anything)

	_, err = s.Collect(context.Background(), 1)
	require.ErrorIs(t, err, models.ErrFeatureDisabled)
	repo.AssertNotCalled(t, "CollectLedger", mock.Anything, mock.Anything, mock.Anything)
}
