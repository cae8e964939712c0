package payment

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CromwellTrading/PelisBot/internal/models"
)

var (
	pngImage  = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	jpegImage = append([]byte{0xff, 0xd8, 0xff, 0xe0}, make([]byte, 32)...)
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreatePaymentRequest(ctx context.Context, req models.PaymentRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) ListPendingRequests(ctx context.Context) ([]*models.PaymentRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentRequest), args.Error(1)
}

type UploaderMock struct{ mock.Mock }

func (m *UploaderMock) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Notify(ctx context.Context, chatID int64, text string) error {
	return m.Called(ctx, chatID, text).Error(0)
}

type AccessMock struct{ mock.Mock }

func (m *AccessMock) RequireAdmin(id int64) error {
	return m.Called(id).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_Submit(t *testing.T) {
	tests := []struct {
		name       string
		req        SubmitRequest
		setupMocks func(r *RepoMock, u *UploaderMock, n *NotifierMock)
		wantID     int64
		wantErr    error
	}{
		{
			name: "success",
			req:  SubmitRequest{UserID: 42, Plan: models.PlanPremium, Method: models.MethodBankTransfer, Image: pngImage},
			setupMocks: func(r *RepoMock, u *UploaderMock, n *NotifierMock) {
				u.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
					return len(key) > len("42_premium_.jpg") && key[:11] == "42_premium_" && key[len(key)-4:] == ".jpg"
				}), "image/png", pngImage).Return("https://cdn/capturas/42.jpg", nil).Once()
				r.On("CreatePaymentRequest", mock.Anything, models.PaymentRequest{
					TelegramID: 42,
					Plan:       models.PlanPremium,
					Method:     models.MethodBankTransfer,
					ProofURL:   "https://cdn/capturas/42.jpg",
					Status:     models.StatusPending,
				}).Return(int64(7), nil).Once()
				n.On("Notify", mock.Anything, int64(1), mock.AnythingOfType("string")).Return(nil).Once()
				n.On("Notify", mock.Anything, int64(2), mock.AnythingOfType("string")).Return(errors.New("blocked")).Once()
			},
			wantID: 7,
		},
		{
			name: "unknown method from chat",
			req:  SubmitRequest{UserID: 42, Plan: models.PlanClassic, Method: models.MethodUnknown, Image: jpegImage},
			setupMocks: func(r *RepoMock, u *UploaderMock, n *NotifierMock) {
				u.On("Upload", mock.Anything, mock.Anything, "image/jpeg", jpegImage).Return("u", nil).Once()
				r.On("CreatePaymentRequest", mock.Anything, mock.Anything).Return(int64(8), nil).Once()
				n.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			},
			wantID: 8,
		},
		{
			name:       "missing plan",
			req:        SubmitRequest{UserID: 42, Method: models.MethodBankTransfer, Image: pngImage},
			setupMocks: func(_ *RepoMock, _ *UploaderMock, _ *NotifierMock) {},
			wantErr:    models.ErrValidation,
		},
		{
			name:       "missing method",
			req:        SubmitRequest{UserID: 42, Plan: models.PlanClassic, Image: pngImage},
			setupMocks: func(_ *RepoMock, _ *UploaderMock, _ *NotifierMock) {},
			wantErr:    models.ErrValidation,
		},
		{
			name:       "missing image",
			req:        SubmitRequest{UserID: 42, Plan: models.PlanClassic, Method: models.MethodMobileBalance},
			setupMocks: func(_ *RepoMock, _ *UploaderMock, _ *NotifierMock) {},
			wantErr:    models.ErrValidation,
		},
		{
			name:       "not an image",
			req:        SubmitRequest{UserID: 42, Plan: models.PlanClassic, Method: models.MethodMobileBalance, Image: []byte("hello world")},
			setupMocks: func(_ *RepoMock, _ *UploaderMock, _ *NotifierMock) {},
			wantErr:    models.ErrValidation,
		},
		{
			name: "upload failure writes nothing",
			req:  SubmitRequest{UserID: 42, Plan: models.PlanClassic, Method: models.MethodMobileBalance, Image: pngImage},
			setupMocks: func(_ *RepoMock, u *UploaderMock, _ *NotifierMock) {
				u.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("s3 down")).Once()
			},
			wantErr: models.ErrStorage,
		},
		{
			name: "insert failure after upload",
			req:  SubmitRequest{UserID: 42, Plan: models.PlanClassic, Method: models.MethodMobileBalance, Image: pngImage},
			setupMocks: func(r *RepoMock, u *UploaderMock, _ *NotifierMock) {
				u.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("u", nil).Once()
				r.On("CreatePaymentRequest", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down")).Once()
			},
			wantErr: models.ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, up, n := new(RepoMock), new(UploaderMock), new(NotifierMock)
			tt.setupMocks(repo, up, n)

			s := New(repo, up, n, new(AccessMock), []int64{1, 2}, "https://panel", newNoopLogger())
			id, err := s.Submit(context.Background(), tt.req)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "ListPendingRequests", mock.Anything)
				if errors.Is(tt.wantErr, models.ErrValidation) {
					up.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
					repo.AssertNotCalled(t, "CreatePaymentRequest", mock.Anything, mock.Anything)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			repo.AssertExpectations(t)
			up.AssertExpectations(t)
			n.AssertExpectations(t)
		})
	}
}

func TestService_Pending(t *testing.T) {
	repo, acc := new(RepoMock), new(AccessMock)
	acc.On("RequireAdmin", int64(1)).Return(nil)
	acc.On("RequireAdmin", int64(2)).Return(models.ErrUnauthorized)
	repo.On("ListPendingRequests", mock.Anything).Return([]*models.PaymentRequest{{ID: 3}}, nil).Once()

	s := New(repo, new(UploaderMock), new(NotifierMock), acc, nil, "", newNoopLogger())

	got, err := s.Pending(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)

	_, err = s.Pending(context.Background(), 2)
	require.ErrorIs(t, err, models.ErrUnauthorized)
	repo.AssertExpectations(t)
}

func TestDecodeDataURL(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngImage)

	tests := []struct {
		name    string
		in      string
		want    []byte
		wantErr bool
	}{
		{name: "data url", in: fmt.Sprintf("data:image/png;base64,%s", encoded), want: pngImage},
		{name: "bare base64", in: encoded, want: pngImage},
		{name: "empty", in: "", wantErr: true},
		{name: "not base64 encoded", in: "data:image/png," + encoded, wantErr: true},
		{name: "not an image mime", in: "data:text/plain;base64," + encoded, wantErr: true},
		{name: "garbage", in: "data:image/png;base64,!!!", wantErr: true},
		{name: "empty payload", in: "data:image/png;base64,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDataURL(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, models.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
