package sender

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CromwellTrading/PelisBot/internal/telegram"
)

type TransportMock struct{ mock.Mock }

func (m *TransportMock) Notify(ctx context.Context, chatID int64, text string) error {
	return m.Called(ctx, chatID, text).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_Handle(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMocks func(m *TransportMock)
		wantErr    bool
	}{
		{
			name: "delivered",
			body: `{"chat_id":7,"text":"hola"}`,
			setupMocks: func(m *TransportMock) {
				m.On("Notify", mock.Anything, int64(7), "hola").Return(nil).Once()
			},
		},
		{
			name:       "malformed body acked",
			body:       `{"chat_id":`,
			setupMocks: func(_ *TransportMock) {},
		},
		{
			name:       "empty notification acked",
			body:       `{"chat_id":0,"text":""}`,
			setupMocks: func(_ *TransportMock) {},
		},
		{
			name: "blocked user acked",
			body: `{"chat_id":7,"text":"hola"}`,
			setupMocks: func(m *TransportMock) {
				m.On("Notify", mock.Anything, int64(7), "hola").
					Return(fmt.Errorf("send: %w", telegram.ErrPermanent)).Once()
			},
		},
		{
			name: "transient failure requeued",
			body: `{"chat_id":7,"text":"hola"}`,
			setupMocks: func(m *TransportMock) {
				m.On("Notify", mock.Anything, int64(7), "hola").Return(errors.New("timeout")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := new(TransportMock)
			tt.setupMocks(tr)

			err := New(tr, newNoopLogger()).Handle(context.Background(), []byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			tr.AssertExpectations(t)
		})
	}
}
