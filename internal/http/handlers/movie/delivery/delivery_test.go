package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/CromwellTrading/PelisBot/internal/http/middlewarectx"
	"github.com/CromwellTrading/PelisBot/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Deliver(ctx context.Context, callerID, movieID int64) (*models.Movie, error) {
	args := m.Called(ctx, callerID, movieID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Movie), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestDeliveryHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{"delivered", nil, http.StatusOK, `{"success":true}`},
		{"not found", fmt.Errorf("op: %w", models.ErrNotFound), http.StatusNotFound, `{"status":"Error","error":"not found"}`},
		{"forward failed", fmt.Errorf("op: %w", models.ErrDelivery), http.StatusInternalServerError, `{"status":"Error","error":"delivery failed"}`},
		{"inactive", models.ErrForbidden, http.StatusForbidden, `{"status":"Error","error":"subscription is not active"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.err != nil {
				svc.On("Deliver", mock.Anything, int64(100), int64(3)).Return(nil, tt.err).Once()
			} else {
				svc.On("Deliver", mock.Anything, int64(100), int64(3)).Return(&models.Movie{ID: 3}, nil).Once()
			}
			h := New(newNoopLogger(), svc, middlewarectx.NewCallerResolver(false, newNoopLogger()))

			body, _ := json.Marshal(Request{TelegramID: 100, MovieID: 3})
			req := httptest.NewRequest(http.MethodPost, "/api/request-movie", bytes.NewReader(body))
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.Caller, int64(100)))
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
