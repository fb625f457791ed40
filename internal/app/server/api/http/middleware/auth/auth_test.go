package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"

	"cashcraft/internal/domain/session"
)

type MockSession struct {
	mock.Mock
}

func (m *MockSession) Create(ctx context.Context, userID int) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockSession) Validate(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

func (m *MockSession) Revoke(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type whoamiOutput struct {
	Body struct {
		UserID int    `json:"userId"`
		Token  string `json:"token"`
	}
}

func TestAuth_Middleware(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		validateErr error
		callsRepo   bool
		wantStatus  int
	}{
		{name: "valid token", header: "Authorization: Bearer abc", callsRepo: true, wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "Authorization: bearer abc", callsRepo: true, wantStatus: http.StatusOK},
		{name: "no header", header: "Accept: application/json", wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Authorization: Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "basic scheme", header: "Authorization: Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Authorization: Bearer abc", callsRepo: true, validateErr: session.ErrInvalidSession, wantStatus: http.StatusUnauthorized},
		{name: "storage failure", header: "Authorization: Bearer abc", callsRepo: true, validateErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := new(MockSession)
			if tt.callsRepo {
				ms.On("Validate", mock.Anything, "abc").Return(42, tt.validateErr)
			}

			_, api := humatest.New(t)
			a := New(api, ms, slog.Default())
			huma.Register(api, huma.Operation{
				OperationID: "whoami",
				Method:      http.MethodGet,
				Path:        "/whoami",
				Middlewares: huma.Middlewares{a.Middleware()},
			}, func(ctx context.Context, _ *struct{}) (*whoamiOutput, error) {
				out := &whoamiOutput{}
				out.Body.UserID, _ = GetUserID(ctx)
				out.Body.Token, _ = GetToken(ctx)
				return out, nil
			})

			resp := api.Get("/whoami", tt.header)
			assert.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, resp.Body.String(), `"userId":42`)
				assert.Contains(t, resp.Body.String(), `"token":"abc"`)
			}
			ms.AssertExpectations(t)
		})
	}
}

func TestGetUserID(t *testing.T) {
	_, ok := GetUserID(context.Background())
	assert.False(t, ok)

	id, ok := GetUserID(WithUserID(context.Background(), 9))
	assert.True(t, ok)
	assert.Equal(t, 9, id)
}
