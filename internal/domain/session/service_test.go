package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

// MockRepository мок Repository на testify
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, userID int, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockRepository) Validate(ctx context.Context, tokenHash string) (int, error) {
	args := m.Called(ctx, tokenHash)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func TestService_Create(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, time.Hour, slog.Default())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	var savedHash string
	mockRepo.On("Create", mock.Anything, 123, mock.AnythingOfType("string"), now.Add(time.Hour)).
		Run(func(args mock.Arguments) { savedHash = args.String(2) }).
		Return(nil)

	token, err := service.Create(context.Background(), 123)
	require.NoError(t, err)
	// base64 от 32 байт с паддингом
	assert.Len(t, token, 44)
	assert.Equal(t, hashToken(token), savedHash)
	assert.NotContains(t, savedHash, token)

	mockRepo.AssertExpectations(t)
}

func TestService_Create_RepositoryError(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, 0, slog.Default())
	assert.Equal(t, DefaultTTL, service.ttl)

	mockRepo.On("Create", mock.Anything, 1, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(errors.New("database error"))

	_, err := service.Create(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
}

func TestService_Validate(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		repoID   int
		repoErr  error
		callRepo bool
		wantID   int
		wantErr  error
	}{
		{name: "valid", token: "tok", repoID: 5, callRepo: true, wantID: 5},
		{name: "expired", token: "tok", repoErr: ErrInvalidSession, callRepo: true, wantErr: ErrInvalidSession},
		{name: "empty token", token: "  ", wantErr: ErrInvalidSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			service := NewService(mockRepo, time.Hour, slog.Default())
			if tt.callRepo {
				mockRepo.On("Validate", mock.Anything, hashToken(tt.token)).Return(tt.repoID, tt.repoErr)
			}

			id, err := service.Validate(context.Background(), tt.token)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestService_CreateAndValidate(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, time.Hour, slog.Default())

	var saved string
	mockRepo.On("Create", mock.Anything, 9, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) { saved = args.String(2) }).
		Return(nil)

	token, err := service.Create(context.Background(), 9)
	require.NoError(t, err)

	mockRepo.On("Validate", mock.Anything, saved).Return(9, nil)
	id, err := service.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 9, id)
}

func TestService_Revoke(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, time.Hour, slog.Default())
	mockRepo.On("Delete", mock.Anything, hashToken("tok")).Return(nil)

	require.NoError(t, service.Revoke(context.Background(), "tok"))
	mockRepo.AssertExpectations(t)
}
