package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"cashcraft/internal/app/server/config"
	"cashcraft/internal/domain/session"
	"cashcraft/internal/domain/sync"
	"cashcraft/internal/domain/user"
)

type memUsers struct {
	mu    gosync.Mutex
	users map[string]user.User
}

func (m *memUsers) Create(_ context.Context, login, hash string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[login]; ok {
		return 0, user.ErrAlreadyExists
	}
	id := len(m.users) + 1
	m.users[login] = user.User{ID: id, Login: login, Password: hash}
	return id, nil
}

func (m *memUsers) FindByLogin(_ context.Context, login string) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[login]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

type memSessions struct {
	mu       gosync.Mutex
	sessions map[string]int
}

func (m *memSessions) Create(_ context.Context, userID int, hash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[hash] = userID
	return nil
}

func (m *memSessions) Validate(_ context.Context, hash string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.sessions[hash]
	if !ok {
		return 0, session.ErrInvalidSession
	}
	return id, nil
}

func (m *memSessions) Delete(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, hash)
	return nil
}

type memSnapshots struct {
	mu   gosync.Mutex
	rows map[int]sync.Stored
}

func (m *memSnapshots) Get(_ context.Context, userID int) (*sync.Stored, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[userID]
	if !ok {
		return nil, sync.ErrSnapshotNotFound
	}
	return &s, nil
}

func (m *memSnapshots) Update(_ context.Context, userID int, fn sync.UpdateFunc) (*sync.Stored, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.rows[userID]
	cur.UserID = userID
	next, err := fn(&cur)
	if err != nil {
		return nil, err
	}
	m.rows[userID] = *next
	return next, nil
}

func (m *memSnapshots) Delete(_ context.Context, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, userID)
	return nil
}

func newTestAPI(t *testing.T) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	cfg := &config.Config{
		Server:  config.Server{MaxBodyBytes: 1 << 20},
		Session: config.Session{TTL: time.Hour},
	}
	Register(api, Deps{
		Users:    &memUsers{users: map[string]user.User{}},
		Sessions: &memSessions{sessions: map[string]int{}},
		Snapshot: &memSnapshots{rows: map[int]sync.Stored{}},
	}, cfg, slog.Default())
	return api
}

func register(t *testing.T, api humatest.TestAPI, login string) string {
	t.Helper()
	resp := api.Post("/api/v1/auth/register", map[string]string{"login": login, "password": "Secret#123"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return "Authorization: Bearer " + out.Token
}

type downloaded struct {
	Data struct {
		Transactions []struct {
			ID     string          `json:"id"`
			Amount decimal.Decimal `json:"amount"`
		} `json:"transactions"`
	} `json:"data"`
	LastSyncAt *string `json:"lastSyncAt"`
	SyncToken  string  `json:"syncToken"`
}

func download(t *testing.T, api humatest.TestAPI, authz string) downloaded {
	t.Helper()
	resp := api.Get("/api/v1/sync/download", authz)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var out downloaded
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func TestAPI_UploadDownloadWipe(t *testing.T) {
	api := newTestAPI(t)
	alice := register(t, api, "alice")
	bob := register(t, api, "bob")

	empty := download(t, api, alice)
	assert.Nil(t, empty.LastSyncAt)
	assert.Empty(t, empty.SyncToken)

	first := `{"data":{"accounts":[{"id":"a1","name":"Wallet","balance":0}],
		"transactions":[{"id":"t1","accountId":"a1","amount":50,"type":"expense","date":"2024-03-01","updatedAt":"2024-03-01T10:00:00Z"}],
		"categories":[],"debts":[],"exchangeRates":[]}}`
	resp := api.Post("/api/v1/sync/upload", alice, strings.NewReader(first))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	newer := `{"data":{"accounts":[],
		"transactions":[{"id":"t1","accountId":"a1","amount":75,"type":"expense","date":"2024-03-01","updatedAt":"2024-03-02T10:00:00Z"}],
		"categories":[],"debts":[],"exchangeRates":[]}}`
	resp = api.Post("/api/v1/sync/upload", alice, strings.NewReader(newer))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	stale := `{"data":{"accounts":[],
		"transactions":[{"id":"t1","accountId":"a1","amount":10,"type":"expense","date":"2024-03-01","updatedAt":"2024-03-01T12:00:00Z"}],
		"categories":[],"debts":[],"exchangeRates":[]}}`
	resp = api.Post("/api/v1/sync/upload", alice, strings.NewReader(stale))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	got := download(t, api, alice)
	require.Len(t, got.Data.Transactions, 1)
	assert.Equal(t, "75", got.Data.Transactions[0].Amount.String())
	assert.Equal(t, "3", got.SyncToken)
	assert.NotNil(t, got.LastSyncAt)

	assert.Empty(t, download(t, api, bob).Data.Transactions)

	resp = api.Post("/api/v1/sync/upload", alice, strings.NewReader(`{"data":{"accounts":"oops"}}`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = api.Delete("/api/v1/sync/data", alice)
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, download(t, api, alice).Data.Transactions)
}

func TestAPI_Auth(t *testing.T) {
	api := newTestAPI(t)
	alice := register(t, api, "alice")

	resp := api.Post("/api/v1/auth/register", map[string]string{"login": "alice", "password": "Secret#123"})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = api.Post("/api/v1/auth/register", map[string]string{"login": "al", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = api.Post("/api/v1/auth/login", map[string]string{"login": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = api.Post("/api/v1/auth/login", map[string]string{"login": "alice", "password": "Secret#123"})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = api.Post("/api/v1/auth/logout", alice)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = api.Get("/api/v1/sync/download", alice)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
