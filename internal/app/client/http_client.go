package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"cashcraft/internal/app/client/config"
	"cashcraft/internal/domain/ledger"
)

// Remote удаленное авторитетное хранилище снимков
type Remote interface {
	// Ping дешевая проверка доступности
	Ping(ctx context.Context) error
	// Upload отправляет изменения и возвращает отметку сервера
	Upload(ctx context.Context, token string, data *ledger.Snapshot) (ledger.Watermark, error)
	// Download возвращает тело {data, lastSyncAt, syncToken} без разбора
	Download(ctx context.Context, token string) ([]byte, error)
	// Wipe удаляет все данные пользователя на сервере
	Wipe(ctx context.Context, token string) error
}

type httpClient struct {
	client        *http.Client
	log           *slog.Logger
	baseURL       string
	userAgent     string
	healthTimeout time.Duration
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	client := &http.Client{
		Timeout: cfg.Timeout(),
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	return &httpClient{
		client:        client,
		log:           log.With(slog.String("component", "http_remote")),
		baseURL:       cfg.BaseURL(),
		userAgent:     "CashCraft-Client/1.0",
		healthTimeout: cfg.HealthTimeout(),
	}
}

// Ping проверяет доступность сервера
func (h *httpClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.healthTimeout)
	defer cancel()

	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/health", "", nil)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

type uploadRequest struct {
	Data *ledger.Snapshot `json:"data"`
}

type uploadResponse struct {
	LastSyncAt ledger.Timestamp `json:"lastSyncAt"`
	SyncToken  json.RawMessage  `json:"syncToken"`
}

func (h *httpClient) Upload(ctx context.Context, token string, data *ledger.Snapshot) (ledger.Watermark, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/sync/upload", token, uploadRequest{Data: data})
	if err != nil {
		return ledger.Watermark{}, err
	}

	var out uploadResponse
	if err := h.parseResponse(resp, &out); err != nil {
		return ledger.Watermark{}, err
	}
	return ledger.Watermark{LastSyncAt: out.LastSyncAt, SyncToken: opaqueToken(out.SyncToken)}, nil
}

func (h *httpClient) Download(ctx context.Context, token string) ([]byte, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/sync/download", token, nil)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := h.parseResponse(resp, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (h *httpClient) Wipe(ctx context.Context, token string) error {
	resp, err := h.doRequest(ctx, http.MethodDelete, "/api/v1/sync/data", token, nil)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login возвращает bearer-токен сессии
func (h *httpClient) Login(ctx context.Context, login, password string) (string, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", credentials{login, password})
	if err != nil {
		return "", err
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := h.parseResponse(resp, &loginResp); err != nil {
		return "", err
	}
	return loginResp.Token, nil
}

// Register создает пользователя и сразу возвращает токен
func (h *httpClient) Register(ctx context.Context, login, password string) (string, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", "", credentials{login, password})
	if err != nil {
		return "", err
	}

	var regResp struct {
		Token string `json:"token"`
	}
	if err := h.parseResponse(resp, &regResp); err != nil {
		return "", err
	}
	return regResp.Token, nil
}

// Logout отзывает токен на сервере
func (h *httpClient) Logout(ctx context.Context, token string) error {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

func (h *httpClient) doRequest(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	h.log.Debug("Отправка запроса", "method", method, "url", req.URL.String())

	resp, err := h.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}

	h.log.Debug("Получен ответ", "status", resp.StatusCode, "size", len(body))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrAuthExpired, errorDetail(body, resp.StatusCode))
	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: %s", ErrRemote, errorDetail(body, resp.StatusCode))
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrRemote, err)
		}
	}
	return nil
}

// errorDetail достает сообщение из тела ошибки huma
func errorDetail(body []byte, status int) string {
	var errResp struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Detail != "" {
			return errResp.Detail
		}
		if errResp.Title != "" {
			return errResp.Title
		}
	}
	return fmt.Sprintf("status %d", status)
}

func opaqueToken(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

var _ Remote = (*httpClient)(nil)
