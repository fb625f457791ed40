package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"cashcraft/internal/app/client/config"
	"cashcraft/internal/domain/ledger"
)

const (
	offlineUserID = "local"
	offlineToken  = "offline"
)

type App struct {
	config      *config.Config
	log         *slog.Logger
	httpClient  *httpClient
	storage     *SQLiteStorage
	syncService *SyncService
	state       *AppState
	cancel      context.CancelFunc
	mu          sync.RWMutex
}

// AppState хранит состояние приложения между запусками
type AppState struct {
	UserLogin string    `json:"user_login"`
	LastLogin time.Time `json:"last_login,omitempty"`
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	state, err := loadAppState(cfg)
	if err != nil {
		log.Warn("Не удалось загрузить состояние приложения", "error", err)
		state = &AppState{}
	}

	storage, err := NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("локальное хранилище %s: %w", cfg.DatabasePath, err)
	}

	app := &App{
		config:  cfg,
		log:     log,
		storage: storage,
		state:   state,
	}

	var remote Remote
	if cfg.OfflineMode {
		remote = NewOfflineRemote(cfg.OfflineSnapshot, log)
	} else {
		app.httpClient = NewHTTPClient(cfg, log)
		remote = app.httpClient
	}

	app.syncService = NewSyncService(storage, remote, NewFallbackCache(cfg.CachePath), log, SyncOptions{
		DefaultCurrency: cfg.DefaultCurrency,
		DownloadOnTick:  cfg.DownloadOnTick,
	})

	return app, nil
}

// Init готовит локальное хранилище и применяет отложенный снимок, если он есть
func (a *App) Init(ctx context.Context) error {
	if err := a.storage.Init(ctx); err != nil {
		return fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	userID, _, err := a.Credential()
	if err != nil {
		userID = a.state.UserLogin
	}
	res, err := a.syncService.ReplayCached(ctx, userID)
	switch {
	case err != nil:
		a.log.Warn("Не удалось применить отложенный снимок", "error", err)
	case res.Applied:
		a.log.Info("Отложенный снимок применен", "imported", res.Imported)
	}
	return nil
}

// Close закрывает локальное хранилище
func (a *App) Close() error {
	return a.storage.Close()
}

func loadAppState(cfg *config.Config) (*AppState, error) {
	data, err := os.ReadFile(cfg.StatePath)
	if errors.Is(err, os.ErrNotExist) {
		return &AppState{}, nil
	}
	if err != nil {
		return nil, err
	}

	var state AppState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (a *App) saveAppState() error {
	data, err := json.MarshalIndent(a.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(a.config.StatePath, data, 0600)
}

// Run запускает автосинхронизацию и ждет сигнала завершения
func (a *App) Run(ctx context.Context) error {
	userID, token, err := a.Credential()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.handleSignals(gctx)
		cancel()
		return nil
	})

	a.syncService.StartAutoSync(gctx, userID, token, a.config.Interval())
	g.Go(func() error {
		a.syncService.Wait()
		cancel()
		return nil
	})

	a.log.Info("Клиент запущен",
		"server", a.config.ServerAddress,
		"offline", a.config.OfflineMode,
		"interval", a.config.Interval().String(),
	)

	return g.Wait()
}

func (a *App) handleSignals(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.log.Info("Получен сигнал завершения", "signal", sig.String())
	case <-ctx.Done():
	}
}

func (a *App) Shutdown() {
	a.log.Info("Завершение работы клиента...")
	if a.cancel != nil {
		a.cancel()
	}
	a.syncService.Wait()
	a.log.Info("Клиент завершил работу")
}

// Credential возвращает пользователя и токен; в офлайн-режиме токен не нужен
func (a *App) Credential() (string, string, error) {
	if a.config.OfflineMode {
		return offlineUserID, offlineToken, nil
	}

	a.mu.RLock()
	login := a.state.UserLogin
	a.mu.RUnlock()

	token, err := a.GetToken()
	if err != nil {
		return "", "", err
	}
	return login, token, nil
}

// GetToken возвращает сохраненный токен
func (a *App) GetToken() (string, error) {
	tokenBytes, err := os.ReadFile(a.config.TokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("ошибка чтения токена: %w", err)
	}
	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		return "", ErrNoCredential
	}
	return token, nil
}

// SaveToken сохраняет токен аутентификации
func (a *App) SaveToken(token string) error {
	if err := os.WriteFile(a.config.TokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}
	return nil
}

// ClearToken удаляет токен
func (a *App) ClearToken() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.Remove(a.config.TokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления токена: %w", err)
	}
	a.state.UserLogin = ""
	return a.saveAppState()
}

// Register регистрирует пользователя и сохраняет выданный токен
func (a *App) Register(ctx context.Context, login, password string) error {
	if a.httpClient == nil {
		return fmt.Errorf("регистрация недоступна в офлайн-режиме")
	}
	token, err := a.httpClient.Register(ctx, login, password)
	if err != nil {
		return err
	}
	a.log.Info("Пользователь успешно зарегистрирован", "login", login)
	return a.remember(login, token)
}

// Login выполняет вход пользователя
func (a *App) Login(ctx context.Context, login, password string) error {
	if a.httpClient == nil {
		return fmt.Errorf("вход недоступен в офлайн-режиме")
	}
	token, err := a.httpClient.Login(ctx, login, password)
	if err != nil {
		return err
	}
	a.log.Info("Вход выполнен успешно", "login", login)
	return a.remember(login, token)
}

// Logout отзывает токен на сервере (если доступен) и забывает его локально
func (a *App) Logout(ctx context.Context) error {
	if a.httpClient != nil {
		if token, err := a.GetToken(); err == nil {
			if err := a.httpClient.Logout(ctx, token); err != nil {
				a.log.Warn("Не удалось отозвать токен на сервере", "error", err)
			}
		}
	}
	return a.ClearToken()
}

func (a *App) remember(login, token string) error {
	if err := a.SaveToken(token); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.UserLogin = login
	a.state.LastLogin = time.Now()
	if err := a.saveAppState(); err != nil {
		a.log.Warn("Не удалось сохранить состояние", "error", err)
	}
	return nil
}

func (a *App) Upload(ctx context.Context) (*UploadResult, error) {
	userID, token, err := a.Credential()
	if err != nil {
		return nil, err
	}
	return a.syncService.Upload(ctx, userID, token)
}

func (a *App) Download(ctx context.Context) (*DownloadResult, error) {
	userID, token, err := a.Credential()
	if err != nil {
		return nil, err
	}
	return a.syncService.Download(ctx, userID, token)
}

func (a *App) Wipe(ctx context.Context) error {
	userID, token, err := a.Credential()
	if err != nil {
		return err
	}
	return a.syncService.Wipe(ctx, userID, token)
}

func (a *App) AcknowledgeReset(ctx context.Context) error {
	return a.syncService.AcknowledgeReset(ctx)
}

func (a *App) Status(ctx context.Context) (*SyncStatus, error) {
	return a.syncService.Status(ctx)
}

// CheckConnection проверяет доступность удаленного хранилища
func (a *App) CheckConnection(ctx context.Context) error {
	return a.syncService.remote.Ping(ctx)
}

// Snapshot все локальные данные
func (a *App) Snapshot(ctx context.Context) (*ledger.Snapshot, error) {
	return a.storage.GetAll(ctx)
}

// AddAccount создает счет локально
func (a *App) AddAccount(ctx context.Context, name string, typ ledger.AccountType, balance decimal.Decimal, currency string) (*ledger.Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("название счета не может быть пустым")
	}
	if typ == "" {
		typ = ledger.AccountCash
	}
	if currency == "" {
		currency = a.config.DefaultCurrency
	}

	now := ledger.At(time.Now())
	acc := ledger.Account{
		ID:        ledger.NewID(),
		Name:      name,
		Type:      typ,
		Balance:   balance,
		Currency:  strings.ToUpper(currency),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.storage.Upsert(ctx, &ledger.Snapshot{Accounts: []ledger.Account{acc}}); err != nil {
		return nil, err
	}
	return &acc, nil
}

// AddTransaction создает операцию по счету локально
func (a *App) AddTransaction(ctx context.Context, tx ledger.Transaction) (*ledger.Transaction, error) {
	if !tx.Amount.IsPositive() {
		return nil, fmt.Errorf("сумма должна быть положительной")
	}
	if tx.Type != ledger.Income && tx.Type != ledger.Expense {
		return nil, fmt.Errorf("тип операции должен быть income или expense")
	}

	snap, err := a.storage.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, acc := range snap.Accounts {
		if acc.ID == tx.AccountID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("счет %s не найден", tx.AccountID)
	}

	now := ledger.At(time.Now())
	tx.ID = ledger.NewID()
	if tx.Date.IsZero() {
		tx.Date = now
	}
	tx.CreatedAt, tx.UpdatedAt = now, now
	tx.SyncedAt = ledger.Timestamp{}

	if err := a.storage.Upsert(ctx, &ledger.Snapshot{Transactions: []ledger.Transaction{tx}}); err != nil {
		return nil, err
	}
	return &tx, nil
}

// AddCategory создает категорию локально
func (a *App) AddCategory(ctx context.Context, name string, typ ledger.TransactionType) (*ledger.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("название категории не может быть пустым")
	}
	if typ != ledger.Income && typ != ledger.Expense {
		return nil, fmt.Errorf("тип категории должен быть income или expense")
	}

	now := ledger.At(time.Now())
	cat := ledger.Category{
		ID:        ledger.NewID(),
		Name:      name,
		Type:      typ,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.storage.Upsert(ctx, &ledger.Snapshot{Categories: []ledger.Category{cat}}); err != nil {
		return nil, err
	}
	return &cat, nil
}

// SetRate добавляет курс валюты; при чтении действует самый свежий
func (a *App) SetRate(ctx context.Context, from, to string, rate decimal.Decimal) (*ledger.ExchangeRate, error) {
	from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
	if len(from) != 3 || len(to) != 3 {
		return nil, fmt.Errorf("коды валют должны быть в формате ISO 4217")
	}
	if !rate.IsPositive() {
		return nil, fmt.Errorf("курс должен быть положительным")
	}

	r := ledger.ExchangeRate{FromCurrency: from, ToCurrency: to, Rate: rate, UpdatedAt: ledger.At(time.Now())}
	if err := a.storage.Upsert(ctx, &ledger.Snapshot{ExchangeRates: []ledger.ExchangeRate{r}}); err != nil {
		return nil, err
	}
	return &r, nil
}

// Convert пересчитывает сумму по последнему известному курсу
func (a *App) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	snap, err := a.storage.GetAll(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	rate, ok := ledger.Lookup(snap.ExchangeRates)(from, to)
	if !ok {
		return decimal.Zero, fmt.Errorf("курс %s/%s не найден", from, to)
	}
	return amount.Mul(rate), nil
}
