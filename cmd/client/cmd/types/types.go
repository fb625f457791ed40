// Package types общие для команд клиента ключи контекста и вывод
package types

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cashcraft/internal/app/client"
)

type contextKey string

const ClientAppKey contextKey = "app"

func WithApp(ctx context.Context, app *client.App) context.Context {
	return context.WithValue(ctx, ClientAppKey, app)
}

// App достает приложение, созданное в PersistentPreRunE
func App(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("приложение не инициализировано")
	}
	return app, nil
}

var (
	OK   = color.New(color.FgGreen).PrintfFunc()
	Warn = color.New(color.FgYellow).PrintfFunc()
	Head = color.New(color.FgCyan, color.Bold).PrintfFunc()
)

// Explain переводит ошибки синхронизации в подсказку для пользователя
func Explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, client.ErrNoCredential):
		return fmt.Errorf("требуется вход: cashcraft auth login")
	case errors.Is(err, client.ErrAuthExpired):
		return fmt.Errorf("сессия истекла, войдите снова: cashcraft auth login")
	case errors.Is(err, client.ErrUnreachable):
		return fmt.Errorf("сервер недоступен, данные сохранены локально: %w", err)
	case errors.Is(err, client.ErrSyncSuppressed):
		return fmt.Errorf("синхронизация приостановлена после очистки данных, подтвердите: cashcraft sync ack")
	case errors.Is(err, client.ErrConcurrentWipe):
		return fmt.Errorf("очистка уже выполняется")
	case errors.Is(err, client.ErrNotReady):
		return fmt.Errorf("локальное хранилище не готово: %w", err)
	}
	return err
}
