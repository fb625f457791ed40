package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cashcraft/cmd/client/cmd/types"
)

var syncAfterLogin bool

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Войти в систему",
	Long: `Аутентификация на сервере синхронизации.

После входа токен сохраняется локально для последующих операций.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		types.Head("=== Вход в систему ===\n")

		login, err := readLogin()
		if err != nil {
			return err
		}
		password, err := readPassword("Пароль: ")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := app.Login(ctx, login, password); err != nil {
			return fmt.Errorf("ошибка аутентификации: %w", types.Explain(err))
		}
		types.OK("✅ Вход выполнен успешно!\n")

		if !syncAfterLogin {
			return nil
		}

		fmt.Println("Синхронизация данных...")
		if _, err := app.Upload(ctx); err != nil {
			types.Warn("⚠️  Предупреждение: %v\n", types.Explain(err))
			return nil
		}
		if _, err := app.Download(ctx); err != nil {
			types.Warn("⚠️  Предупреждение: %v\n", types.Explain(err))
			return nil
		}
		types.OK("✓ Данные синхронизированы\n")
		return nil
	},
}

func init() {
	LoginCmd.Flags().BoolVarP(&syncAfterLogin, "sync", "s", true, "синхронизировать данные после входа")
}
