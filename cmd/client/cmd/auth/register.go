package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cashcraft/cmd/client/cmd/types"
)

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Зарегистрировать нового пользователя",
	Long: `Регистрация нового пользователя на сервере синхронизации.

После регистрации токен сохраняется локально, и данные можно синхронизировать
между устройствами.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		types.Head("=== Регистрация нового пользователя ===\n")

		login, err := readLogin()
		if err != nil {
			return err
		}
		password, err := readPassword("Пароль: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Повторите пароль: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("пароли не совпадают")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := app.Register(ctx, login, password); err != nil {
			return fmt.Errorf("ошибка регистрации: %w", types.Explain(err))
		}

		types.OK("✅ Пользователь %s зарегистрирован\n", login)
		return nil
	},
}
