package auth

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"cashcraft/cmd/client/cmd/types"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Выйти и забыть токен",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		if err := app.Logout(ctx); err != nil {
			return err
		}
		types.OK("✓ Выход выполнен. Локальные данные сохранены.\n")
		return nil
	},
}
