package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"cashcraft/cmd/client/cmd/auth"
	"cashcraft/cmd/client/cmd/record"
	"cashcraft/cmd/client/cmd/sync"
	"cashcraft/cmd/client/cmd/types"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Проверить локальное хранилище и соединение с сервером",
	Long: `Команда init выполняет первоначальную проверку клиента:
	1. Открывает локальную базу и применяет отложенный снимок, если он есть
	2. Проверяет соединение с сервером

Без сервера клиент продолжает работать, изменения уйдут при следующей синхронизации.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		types.Head("=== Инициализация Cashcraft ===\n")

		st, err := app.Status(cmd.Context())
		if err != nil {
			return err
		}
		if st.Ready {
			types.OK("✓ Локальное хранилище готово\n")
		} else {
			types.Warn("⚠️  Локальное хранилище недоступно\n")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := app.CheckConnection(ctx); err != nil {
			types.Warn("⚠️  Сервер недоступен: %v\n", err)
			types.Warn("Вы можете работать в офлайн-режиме, синхронизация выполнится позже.\n")
		} else {
			types.OK("✓ Соединение с сервером установлено\n")
		}

		types.Head("\nЧто дальше:\n")
		types.Head("1. Зарегистрируйтесь: cashcraft auth register\n")
		types.Head("2. Создайте счет:     cashcraft record account --name Кошелек\n")
		types.Head("3. Синхронизируйте:   cashcraft sync upload\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.RegisterCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)

	rootCmd.AddCommand(record.RecordCmd)
	record.RecordCmd.AddCommand(record.AccountCmd)
	record.RecordCmd.AddCommand(record.TransactionCmd)
	record.RecordCmd.AddCommand(record.CategoryCmd)
	record.RecordCmd.AddCommand(record.RateCmd)
	record.RecordCmd.AddCommand(record.ListCmd)
	record.RecordCmd.AddCommand(record.ConvertCmd)

	rootCmd.AddCommand(sync.SyncCmd)
	sync.SyncCmd.AddCommand(sync.UploadCmd)
	sync.SyncCmd.AddCommand(sync.DownloadCmd)
	sync.SyncCmd.AddCommand(sync.AutoCmd)
	sync.SyncCmd.AddCommand(sync.StatusCmd)
	sync.SyncCmd.AddCommand(sync.AckCmd)
	sync.SyncCmd.AddCommand(sync.WipeCmd)
}
