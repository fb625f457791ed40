package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"cashcraft/cmd/client/cmd/types"
	"cashcraft/internal/app/client"
	"cashcraft/internal/app/client/config"
	"cashcraft/internal/utils/logger"
)

var (
	cfg       *config.Config
	log       *slog.Logger
	app       *client.App
	serverURL string
	offline   bool
)

var rootCmd = &cobra.Command{
	Use:   "cashcraft",
	Short: "Cashcraft - учет личных финансов с синхронизацией",
	Long: `Cashcraft хранит счета, операции, категории, долги и курсы валют локально
и синхронизирует их с сервером, когда он доступен.

Все изменения сначала сохраняются на устройстве, поэтому клиент работает и без сети.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}
	if offline {
		cfg.OfflineMode = true
	}

	log = logger.NewFile(cfg.Env, cfg.LogPath)

	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}
	if err := app.Init(cmd.Context()); err != nil {
		return err
	}

	cmd.SetContext(types.WithApp(cmd.Context(), app))
	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	return app.Close()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера синхронизации (host:port)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "работать с локальным файлом вместо сервера")
}
