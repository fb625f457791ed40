package sync

import (
	"github.com/spf13/cobra"
)

// SyncCmd - родительская команда синхронизации
var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Управление синхронизацией",
	Long: `Синхронизация данных между клиентом и сервером.

upload отправляет локальные изменения, download применяет снимок сервера,
auto запускает периодическую синхронизацию до Ctrl+C.`,
}
