package sync

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cashcraft/cmd/client/cmd/types"
	"cashcraft/internal/app/client"
	"cashcraft/internal/domain/ledger"
)

var wipeConfirmed bool

var UploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Отправить локальные изменения на сервер",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		res, err := app.Upload(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка отправки: %w", types.Explain(err))
		}
		if res.Total == 0 {
			types.OK("✓ Нет изменений для отправки\n")
			return nil
		}
		types.OK("✓ Отправлено записей: %d\n", res.Total)
		printCounts(res.Uploaded)
		fmt.Printf("Отметка синхронизации: %s\n", res.Watermark.LastSyncAt.String())
		return nil
	},
}

var DownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Применить снимок с сервера",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		res, err := app.Download(cmd.Context())
		if res != nil && res.Cached {
			types.Warn("⚠️  Хранилище не готово, снимок отложен и будет применен при следующем запуске\n")
			return nil
		}
		if err != nil {
			return fmt.Errorf("ошибка загрузки: %w", types.Explain(err))
		}

		switch {
		case res.Skipped:
			types.OK("✓ Данные уже актуальны\n")
		case res.Applied:
			types.OK("✓ Снимок применен, записей: %d\n", res.Imported)
		}
		if len(res.Rejected) > 0 {
			types.Warn("⚠️  Пропущено некорректных записей: %d\n", len(res.Rejected))
			for _, r := range res.Rejected {
				fmt.Printf("  • %s\n", r.Error())
			}
		}
		return nil
	},
}

var AutoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Периодическая синхронизация до Ctrl+C",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		types.Head("Автосинхронизация запущена, Ctrl+C для выхода\n")
		if err := app.Run(cmd.Context()); err != nil {
			return types.Explain(err)
		}
		app.Shutdown()
		return nil
	},
}

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Состояние синхронизации",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		st, err := app.Status(cmd.Context())
		if err != nil {
			return err
		}

		types.Head("=== Статус синхронизации ===\n")
		if !st.Ready {
			types.Warn("⚠️  Локальное хранилище не готово\n")
			return nil
		}

		if st.Watermark.LastSyncAt.IsZero() {
			fmt.Println("Последняя синхронизация: никогда")
		} else {
			fmt.Printf("Последняя синхронизация: %s\n", st.Watermark.LastSyncAt.String())
		}
		if st.Watermark.SyncToken != "" {
			fmt.Printf("Токен синхронизации:     %s\n", st.Watermark.SyncToken)
		}

		fmt.Println("Ожидают отправки:")
		printCounts(st.Pending)

		if st.Cached {
			types.Warn("⚠️  Есть отложенный снимок сервера\n")
		}
		if st.ResetMarker {
			types.Warn("⚠️  Данные очищены, синхронизация приостановлена. Подтвердите: cashcraft sync ack\n")
		}
		return nil
	},
}

var AckCmd = &cobra.Command{
	Use:   "ack",
	Short: "Подтвердить очистку и возобновить синхронизацию",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		if err := app.AcknowledgeReset(cmd.Context()); err != nil {
			return types.Explain(err)
		}
		types.OK("✓ Синхронизация возобновлена\n")
		return nil
	},
}

var WipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Удалить все данные на сервере и на устройстве",
	Long: `Удаляет все записи пользователя на сервере, затем очищает локальную базу
и восстанавливает набор по умолчанию. Операция необратима.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		if !wipeConfirmed && !confirm("Удалить ВСЕ данные? Введите 'yes' для подтверждения: ") {
			fmt.Println("Отменено")
			return nil
		}

		err = app.Wipe(cmd.Context())
		if errors.Is(err, client.ErrUnreachable) {
			return fmt.Errorf("сервер недоступен, локальные данные не тронуты")
		}
		if err != nil {
			return fmt.Errorf("ошибка очистки: %w", types.Explain(err))
		}
		types.OK("✓ Данные удалены, восстановлен набор по умолчанию\n")
		types.Warn("Синхронизация приостановлена до подтверждения: cashcraft sync ack\n")
		return nil
	},
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "yes" || answer == "да"
}

func printCounts(counts map[ledger.Collection]int) {
	for _, c := range ledger.AllCollections {
		if n := counts[c]; n > 0 {
			fmt.Printf("  %-14s %d\n", c, n)
		}
	}
}

func init() {
	WipeCmd.Flags().BoolVarP(&wipeConfirmed, "yes", "y", false, "не спрашивать подтверждение")
}
