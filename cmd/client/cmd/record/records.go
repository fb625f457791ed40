package record

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cashcraft/internal/domain/ledger"
)

// RecordCmd - родительская команда для всех операций с записями учета
var RecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Управление записями",
	Long: `Создание и просмотр счетов, операций, категорий и курсов валют.

Записи сохраняются локально и уходят на сервер при следующей синхронизации.`,
}

func parseMoney(s, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: некорректное число %q", field, s)
	}
	return d, nil
}

func parseDate(s string) (ledger.Timestamp, error) {
	ts, err := ledger.ParseTimestamp(s)
	if err != nil {
		return ledger.Timestamp{}, fmt.Errorf("дата: ожидается YYYY-MM-DD или RFC 3339")
	}
	return ts, nil
}
