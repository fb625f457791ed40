package record

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cashcraft/cmd/client/cmd/types"
	"cashcraft/internal/domain/ledger"
)

var (
	listCollection string
	listFormat     string
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список записей",
	Long: `Просмотр локальных записей.

Флаг --collection ограничивает вывод одной коллекцией:
accounts, transactions, categories, debts, exchangeRates.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		snap, err := app.Snapshot(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения записей: %w", err)
		}

		if listFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}
		return printTables(snap, ledger.Collection(listCollection))
	},
}

func printTables(snap *ledger.Snapshot, only ledger.Collection) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	show := func(c ledger.Collection) bool { return only == "" || only == c }

	if show(ledger.Accounts) {
		types.Head("Счета (%d)\n", len(snap.Accounts))
		fmt.Fprintln(w, "ID\tНАЗВАНИЕ\tТИП\tБАЛАНС\tВАЛЮТА")
		for _, a := range snap.Accounts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Type, a.Balance.StringFixed(2), a.Currency)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if show(ledger.Transactions) {
		types.Head("\nОперации (%d)\n", len(snap.Transactions))
		fmt.Fprintln(w, "ID\tДАТА\tСЧЕТ\tТИП\tСУММА\tКОММЕНТАРИЙ")
		for _, t := range snap.Transactions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				t.ID, t.Date.Format("2006-01-02"), t.AccountID, t.Type, t.Amount.StringFixed(2), t.Description)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if show(ledger.Categories) {
		types.Head("\nКатегории (%d)\n", len(snap.Categories))
		fmt.Fprintln(w, "ID\tНАЗВАНИЕ\tТИП")
		for _, c := range snap.Categories {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Type)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if show(ledger.Debts) {
		types.Head("\nДолги (%d)\n", len(snap.Debts))
		fmt.Fprintln(w, "ID\tНАЗВАНИЕ\tТИП\tСУММА\tПОГАШЕН")
		for _, d := range snap.Debts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", d.ID, d.Name, d.Type, d.Amount.StringFixed(2), d.IsPaid)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if show(ledger.ExchangeRates) {
		types.Head("\nКурсы (%d)\n", len(snap.ExchangeRates))
		fmt.Fprintln(w, "ПАРА\tКУРС\tОБНОВЛЕН")
		for _, r := range snap.ExchangeRates {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Pair(), r.Rate.String(), r.UpdatedAt.String())
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	ListCmd.Flags().StringVarP(&listCollection, "collection", "c", "", "показать только одну коллекцию")
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "формат вывода: table, json")
}
