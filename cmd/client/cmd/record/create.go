package record

import (
	"fmt"

	"github.com/spf13/cobra"

	"cashcraft/cmd/client/cmd/types"
	"cashcraft/internal/domain/ledger"
)

var (
	accName     string
	accType     string
	accBalance  string
	accCurrency string

	txAccount     string
	txCategory    string
	txAmount      string
	txType        string
	txDate        string
	txDescription string

	catName string
	catType string

	rateFrom  string
	rateTo    string
	rateValue string
)

var AccountCmd = &cobra.Command{
	Use:   "account",
	Short: "Создать счет",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		balance, err := parseMoney(accBalance, "баланс")
		if err != nil {
			return err
		}

		acc, err := app.AddAccount(cmd.Context(), accName, ledger.AccountType(accType), balance, accCurrency)
		if err != nil {
			return fmt.Errorf("ошибка создания счета: %w", err)
		}
		types.OK("✓ Счет создан: %s (%s %s)\n", acc.ID, acc.Balance.StringFixed(2), acc.Currency)
		return nil
	},
}

var TransactionCmd = &cobra.Command{
	Use:     "transaction",
	Aliases: []string{"tx"},
	Short:   "Добавить операцию по счету",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		amount, err := parseMoney(txAmount, "сумма")
		if err != nil {
			return err
		}
		date, err := parseDate(txDate)
		if err != nil {
			return err
		}

		tx, err := app.AddTransaction(cmd.Context(), ledger.Transaction{
			AccountID:   txAccount,
			CategoryID:  txCategory,
			Amount:      amount,
			Type:        ledger.TransactionType(txType),
			Date:        date,
			Description: txDescription,
		})
		if err != nil {
			return fmt.Errorf("ошибка создания операции: %w", err)
		}
		types.OK("✓ Операция создана: %s\n", tx.ID)
		return nil
	},
}

var CategoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Создать категорию",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		cat, err := app.AddCategory(cmd.Context(), catName, ledger.TransactionType(catType))
		if err != nil {
			return fmt.Errorf("ошибка создания категории: %w", err)
		}
		types.OK("✓ Категория создана: %s\n", cat.ID)
		return nil
	},
}

var RateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Записать курс валюты",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		value, err := parseMoney(rateValue, "курс")
		if err != nil {
			return err
		}

		r, err := app.SetRate(cmd.Context(), rateFrom, rateTo, value)
		if err != nil {
			return fmt.Errorf("ошибка записи курса: %w", err)
		}
		types.OK("✓ Курс %s = %s\n", r.Pair(), r.Rate.String())
		return nil
	},
}

func init() {
	AccountCmd.Flags().StringVar(&accName, "name", "", "название счета")
	AccountCmd.Flags().StringVar(&accType, "type", string(ledger.AccountCash), "тип: cash, card, bank, savings, credit")
	AccountCmd.Flags().StringVar(&accBalance, "balance", "0", "начальный баланс")
	AccountCmd.Flags().StringVar(&accCurrency, "currency", "", "валюта (по умолчанию из настроек)")
	_ = AccountCmd.MarkFlagRequired("name")

	TransactionCmd.Flags().StringVar(&txAccount, "account", "", "id счета")
	TransactionCmd.Flags().StringVar(&txCategory, "category", "", "id категории")
	TransactionCmd.Flags().StringVar(&txAmount, "amount", "", "сумма")
	TransactionCmd.Flags().StringVar(&txType, "type", string(ledger.Expense), "income или expense")
	TransactionCmd.Flags().StringVar(&txDate, "date", "", "дата операции (по умолчанию сейчас)")
	TransactionCmd.Flags().StringVar(&txDescription, "description", "", "комментарий")
	_ = TransactionCmd.MarkFlagRequired("account")
	_ = TransactionCmd.MarkFlagRequired("amount")

	CategoryCmd.Flags().StringVar(&catName, "name", "", "название категории")
	CategoryCmd.Flags().StringVar(&catType, "type", string(ledger.Expense), "income или expense")
	_ = CategoryCmd.MarkFlagRequired("name")

	RateCmd.Flags().StringVar(&rateFrom, "from", "", "исходная валюта")
	RateCmd.Flags().StringVar(&rateTo, "to", "", "целевая валюта")
	RateCmd.Flags().StringVar(&rateValue, "rate", "", "курс")
	_ = RateCmd.MarkFlagRequired("from")
	_ = RateCmd.MarkFlagRequired("to")
	_ = RateCmd.MarkFlagRequired("rate")
}
