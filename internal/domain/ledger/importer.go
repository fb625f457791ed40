package ledger

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"
)

// Importer проверяет записи удаленного снимка по одной.
// Непрошедшие записи пропускаются, импорт не прерывается.
type Importer struct {
	log *slog.Logger
}

func NewImporter(log *slog.Logger) *Importer {
	return &Importer{log: log}
}

// Import возвращает принятые записи и список отклоненных
func (i *Importer) Import(raw *RawSnapshot) (*Snapshot, []Rejection) {
	return i.ImportOnto(raw, nil)
}

// ImportOnto как Import, но транзакции могут ссылаться и на счета base.
// Нужен при слиянии частичной загрузки с уже хранимым снимком.
func (i *Importer) ImportOnto(raw *RawSnapshot, base *Snapshot) (*Snapshot, []Rejection) {
	out := &Snapshot{
		Accounts:      make([]Account, 0, len(raw.Accounts)),
		Transactions:  make([]Transaction, 0, len(raw.Transactions)),
		Categories:    make([]Category, 0, len(raw.Categories)),
		Debts:         make([]Debt, 0, len(raw.Debts)),
		ExchangeRates: make([]ExchangeRate, 0, len(raw.ExchangeRates)),
	}
	var rejected []Rejection

	note := func(c Collection, idx int, data json.RawMessage, err error) {
		r := Rejection{Collection: c, Index: idx, ID: peekID(data), Reason: reasonOf(err)}
		rejected = append(rejected, r)
		if i.log != nil {
			i.log.Warn("record rejected",
				slog.String("collection", string(c)),
				slog.Int("index", idx),
				slog.String("id", r.ID),
				slog.String("reason", r.Reason),
			)
		}
	}

	accountIDs := make(map[string]struct{}, len(raw.Accounts))
	for idx, data := range raw.Accounts {
		acc, err := ImportAccount(data)
		if err == nil {
			err = checkDuplicate(accountIDs, acc.ID)
		}
		if err != nil {
			note(Accounts, idx, data, err)
			continue
		}
		out.Accounts = append(out.Accounts, acc)
	}

	categoryIDs := make(map[string]struct{}, len(raw.Categories))
	for idx, data := range raw.Categories {
		cat, err := ImportCategory(data)
		if err == nil {
			err = checkDuplicate(categoryIDs, cat.ID)
		}
		if err != nil {
			note(Categories, idx, data, err)
			continue
		}
		out.Categories = append(out.Categories, cat)
	}

	debtIDs := make(map[string]struct{}, len(raw.Debts))
	for idx, data := range raw.Debts {
		debt, err := ImportDebt(data)
		if err == nil {
			err = checkDuplicate(debtIDs, debt.ID)
		}
		if err != nil {
			note(Debts, idx, data, err)
			continue
		}
		out.Debts = append(out.Debts, debt)
	}

	known := accountIDs
	if base != nil && len(base.Accounts) > 0 {
		known = make(map[string]struct{}, len(accountIDs)+len(base.Accounts))
		for id := range accountIDs {
			known[id] = struct{}{}
		}
		for _, acc := range base.Accounts {
			known[acc.ID] = struct{}{}
		}
	}

	txIDs := make(map[string]struct{}, len(raw.Transactions))
	for idx, data := range raw.Transactions {
		tx, err := ImportTransaction(data, known)
		if err == nil {
			err = checkDuplicate(txIDs, tx.ID)
		}
		if err != nil {
			note(Transactions, idx, data, err)
			continue
		}
		out.Transactions = append(out.Transactions, tx)
	}

	for idx, data := range raw.ExchangeRates {
		rate, err := ImportExchangeRate(data)
		if err != nil {
			note(ExchangeRates, idx, data, err)
			continue
		}
		out.ExchangeRates = append(out.ExchangeRates, rate)
	}

	return out, rejected
}

type accountWire struct {
	ID        *string          `json:"id"`
	Name      *string          `json:"name"`
	Type      AccountType      `json:"type"`
	Balance   *decimal.Decimal `json:"balance"`
	Currency  string           `json:"currency"`
	IsDefault bool             `json:"isDefault"`
	CreatedAt Timestamp        `json:"createdAt"`
	UpdatedAt Timestamp        `json:"updatedAt"`
	SyncedAt  Timestamp        `json:"syncedAt"`
}

// ImportAccount требует id, name и числовой balance
func ImportAccount(data json.RawMessage) (Account, error) {
	var w accountWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Account{}, reject("malformed account: %v", err)
	}
	if blank(w.ID) {
		return Account{}, reject("missing id")
	}
	if blank(w.Name) {
		return Account{}, reject("missing name")
	}
	if w.Balance == nil {
		return Account{}, reject("missing balance")
	}
	if err := checkTimestamps(w.CreatedAt, w.UpdatedAt); err != nil {
		return Account{}, err
	}
	if w.Type == "" {
		w.Type = AccountCash
	}
	return Account{
		ID:        *w.ID,
		Name:      *w.Name,
		Type:      w.Type,
		Balance:   *w.Balance,
		Currency:  w.Currency,
		IsDefault: w.IsDefault,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
		SyncedAt:  w.SyncedAt,
	}, nil
}

type transactionWire struct {
	ID          *string          `json:"id"`
	AccountID   *string          `json:"accountId"`
	CategoryID  string           `json:"categoryId"`
	Amount      *decimal.Decimal `json:"amount"`
	Type        TransactionType  `json:"type"`
	Date        Timestamp        `json:"date"`
	Description string           `json:"description"`
	CreatedAt   Timestamp        `json:"createdAt"`
	UpdatedAt   Timestamp        `json:"updatedAt"`
	SyncedAt    Timestamp        `json:"syncedAt"`
}

// ImportTransaction требует счет из accounts, amount > 0, тип и дату.
// accounts == nil отключает проверку ссылки на счет.
func ImportTransaction(data json.RawMessage, accounts map[string]struct{}) (Transaction, error) {
	var w transactionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Transaction{}, reject("malformed transaction: %v", err)
	}
	if blank(w.ID) {
		return Transaction{}, reject("missing id")
	}
	if blank(w.AccountID) {
		return Transaction{}, reject("missing accountId")
	}
	if accounts != nil {
		if _, ok := accounts[*w.AccountID]; !ok {
			return Transaction{}, reject("unknown account %s", *w.AccountID)
		}
	}
	if w.Amount == nil || !w.Amount.IsPositive() {
		return Transaction{}, reject("amount must be positive")
	}
	if w.Type != Income && w.Type != Expense {
		return Transaction{}, reject("invalid type %q", w.Type)
	}
	if w.Date.IsZero() {
		return Transaction{}, reject("missing date")
	}
	if err := checkTimestamps(w.CreatedAt, w.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:          *w.ID,
		AccountID:   *w.AccountID,
		CategoryID:  w.CategoryID,
		Amount:      *w.Amount,
		Type:        w.Type,
		Date:        w.Date,
		Description: w.Description,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		SyncedAt:    w.SyncedAt,
	}, nil
}

type categoryWire struct {
	ID        *string         `json:"id"`
	Name      *string         `json:"name"`
	Type      TransactionType `json:"type"`
	Icon      string          `json:"icon"`
	Color     string          `json:"color"`
	CreatedAt Timestamp       `json:"createdAt"`
	UpdatedAt Timestamp       `json:"updatedAt"`
	SyncedAt  Timestamp       `json:"syncedAt"`
}

func ImportCategory(data json.RawMessage) (Category, error) {
	var w categoryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Category{}, reject("malformed category: %v", err)
	}
	if blank(w.ID) {
		return Category{}, reject("missing id")
	}
	if blank(w.Name) {
		return Category{}, reject("missing name")
	}
	return Category{
		ID:        *w.ID,
		Name:      *w.Name,
		Type:      w.Type,
		Icon:      w.Icon,
		Color:     w.Color,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
		SyncedAt:  w.SyncedAt,
	}, nil
}

type debtWire struct {
	ID        *string          `json:"id"`
	Name      *string          `json:"name"`
	Amount    *decimal.Decimal `json:"amount"`
	Type      DebtType         `json:"type"`
	Currency  string           `json:"currency"`
	AccountID string           `json:"accountId"`
	DueDate   Timestamp        `json:"dueDate"`
	IsPaid    bool             `json:"isPaid"`
	CreatedAt Timestamp        `json:"createdAt"`
	UpdatedAt Timestamp        `json:"updatedAt"`
	SyncedAt  Timestamp        `json:"syncedAt"`
}

// ImportDebt требует id, name, amount > 0 и тип долга
func ImportDebt(data json.RawMessage) (Debt, error) {
	var w debtWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Debt{}, reject("malformed debt: %v", err)
	}
	if blank(w.ID) {
		return Debt{}, reject("missing id")
	}
	if blank(w.Name) {
		return Debt{}, reject("missing name")
	}
	if w.Amount == nil || !w.Amount.IsPositive() {
		return Debt{}, reject("amount must be positive")
	}
	if w.Type != OwedToMe && w.Type != OwedByMe {
		return Debt{}, reject("invalid type %q", w.Type)
	}
	if err := checkTimestamps(w.CreatedAt, w.UpdatedAt); err != nil {
		return Debt{}, err
	}
	return Debt{
		ID:        *w.ID,
		Name:      *w.Name,
		Amount:    *w.Amount,
		Type:      w.Type,
		Currency:  w.Currency,
		AccountID: w.AccountID,
		DueDate:   w.DueDate,
		IsPaid:    w.IsPaid,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
		SyncedAt:  w.SyncedAt,
	}, nil
}

type rateWire struct {
	FromCurrency string           `json:"fromCurrency"`
	ToCurrency   string           `json:"toCurrency"`
	Rate         *decimal.Decimal `json:"rate"`
	UpdatedAt    Timestamp        `json:"updatedAt"`
}

func ImportExchangeRate(data json.RawMessage) (ExchangeRate, error) {
	var w rateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return ExchangeRate{}, reject("malformed exchange rate: %v", err)
	}
	if strings.TrimSpace(w.FromCurrency) == "" || strings.TrimSpace(w.ToCurrency) == "" {
		return ExchangeRate{}, reject("missing currency")
	}
	if w.Rate == nil || !w.Rate.IsPositive() {
		return ExchangeRate{}, reject("rate must be positive")
	}
	return ExchangeRate{
		FromCurrency: w.FromCurrency,
		ToCurrency:   w.ToCurrency,
		Rate:         *w.Rate,
		UpdatedAt:    w.UpdatedAt,
	}, nil
}

func checkTimestamps(created, updated Timestamp) error {
	if !created.IsZero() && !updated.IsZero() && created.After(updated) {
		return reject("updatedAt before createdAt")
	}
	return nil
}

func checkDuplicate(seen map[string]struct{}, id string) error {
	if _, ok := seen[id]; ok {
		return reject("duplicate id %s", id)
	}
	seen[id] = struct{}{}
	return nil
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func peekID(data json.RawMessage) string {
	var probe struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return ""
	}
	if s, ok := probe.ID.(string); ok {
		return s
	}
	return ""
}

func reasonOf(err error) string {
	msg := err.Error()
	if errors.Is(err, ErrRecordRejected) {
		msg = strings.TrimPrefix(msg, ErrRecordRejected.Error()+": ")
	}
	return msg
}
