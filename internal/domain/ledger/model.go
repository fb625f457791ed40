package ledger

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Collection имя коллекции в хранилище и в теле запроса синхронизации
type Collection string

const (
	Accounts      Collection = "accounts"
	Transactions  Collection = "transactions"
	Categories    Collection = "categories"
	Debts         Collection = "debts"
	ExchangeRates Collection = "exchangeRates"
)

// AllCollections порядок коллекций при импорте: счета раньше транзакций
var AllCollections = []Collection{Accounts, Categories, Debts, Transactions, ExchangeRates}

type AccountType string

const (
	AccountCash    AccountType = "cash"
	AccountCard    AccountType = "card"
	AccountBank    AccountType = "bank"
	AccountSavings AccountType = "savings"
	AccountCredit  AccountType = "credit"
)

type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type DebtType string

const (
	OwedToMe DebtType = "owed_to_me"
	OwedByMe DebtType = "owed_by_me"
)

// Account счет пользователя
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency,omitempty"`
	IsDefault bool            `json:"isDefault"`
	CreatedAt Timestamp       `json:"createdAt"`
	UpdatedAt Timestamp       `json:"updatedAt"`
	SyncedAt  Timestamp       `json:"syncedAt,omitzero"`
}

// Transaction операция по счету
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	CategoryID  string          `json:"categoryId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Date        Timestamp       `json:"date"`
	Description string          `json:"description,omitempty"`
	CreatedAt   Timestamp       `json:"createdAt"`
	UpdatedAt   Timestamp       `json:"updatedAt"`
	SyncedAt    Timestamp       `json:"syncedAt,omitzero"`
}

// Category категория доходов или расходов.
// updatedAt категории при слиянии не используется.
type Category struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      TransactionType `json:"type,omitempty"`
	Icon      string          `json:"icon,omitempty"`
	Color     string          `json:"color,omitempty"`
	CreatedAt Timestamp       `json:"createdAt"`
	UpdatedAt Timestamp       `json:"updatedAt"`
	SyncedAt  Timestamp       `json:"syncedAt,omitzero"`
}

// Debt долг: мне должны или я должен
type Debt struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Type      DebtType        `json:"type"`
	Currency  string          `json:"currency,omitempty"`
	AccountID string          `json:"accountId,omitempty"`
	DueDate   Timestamp       `json:"dueDate,omitzero"`
	IsPaid    bool            `json:"isPaid"`
	CreatedAt Timestamp       `json:"createdAt"`
	UpdatedAt Timestamp       `json:"updatedAt"`
	SyncedAt  Timestamp       `json:"syncedAt,omitzero"`
}

// ExchangeRate курс валюты. Идентичность составная (from, to), syncedAt нет.
type ExchangeRate struct {
	FromCurrency string          `json:"fromCurrency"`
	ToCurrency   string          `json:"toCurrency"`
	Rate         decimal.Decimal `json:"rate"`
	UpdatedAt    Timestamp       `json:"updatedAt"`
}

// Pair ключ пары валют
func (r ExchangeRate) Pair() string {
	return r.FromCurrency + "/" + r.ToCurrency
}

// Snapshot полное состояние пяти коллекций одной из сторон
type Snapshot struct {
	Accounts      []Account      `json:"accounts"`
	Transactions  []Transaction  `json:"transactions"`
	Categories    []Category     `json:"categories"`
	Debts         []Debt         `json:"debts"`
	ExchangeRates []ExchangeRate `json:"exchangeRates"`
}

// MarshalJSON пишет пустые коллекции как [], иначе свой же снимок не пройдет проверку формы
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type plain Snapshot
	p := plain(s)
	if p.Accounts == nil {
		p.Accounts = []Account{}
	}
	if p.Transactions == nil {
		p.Transactions = []Transaction{}
	}
	if p.Categories == nil {
		p.Categories = []Category{}
	}
	if p.Debts == nil {
		p.Debts = []Debt{}
	}
	if p.ExchangeRates == nil {
		p.ExchangeRates = []ExchangeRate{}
	}
	return json.Marshal(p)
}

// Len общее количество записей во всех коллекциях
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Accounts) + len(s.Transactions) + len(s.Categories) + len(s.Debts) + len(s.ExchangeRates)
}

// Counts количество записей по коллекциям
func (s *Snapshot) Counts() map[Collection]int {
	return map[Collection]int{
		Accounts:      len(s.Accounts),
		Transactions:  len(s.Transactions),
		Categories:    len(s.Categories),
		Debts:         len(s.Debts),
		ExchangeRates: len(s.ExchangeRates),
	}
}

// Watermark отметка последней успешно примененной синхронизации
type Watermark struct {
	LastSyncAt Timestamp `json:"lastSyncAt"`
	SyncToken  string    `json:"syncToken,omitempty"`
}

// Envelope тело запроса и ответа синхронизации
type Envelope struct {
	Data       Snapshot  `json:"data"`
	LastSyncAt Timestamp `json:"lastSyncAt,omitzero"`
	SyncToken  string    `json:"syncToken,omitempty"`
}
