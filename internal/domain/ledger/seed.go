package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "USD"

var seedNamespace = uuid.MustParse("6f1c2a7e-52a4-4d8e-9a4b-0c3b7c1d9e21")

var defaultCategories = []struct {
	slug  string
	name  string
	typ   TransactionType
	icon  string
	color string
}{
	{"food", "Food", Expense, "restaurant", "#FF6B6B"},
	{"transport", "Transport", Expense, "directions-car", "#4ECDC4"},
	{"shopping", "Shopping", Expense, "shopping-cart", "#45B7D1"},
	{"housing", "Housing", Expense, "home", "#96CEB4"},
	{"health", "Health", Expense, "local-hospital", "#FFEAA7"},
	{"entertainment", "Entertainment", Expense, "movie", "#DDA0DD"},
	{"other-expense", "Other", Expense, "more-horiz", "#B0B0B0"},
	{"salary", "Salary", Income, "account-balance-wallet", "#2ECC71"},
	{"gift", "Gifts", Income, "card-giftcard", "#F39C12"},
	{"other-income", "Other income", Income, "attach-money", "#27AE60"},
}

// NewID идентификатор для новой локальной записи
func NewID() string {
	return uuid.NewString()
}

// SeedID стабильный id записи по умолчанию. После сброса на разных
// устройствах один и тот же пользователь получает одинаковые id.
func SeedID(userID, slug string) string {
	return uuid.NewSHA1(seedNamespace, []byte(userID+":"+slug)).String()
}

// DefaultSeed минимальный набор данных после сброса: один счет "Cash" и категории
func DefaultSeed(userID, currency string, now time.Time) *Snapshot {
	if currency == "" {
		currency = DefaultCurrency
	}
	ts := At(now)

	snap := &Snapshot{
		Accounts: []Account{{
			ID:        SeedID(userID, "cash"),
			Name:      "Cash",
			Type:      AccountCash,
			Balance:   decimal.Zero,
			Currency:  strings.ToUpper(currency),
			IsDefault: true,
			CreatedAt: ts,
			UpdatedAt: ts,
		}},
		Transactions:  []Transaction{},
		Debts:         []Debt{},
		ExchangeRates: []ExchangeRate{},
	}

	for _, c := range defaultCategories {
		snap.Categories = append(snap.Categories, Category{
			ID:        SeedID(userID, "category:"+c.slug),
			Name:      c.name,
			Type:      c.typ,
			Icon:      c.icon,
			Color:     c.color,
			CreatedAt: ts,
			UpdatedAt: ts,
		})
	}

	return snap
}
