package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestRate(t *testing.T) {
	rates := []ExchangeRate{
		{FromCurrency: "USD", ToCurrency: "EUR", Rate: decimal.RequireFromString("0.90"), UpdatedAt: MustParse("2024-01-01")},
		{FromCurrency: "USD", ToCurrency: "EUR", Rate: decimal.RequireFromString("0.95"), UpdatedAt: MustParse("2024-03-01")},
		{FromCurrency: "USD", ToCurrency: "EUR", Rate: decimal.RequireFromString("0.92"), UpdatedAt: MustParse("2024-02-01")},
		{FromCurrency: "GBP", ToCurrency: "USD", Rate: decimal.RequireFromString("1.25")},
	}

	tests := []struct {
		name  string
		from  string
		to    string
		want  string
		found bool
	}{
		{name: "latest wins", from: "USD", to: "EUR", want: "0.95", found: true},
		{name: "case insensitive", from: "usd", to: "eur", want: "0.95", found: true},
		{name: "inverse pair", from: "USD", to: "GBP", want: "0.8", found: true},
		{name: "same currency", from: "EUR", to: "EUR", want: "1", found: true},
		{name: "unknown", from: "JPY", to: "EUR", found: false},
	}

	lookup := Lookup(rates)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lookup(tt.from, tt.to)
			require.Equal(t, tt.found, ok)
			if tt.found {
				assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
			}
		})
	}
}

func TestLatestRate_TieTakesLast(t *testing.T) {
	ts := MustParse("2024-01-01")
	rates := []ExchangeRate{
		{FromCurrency: "USD", ToCurrency: "EUR", Rate: decimal.RequireFromString("0.90"), UpdatedAt: ts},
		{FromCurrency: "USD", ToCurrency: "EUR", Rate: decimal.RequireFromString("0.91"), UpdatedAt: ts},
	}
	got, ok := LatestRate(rates, "USD", "EUR")
	require.True(t, ok)
	assert.Equal(t, "0.91", got.String())
}

func TestDefaultSeed(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seed := DefaultSeed("user-1", "eur", now)

	require.Len(t, seed.Accounts, 1)
	acc := seed.Accounts[0]
	assert.Equal(t, "Cash", acc.Name)
	assert.Equal(t, AccountCash, acc.Type)
	assert.Equal(t, "EUR", acc.Currency)
	assert.True(t, acc.IsDefault)
	assert.True(t, acc.Balance.IsZero())
	assert.True(t, acc.SyncedAt.IsZero())

	assert.NotEmpty(t, seed.Categories)
	assert.Empty(t, seed.Transactions)
	assert.Empty(t, seed.Debts)
	assert.Empty(t, seed.ExchangeRates)

	again := DefaultSeed("user-1", "", now)
	assert.Equal(t, acc.ID, again.Accounts[0].ID)
	assert.Equal(t, DefaultCurrency, again.Accounts[0].Currency)
	assert.NotEqual(t, acc.ID, DefaultSeed("user-2", "", now).Accounts[0].ID)
}
