package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RateLookup функция поиска курса, используется интерфейсом пользователя
type RateLookup func(from, to string) (decimal.Decimal, bool)

// LatestRate выбирает курс пары с наибольшим updatedAt.
// Коллекция курсов хранит дубли, при равных отметках побеждает последний.
func LatestRate(rates []ExchangeRate, from, to string) (decimal.Decimal, bool) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), true
	}

	var (
		best  ExchangeRate
		found bool
	)
	for _, r := range rates {
		if !strings.EqualFold(r.FromCurrency, from) || !strings.EqualFold(r.ToCurrency, to) {
			continue
		}
		if !found || !best.UpdatedAt.After(r.UpdatedAt) {
			best, found = r, true
		}
	}
	if found {
		return best.Rate, true
	}

	// обратная пара
	for _, r := range rates {
		if !strings.EqualFold(r.FromCurrency, to) || !strings.EqualFold(r.ToCurrency, from) || r.Rate.IsZero() {
			continue
		}
		if !found || !best.UpdatedAt.After(r.UpdatedAt) {
			best, found = r, true
		}
	}
	if found {
		return decimal.NewFromInt(1).DivRound(best.Rate, 8), true
	}
	return decimal.Decimal{}, false
}

// Lookup замыкает LatestRate над коллекцией курсов
func Lookup(rates []ExchangeRate) RateLookup {
	return func(from, to string) (decimal.Decimal, bool) {
		return LatestRate(rates, from, to)
	}
}
