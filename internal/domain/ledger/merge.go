package ledger

// Merge объединяет два снимка по id.
// Для счетов, транзакций и долгов побеждает более поздний updatedAt,
// при равенстве остается существующая запись. Категории перезаписываются
// входящими, курсы валют складываются без удаления дублей.
// Порядок: сначала существующие записи, затем новые id в порядке прихода.
func Merge(existing, incoming *Snapshot) *Snapshot {
	if existing == nil {
		existing = &Snapshot{}
	}
	if incoming == nil {
		incoming = &Snapshot{}
	}

	rates := make([]ExchangeRate, 0, len(existing.ExchangeRates)+len(incoming.ExchangeRates))
	rates = append(rates, existing.ExchangeRates...)
	rates = append(rates, incoming.ExchangeRates...)

	return &Snapshot{
		Accounts: mergeByID(existing.Accounts, incoming.Accounts,
			func(a Account) string { return a.ID },
			func(cur, next Account) bool { return newer(cur.UpdatedAt, next.UpdatedAt) },
		),
		Transactions: mergeByID(existing.Transactions, incoming.Transactions,
			func(t Transaction) string { return t.ID },
			newerTransaction,
		),
		Categories: mergeByID(existing.Categories, incoming.Categories,
			func(c Category) string { return c.ID },
			func(Category, Category) bool { return true },
		),
		Debts: mergeByID(existing.Debts, incoming.Debts,
			func(d Debt) string { return d.ID },
			func(cur, next Debt) bool { return newer(cur.UpdatedAt, next.UpdatedAt) },
		),
		ExchangeRates: rates,
	}
}

// mergeByID проходит existing, затем incoming; replace решает, заменяет ли next текущую запись
func mergeByID[T any](existing, incoming []T, id func(T) string, replace func(cur, next T) bool) []T {
	out := make([]T, 0, len(existing)+len(incoming))
	pos := make(map[string]int, len(existing)+len(incoming))

	add := func(rec T) {
		key := id(rec)
		if i, ok := pos[key]; ok {
			if replace(out[i], rec) {
				out[i] = rec
			}
			return
		}
		pos[key] = len(out)
		out = append(out, rec)
	}

	for _, rec := range existing {
		add(rec)
	}
	for _, rec := range incoming {
		add(rec)
	}
	return out
}

// newer: отметка побеждает отсутствие отметки, равенство оставляет текущую
func newer(cur, next Timestamp) bool {
	switch {
	case next.IsZero():
		return false
	case cur.IsZero():
		return true
	default:
		return next.After(cur)
	}
}

func newerTransaction(cur, next Transaction) bool {
	if cur.UpdatedAt.IsZero() && next.UpdatedAt.IsZero() {
		return newer(cur.Date, next.Date)
	}
	return newer(cur.UpdatedAt, next.UpdatedAt)
}
