package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawSnapshot снимок после проверки формы: коллекции есть и являются массивами,
// сами записи еще не проверены
type RawSnapshot struct {
	Accounts      []json.RawMessage
	Transactions  []json.RawMessage
	Categories    []json.RawMessage
	Debts         []json.RawMessage
	ExchangeRates []json.RawMessage
	LastSyncAt    Timestamp
	SyncToken     string
}

// Collection возвращает сырые записи коллекции
func (r *RawSnapshot) Collection(c Collection) []json.RawMessage {
	switch c {
	case Accounts:
		return r.Accounts
	case Transactions:
		return r.Transactions
	case Categories:
		return r.Categories
	case Debts:
		return r.Debts
	case ExchangeRates:
		return r.ExchangeRates
	}
	return nil
}

// DecodeEnvelope разбирает {data:{...}, lastSyncAt, syncToken}.
// Любое нарушение формы дает ErrMalformedShape.
func DecodeEnvelope(body []byte) (*RawSnapshot, error) {
	var env struct {
		Data       json.RawMessage `json:"data"`
		LastSyncAt json.RawMessage `json:"lastSyncAt"`
		SyncToken  json.RawMessage `json:"syncToken"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedShape, err)
	}

	raw, err := DecodeData(env.Data)
	if err != nil {
		return nil, err
	}

	if len(env.LastSyncAt) > 0 {
		if err := json.Unmarshal(env.LastSyncAt, &raw.LastSyncAt); err != nil {
			return nil, fmt.Errorf("%w: lastSyncAt: %v", ErrMalformedShape, err)
		}
	}
	if len(env.SyncToken) > 0 && !isNull(env.SyncToken) {
		if err := json.Unmarshal(env.SyncToken, &raw.SyncToken); err != nil {
			// токен непрозрачен, число тоже допустимо
			raw.SyncToken = string(bytes.Trim(env.SyncToken, `"`))
		}
	}

	return raw, nil
}

// DecodeData проверяет, что объект содержит все пять коллекций-массивов
func DecodeData(data []byte) (*RawSnapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("%w: data is not an object", ErrMalformedShape)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedShape, err)
	}

	raw := &RawSnapshot{}
	targets := map[Collection]*[]json.RawMessage{
		Accounts:      &raw.Accounts,
		Transactions:  &raw.Transactions,
		Categories:    &raw.Categories,
		Debts:         &raw.Debts,
		ExchangeRates: &raw.ExchangeRates,
	}

	for _, c := range AllCollections {
		value, ok := fields[string(c)]
		if !ok {
			return nil, fmt.Errorf("%w: %s is missing", ErrMalformedShape, c)
		}
		value = bytes.TrimSpace(value)
		if len(value) == 0 || value[0] != '[' {
			return nil, fmt.Errorf("%w: %s is not an array", ErrMalformedShape, c)
		}
		if err := json.Unmarshal(value, targets[c]); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedShape, c, err)
		}
	}

	return raw, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
