package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope_Shape(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name: "valid",
			body: `{"data":{"accounts":[],"transactions":[],"categories":[],"debts":[],"exchangeRates":[]},"lastSyncAt":"2024-01-01T00:00:00Z","syncToken":"7"}`,
		},
		{
			name:    "collection is object",
			body:    `{"data":{"accounts":{},"transactions":[],"categories":[],"debts":[],"exchangeRates":[]}}`,
			wantErr: true,
		},
		{
			name:    "collection is null",
			body:    `{"data":{"accounts":[],"transactions":null,"categories":[],"debts":[],"exchangeRates":[]}}`,
			wantErr: true,
		},
		{
			name:    "collection missing",
			body:    `{"data":{"accounts":[],"transactions":[],"categories":[],"debts":[]}}`,
			wantErr: true,
		},
		{
			name:    "data missing",
			body:    `{"lastSyncAt":"2024-01-01T00:00:00Z"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			body:    `<html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := DecodeEnvelope([]byte(tt.body))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedShape)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, MustParse("2024-01-01T00:00:00Z"), raw.LastSyncAt)
			assert.Equal(t, "7", raw.SyncToken)
		})
	}
}

func TestDecodeEnvelope_NumericSyncToken(t *testing.T) {
	raw, err := DecodeEnvelope([]byte(`{"data":{"accounts":[],"transactions":[],"categories":[],"debts":[],"exchangeRates":[]},"syncToken":42}`))
	require.NoError(t, err)
	assert.Equal(t, "42", raw.SyncToken)
	assert.True(t, raw.LastSyncAt.IsZero())
}

func TestImporter_SoftFail(t *testing.T) {
	body := `{
		"accounts": [
			{"id":"a1","name":"Wallet","balance":"100.50","updatedAt":"2024-01-01T00:00:00Z"},
			{"id":"a2","name":"Card","balance":"abc"},
			{"id":"a3","balance":10}
		],
		"transactions": [
			{"id":"t1","accountId":"a1","amount":25,"type":"expense","date":"2024-01-02"},
			{"id":"t2","accountId":"a1","amount":0,"type":"expense","date":"2024-01-02"},
			{"id":"t3","accountId":"ghost","amount":5,"type":"income","date":"2024-01-02"},
			{"id":"t4","accountId":"a1","amount":5,"type":"transfer","date":"2024-01-02"},
			{"id":"t5","accountId":"a1","amount":5,"type":"income"}
		],
		"categories": [{"id":"c1","name":"Food"},{"id":"c2"}],
		"debts": [
			{"id":"d1","name":"Bob","amount":10,"type":"owed_to_me"},
			{"id":"d2","name":"Ann","amount":10,"type":"gift"}
		],
		"exchangeRates": [
			{"fromCurrency":"USD","toCurrency":"EUR","rate":0.9},
			{"fromCurrency":"USD","toCurrency":"EUR","rate":-1}
		]
	}`

	raw, err := DecodeData([]byte(body))
	require.NoError(t, err)

	snap, rejected := NewImporter(nil).Import(raw)

	require.Len(t, snap.Accounts, 1)
	assert.Equal(t, "a1", snap.Accounts[0].ID)
	assert.Equal(t, AccountCash, snap.Accounts[0].Type)
	assert.Equal(t, "100.5", snap.Accounts[0].Balance.String())

	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, "t1", snap.Transactions[0].ID)
	assert.Len(t, snap.Categories, 1)
	assert.Len(t, snap.Debts, 1)
	assert.Len(t, snap.ExchangeRates, 1)

	assert.Len(t, rejected, 9)
	for _, r := range rejected {
		assert.ErrorIs(t, r, ErrRecordRejected)
		assert.NotEmpty(t, r.Reason)
	}
}

func TestImporter_OneBadRecordKeepsTheRest(t *testing.T) {
	good := func(id string) json.RawMessage {
		return json.RawMessage(`{"id":"` + id + `","name":"acc","balance":1}`)
	}
	raw := &RawSnapshot{Accounts: []json.RawMessage{
		good("a1"), good("a2"), json.RawMessage(`{"id":"a3","name":"acc"}`), good("a4"),
	}}

	snap, rejected := NewImporter(nil).Import(raw)
	assert.Len(t, snap.Accounts, 3)
	require.Len(t, rejected, 1)
	assert.Equal(t, "a3", rejected[0].ID)
	assert.Equal(t, 2, rejected[0].Index)
	assert.Equal(t, "missing balance", rejected[0].Reason)
}

func TestImporter_DuplicateAndTimestampOrder(t *testing.T) {
	raw := &RawSnapshot{
		Accounts: []json.RawMessage{
			json.RawMessage(`{"id":"a1","name":"one","balance":1}`),
			json.RawMessage(`{"id":"a1","name":"two","balance":2}`),
			json.RawMessage(`{"id":"a2","name":"x","balance":1,"createdAt":"2024-02-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}`),
		},
	}

	snap, rejected := NewImporter(nil).Import(raw)
	require.Len(t, snap.Accounts, 1)
	assert.Equal(t, "one", snap.Accounts[0].Name)
	assert.Len(t, rejected, 2)
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "rfc3339", input: `"2024-01-02T03:04:05.678Z"`, want: 1704164645678},
		{name: "date only", input: `"2024-01-02"`, want: 1704153600000},
		{name: "millis", input: `1704153600000`, want: 1704153600000},
		{name: "null", input: `null`, want: 0},
		{name: "empty", input: `""`, want: 0},
		{name: "garbage", input: `"yesterday"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := json.Unmarshal([]byte(tt.input), &ts)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ts.Millis())
		})
	}
}

func TestSnapshot_MarshalEmptyCollections(t *testing.T) {
	data, err := json.Marshal(Snapshot{})
	require.NoError(t, err)

	_, err = DecodeData(data)
	require.NoError(t, err)
}

func TestImportOnto_ResolvesBaseAccounts(t *testing.T) {
	raw, err := DecodeData([]byte(`{
		"accounts":[],
		"transactions":[
			{"id":"t1","accountId":"stored","amount":3,"type":"income","date":"2024-01-01"},
			{"id":"t2","accountId":"ghost","amount":3,"type":"income","date":"2024-01-01"}
		],
		"categories":[],"debts":[],"exchangeRates":[]
	}`))
	require.NoError(t, err)

	base := &Snapshot{Accounts: []Account{{ID: "stored", Name: "Stored"}}}

	snap, rejected := NewImporter(nil).ImportOnto(raw, base)
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, "t1", snap.Transactions[0].ID)
	require.Len(t, rejected, 1)
	assert.Equal(t, "t2", rejected[0].ID)

	_, rejected = NewImporter(nil).Import(raw)
	assert.Len(t, rejected, 2)
}
