package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "12.50", want: "12.5"},
		{in: " 7 ", want: "7"},
		{in: "3,25", want: "3.25"},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseMoney(tt.in, "сумма")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseDate(t *testing.T) {
	ts, err := parseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T00:00:00Z", ts.String())

	ts, err = parseDate("")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	_, err = parseDate("01/03/2024")
	assert.Error(t, err)
}
