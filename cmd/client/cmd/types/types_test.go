package types

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashcraft/internal/app/client"
)

func TestExplain(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
		wrapped  error
	}{
		{name: "no credential", err: client.ErrNoCredential, contains: "auth login"},
		{name: "expired", err: fmt.Errorf("%w: 401", client.ErrAuthExpired), contains: "сессия истекла"},
		{name: "unreachable keeps cause", err: fmt.Errorf("%w: dial", client.ErrUnreachable), contains: "сервер недоступен", wrapped: client.ErrUnreachable},
		{name: "suppressed", err: client.ErrSyncSuppressed, contains: "sync ack"},
		{name: "other passes through", err: errors.New("boom"), contains: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Explain(tt.err)
			require.Error(t, got)
			assert.Contains(t, got.Error(), tt.contains)
			if tt.wrapped != nil {
				assert.ErrorIs(t, got, tt.wrapped)
			}
		})
	}
	assert.NoError(t, Explain(nil))
}

func TestApp_Missing(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	_, err := App(cmd)
	assert.Error(t, err)
}
