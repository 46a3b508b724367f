package authgate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedListIdentity_VerifySecret(t *testing.T) {
	id := NewFixedListIdentity()
	ctx := context.Background()

	ok, err := id.VerifySecret(ctx, "admin", DemoPassword)
	require.NoError(t, err)
	require.True(t, ok)

	// the password comparison is case-sensitive
	ok, err = id.VerifySecret(ctx, "admin", "planos2024!")
	require.NoError(t, err)
	require.False(t, ok)

	// unknown identities never verify, whatever the secret
	ok, err = id.VerifySecret(ctx, "root", DemoPassword)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFixedListIdentity_DisplayName(t *testing.T) {
	id := NewFixedListIdentity()

	name, ok := id.DisplayName("ADMIN")
	require.True(t, ok)
	require.Equal(t, "Administrador del Sistema", name)

	_, ok = id.DisplayName("root")
	require.False(t, ok)
}
