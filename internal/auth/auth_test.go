package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabletap/internal/domain"
)

func TestOwnerTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret")
	ownerID := uuid.New()

	tok, err := tokens.MintOwner(ownerID)
	require.NoError(t, err)

	ident, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, ident.Role)
	assert.Equal(t, ownerID, ident.OwnerID)
	assert.Empty(t, ident.Phone)
}

func TestCustomerTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret")

	tok, err := tokens.MintCustomer("+94771234567")
	require.NoError(t, err)

	ident, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, ident.Role)
	assert.Equal(t, "+94771234567", ident.Phone)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, err := NewTokens("secret-a").MintOwner(uuid.New())
	require.NoError(t, err)

	_, err = NewTokens("secret-b").Verify(tok)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := NewTokens("test-secret").Verify("not.a.token")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRequireOwner(t *testing.T) {
	ownerID := uuid.New()
	rest := domain.Restaurant{ID: uuid.New(), OwnerID: ownerID}

	assert.NoError(t, RequireOwner(Identity{Role: RoleOwner, OwnerID: ownerID}, rest))

	err := RequireOwner(Identity{Role: RoleOwner, OwnerID: uuid.New()}, rest)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	err = RequireOwner(Identity{Role: RoleCustomer, Phone: "+94770000000"}, rest)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRequirePhone(t *testing.T) {
	assert.NoError(t, RequirePhone(Identity{Role: RoleCustomer, Phone: "+94770000000"}, "+94770000000"))

	err := RequirePhone(Identity{Role: RoleCustomer, Phone: "+94771111111"}, "+94770000000")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	err = RequirePhone(Identity{Role: RoleOwner, OwnerID: uuid.New()}, "+94770000000")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
