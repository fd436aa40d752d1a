package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key-at-least-32-bytes!!")

func TestNewTokenIssuer(t *testing.T) {
	t.Run("rejects short signing key", func(t *testing.T) {
		_, err := NewTokenIssuer([]byte("too-short"), time.Hour)
		require.Error(t, err)
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		_, err := NewTokenIssuer(testSigningKey, 0)
		require.Error(t, err)
	})
}

func TestIssueAndVerify(t *testing.T) {
	issuer, err := NewTokenIssuer(testSigningKey, time.Hour)
	require.NoError(t, err)

	identity := Identity{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: uuid.Must(uuid.NewV7()),
		Admin:          true,
	}

	tokenStr, err := issuer.Issue(identity)
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	got, err := issuer.Verify(tokenStr)
	require.NoError(t, err)
	require.Equal(t, identity, got)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer, err := NewTokenIssuer(testSigningKey, time.Millisecond)
	require.NoError(t, err)

	tokenStr, err := issuer.Issue(Identity{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: uuid.Must(uuid.NewV7()),
	})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = issuer.Verify(tokenStr)
	require.Error(t, err)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	issuer, err := NewTokenIssuer(testSigningKey, time.Hour)
	require.NoError(t, err)

	other, err := NewTokenIssuer([]byte("another-signing-key-32-bytes-long!!!"), time.Hour)
	require.NoError(t, err)

	tokenStr, err := issuer.Issue(Identity{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: uuid.Must(uuid.NewV7()),
	})
	require.NoError(t, err)

	_, err = other.Verify(tokenStr)
	require.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer, err := NewTokenIssuer(testSigningKey, time.Hour)
	require.NoError(t, err)

	_, err = issuer.Verify("not.a.token")
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2-but-longer")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2-but-longer", hash)

	require.True(t, CheckPassword(hash, "hunter2-but-longer"))
	require.False(t, CheckPassword(hash, "wrong-password"))
}

func TestGeneratedSecrets(t *testing.T) {
	password, err := GeneratePassword()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(password), 16)

	key, err := GenerateKey()
	require.NoError(t, err)
	require.Greater(t, len(key), len(password))
	require.False(t, strings.ContainsAny(key, "0OIl"), "base58 alphabet excludes ambiguous characters")

	again, err := GenerateKey()
	require.NoError(t, err)
	require.NotEqual(t, key, again)
}
