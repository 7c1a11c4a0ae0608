package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestIssueAndValidateAccessToken(t *testing.T) {
	issuer := NewTokenIssuer(testKey(t), "latch", "latch")

	tok, err := issuer.IssueAccessToken("tenant-1", "user-1", 900)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	tenantID, userID, err := issuer.ValidateAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", tenantID)
	assert.Equal(t, "user-1", userID)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer(testKey(t), "latch", "latch")

	tok, err := issuer.IssueAccessToken("tenant-1", "user-1", -60)
	require.NoError(t, err)

	_, _, err = issuer.ValidateAccessToken(tok)
	assert.Error(t, err)
}

func TestValidateRejectsForeignKey(t *testing.T) {
	issuer := NewTokenIssuer(testKey(t), "latch", "latch")
	other := NewTokenIssuer(testKey(t), "latch", "latch")

	tok, err := issuer.IssueAccessToken("tenant-1", "user-1", 900)
	require.NoError(t, err)

	_, _, err = other.ValidateAccessToken(tok)
	assert.Error(t, err)
}

func TestLoadRSAPrivateKeyFromPEM(t *testing.T) {
	key := testKey(t)

	pkcs1 := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	got, err := LoadRSAPrivateKeyFromPEM(pkcs1)
	require.NoError(t, err)
	assert.True(t, key.Equal(got))

	pkcs8Bytes, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pkcs8 := pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: pkcs8Bytes,
	})
	got, err = LoadRSAPrivateKeyFromPEM(pkcs8)
	require.NoError(t, err)
	assert.True(t, key.Equal(got))

	_, err = LoadRSAPrivateKeyFromPEM([]byte("not a key"))
	assert.Error(t, err)
}
