package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := DeriveKey("passphrase")

	encrypted, err := Encrypt([]byte("hello world"), key)
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "hello")

	decrypted, err := Decrypt(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), decrypted)
}

func TestEncryptProducesUniqueCiphertext(t *testing.T) {
	key := DeriveKey("passphrase")

	a, err := Encrypt([]byte("same input"), key)
	require.NoError(t, err)
	b, err := Encrypt([]byte("same input"), key)
	require.NoError(t, err)

	// Random nonce per call.
	assert.NotEqual(t, a, b)
}

func TestDecryptWithWrongKey(t *testing.T) {
	encrypted, err := Encrypt([]byte("secret"), DeriveKey("right"))
	require.NoError(t, err)

	_, err = Decrypt(encrypted, DeriveKey("wrong"))
	assert.Error(t, err)
}

func TestDecryptGarbage(t *testing.T) {
	key := DeriveKey("passphrase")

	_, err := Decrypt("not base64!!!", key)
	assert.Error(t, err)

	_, err = Decrypt("c2hvcnQ=", key) // valid base64, shorter than a nonce
	assert.Error(t, err)
}

func TestDeriveKeyIsDeterministic(t *testing.T) {
	assert.Equal(t, DeriveKey("a"), DeriveKey("a"))
	assert.NotEqual(t, DeriveKey("a"), DeriveKey("b"))
	assert.Len(t, DeriveKey("a"), 32)
}
