package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	encoded, err := encrypt(testKey, []byte(`{"apiKey":"k"}`), []byte("trello"))
	require.NoError(t, err)
	assert.NotContains(t, encoded, "apiKey")

	plain, err := decrypt(testKey, encoded, []byte("trello"))
	require.NoError(t, err)
	assert.Equal(t, `{"apiKey":"k"}`, string(plain))
}

func TestEncrypt_FreshNoncePerCall(t *testing.T) {
	a, err := encrypt(testKey, []byte("same"), nil)
	require.NoError(t, err)
	b, err := encrypt(testKey, []byte("same"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecrypt_Failures(t *testing.T) {
	encoded, err := encrypt(testKey, []byte("secret"), []byte("trello"))
	require.NoError(t, err)

	_, err = decrypt(testKey, encoded, []byte("github"))
	assert.ErrorContains(t, err, "gcm.Open")

	_, err = decrypt(testKey, "!!not base64!!", nil)
	assert.ErrorContains(t, err, "base64 decode")

	_, err = decrypt(testKey, "AAAA", nil)
	assert.ErrorContains(t, err, "ciphertext too short")

	_, err = decrypt([]byte("short"), encoded, nil)
	assert.ErrorContains(t, err, "aes.NewCipher")
}
