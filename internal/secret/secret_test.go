package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 32 bytes of hex for tests only.
const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestNewCipher_RejectsBadKeys(t *testing.T) {
	t.Run("not hex", func(t *testing.T) {
		_, err := NewCipher("zz")
		assert.Error(t, err)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := NewCipher("0001")
		assert.Error(t, err)
	})
}

func TestSealOpen_RoundTrip(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Seal("gho_exampletoken123")
	require.NoError(t, err)
	assert.NotEqual(t, "gho_exampletoken123", sealed)
	assert.False(t, strings.Contains(sealed, "exampletoken"))

	opened, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "gho_exampletoken123", opened)
}

func TestSeal_RandomizedNonce(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	a, err := c.Seal("same token")
	require.NoError(t, err)
	b, err := c.Seal("same token")
	require.NoError(t, err)

	// Fresh nonce per seal: identical plaintexts must not produce
	// identical ciphertexts.
	assert.NotEqual(t, a, b)
}

func TestOpen_RejectsTamperedValue(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Seal("token")
	require.NoError(t, err)

	tampered := "A" + sealed[1:]
	if tampered == sealed {
		tampered = "B" + sealed[1:]
	}

	_, err = c.Open(tampered)
	assert.Error(t, err)
}

func TestNilCipher_PassesThrough(t *testing.T) {
	var c *Cipher

	sealed, err := c.Seal("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", sealed)

	opened, err := c.Open("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", opened)
}
