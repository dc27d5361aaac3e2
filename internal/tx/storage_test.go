package tx

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The System.Account storage prefix is a fixture every Substrate tool
// agrees on, which pins the hasher down exactly.
func TestTwox128_KnownVectors(t *testing.T) {
	assert.Equal(t, "26aa394eea5630e07c48ae0c9558cef7", hex.EncodeToString(twox128([]byte("System"))))
	assert.Equal(t, "b99d880ec681799c0cf30e8886371da9", hex.EncodeToString(twox128([]byte("Account"))))
}

func TestCodeInfoKey(t *testing.T) {
	var hash [32]byte
	for i := range hash {
		hash[i] = byte(i)
	}

	key := CodeInfoKey(hash)
	require.Len(t, key, 64)
	assert.Equal(t, twox128([]byte("Contracts")), key[:16])
	assert.Equal(t, twox128([]byte("CodeInfoOf")), key[16:32])
	assert.Equal(t, hash[:], key[32:])

	var other [32]byte
	other[0] = 0xff
	assert.NotEqual(t, key, CodeInfoKey(other))
	assert.Equal(t, key[:32], CodeInfoKey(other)[:32], "map prefix is constant")
}
