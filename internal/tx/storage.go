package tx

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// CodeInfoKey returns the storage key of the contracts pallet's
// CodeInfoOf entry for a code hash. The map uses the identity hasher,
// so the key is twox128("Contracts") ++ twox128("CodeInfoOf") ++ hash.
func CodeInfoKey(codeHash [32]byte) []byte {
	key := make([]byte, 0, 64)
	key = append(key, twox128([]byte("Contracts"))...)
	key = append(key, twox128([]byte("CodeInfoOf"))...)
	key = append(key, codeHash[:]...)
	return key
}

// twox128 concatenates the little-endian xxhash64 of the input under
// seeds 0 and 1.
func twox128(data []byte) []byte {
	out := make([]byte, 16)
	var d xxhash.Digest
	d.ResetWithSeed(0)
	_, _ = d.Write(data)
	binary.LittleEndian.PutUint64(out[:8], d.Sum64())
	d.ResetWithSeed(1)
	_, _ = d.Write(data)
	binary.LittleEndian.PutUint64(out[8:], d.Sum64())
	return out
}
