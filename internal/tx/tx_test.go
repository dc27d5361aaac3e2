package tx

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/inkctl/internal/scale"
	"github.com/pendergraft/inkctl/internal/signer"
)

func TestUploadCode_Encoding(t *testing.T) {
	code := []byte{0x00, 0x61, 0x73, 0x6d}

	call, err := UploadCode(8, code, nil, DeterminismEnforced)
	require.NoError(t, err)

	// pallet, call index, compact len + code, None, determinism
	want := []byte{8, 3, 0x10, 0x00, 0x61, 0x73, 0x6d, 0x00, 0x00}
	assert.Equal(t, want, call)

	// With a deposit limit the option is Some(compact).
	call, err = UploadCode(8, code, big.NewInt(42), DeterminismEnforced)
	require.NoError(t, err)
	want = []byte{8, 3, 0x10, 0x00, 0x61, 0x73, 0x6d, 0x01, 0xa8, 0x00}
	assert.Equal(t, want, call)
}

func TestRemoveCode_Encoding(t *testing.T) {
	var hash [32]byte
	hash[0] = 0xaa

	call := RemoveCode(8, hash)
	assert.Equal(t, byte(8), call[0])
	assert.Equal(t, byte(4), call[1])
	assert.Equal(t, hash[:], call[2:])
}

func TestContractCall_Encoding(t *testing.T) {
	var dest [32]byte
	dest[31] = 0x01

	call, err := ContractCall(8, dest, big.NewInt(0), Weight{RefTime: 1, ProofSize: 2}, nil, []byte{0xde, 0xad})
	require.NoError(t, err)

	assert.Equal(t, []byte{8, 6, 0x00}, call[:3]) // pallet, call, MultiAddress::Id
	assert.Equal(t, dest[:], call[3:35])
	// value compact(0), weight compact(1) compact(2), None, data
	assert.Equal(t, []byte{0x00, 0x04, 0x08, 0x00, 0x08, 0xde, 0xad}, call[35:])
}

func TestInstantiate_Variants(t *testing.T) {
	var codeHash [32]byte
	gas := Weight{RefTime: 1 << 40, ProofSize: 1 << 20}

	withCode, err := InstantiateWithCode(8, nil, gas, nil, []byte{1, 2, 3}, []byte{4}, []byte{5})
	require.NoError(t, err)
	assert.Equal(t, []byte{8, 7}, withCode[:2])

	fromHash, err := Instantiate(8, nil, gas, nil, codeHash, []byte{4}, []byte{5})
	require.NoError(t, err)
	assert.Equal(t, []byte{8, 8}, fromHash[:2])

	// Same constructor data and salt, different code reference.
	assert.NotEqual(t, withCode, fromHash)
}

func TestSign_Envelope(t *testing.T) {
	kp, err := signer.FromSURI("//Alice")
	require.NoError(t, err)

	call, err := UploadCode(8, []byte{0x00, 0x61, 0x73, 0x6d}, nil, DeterminismEnforced)
	require.NoError(t, err)

	ctx := SigningContext{
		SpecVersion: 100,
		TxVersion:   3,
		Nonce:       7,
	}
	ext, err := Sign(kp, call, ctx)
	require.NoError(t, err)

	// The envelope is a length-prefixed body.
	d := scale.NewDecoder(ext)
	body, err := d.Bytes()
	require.NoError(t, err)
	assert.Zero(t, d.Remaining())

	// version | MultiAddress::Id | account | MultiSignature::Ed25519 | sig
	assert.Equal(t, byte(0x84), body[0])
	assert.Equal(t, byte(0x00), body[1])
	account := kp.AccountID()
	assert.Equal(t, account[:], body[2:34])
	assert.Equal(t, byte(0x00), body[34])
	sig := body[35:99]

	// era 0x00, compact nonce, compact tip, then the call verbatim.
	assert.Equal(t, byte(0x00), body[99])
	assert.Equal(t, byte(7<<2), body[100])
	assert.Equal(t, byte(0x00), body[101])
	assert.Equal(t, call, body[102:])

	// The signature covers call ++ extra ++ additional context.
	var payload scale.Encoder
	payload.Raw(call)
	payload.Raw([]byte{0x00, 7 << 2, 0x00})
	payload.U32(ctx.SpecVersion)
	payload.U32(ctx.TxVersion)
	payload.Raw(ctx.GenesisHash[:])
	payload.Raw(ctx.GenesisHash[:])
	assert.True(t, kp.Verify(payload.Bytes(), sig))
}

func TestSign_LargePayloadIsHashed(t *testing.T) {
	kp, err := signer.FromSURI("//Bob")
	require.NoError(t, err)

	code := make([]byte, 1024)
	call, err := UploadCode(8, code, nil, DeterminismEnforced)
	require.NoError(t, err)

	ext, err := Sign(kp, call, SigningContext{Nonce: 0})
	require.NoError(t, err)

	d := scale.NewDecoder(ext)
	body, err := d.Bytes()
	require.NoError(t, err)
	sig := body[35:99]

	var payload scale.Encoder
	payload.Raw(call)
	payload.Raw([]byte{0x00, 0x00, 0x00})
	payload.U32(0)
	payload.U32(0)
	payload.Raw(make([]byte, 64))

	hashed := Hash(payload.Bytes())
	assert.True(t, kp.Verify(hashed[:], sig))
}

func TestSign_NoSigner(t *testing.T) {
	_, err := Sign(nil, []byte{1}, SigningContext{})
	assert.ErrorIs(t, err, ErrNoSigner)
}
