// Package tx builds signed contract extrinsics: SCALE-encoded
// contracts-pallet calls wrapped in a v4 signed extrinsic envelope.
package tx

import (
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"

	"github.com/pendergraft/inkctl/internal/scale"
	"github.com/pendergraft/inkctl/internal/signer"
)

// DefaultPalletIndex is the contracts pallet index used when the target
// chain does not override it.
const DefaultPalletIndex uint8 = 8

// Call indices within the contracts pallet.
const (
	callUploadCode          uint8 = 3
	callRemoveCode          uint8 = 4
	callCall                uint8 = 6
	callInstantiateWithCode uint8 = 7
	callInstantiate         uint8 = 8
)

// Determinism restricts what kind of code upload_code accepts.
type Determinism uint8

const (
	// DeterminismEnforced allows only fully deterministic code.
	DeterminismEnforced Determinism = 0
	// DeterminismRelaxed also admits indeterministic instructions.
	DeterminismRelaxed Determinism = 1
)

// Weight bounds the execution cost of a call.
type Weight struct {
	RefTime   uint64
	ProofSize uint64
}

func (w Weight) encode(e *scale.Encoder) {
	e.Compact(w.RefTime)
	e.Compact(w.ProofSize)
}

// SigningContext carries the chain and account state a signature commits
// to beyond the call itself.
type SigningContext struct {
	SpecVersion uint32
	TxVersion   uint32
	GenesisHash [32]byte
	Nonce       uint64
	Tip         *big.Int
}

var ErrNoSigner = errors.New("signing requires a signer")

// UploadCode encodes contracts::upload_code.
func UploadCode(pallet uint8, code []byte, storageDepositLimit *big.Int, d Determinism) ([]byte, error) {
	var e scale.Encoder
	e.U8(pallet)
	e.U8(callUploadCode)
	e.PutBytes(code)
	if err := encodeDepositLimit(&e, storageDepositLimit); err != nil {
		return nil, err
	}
	e.U8(uint8(d))
	return e.Bytes(), nil
}

// RemoveCode encodes contracts::remove_code.
func RemoveCode(pallet uint8, codeHash [32]byte) []byte {
	var e scale.Encoder
	e.U8(pallet)
	e.U8(callRemoveCode)
	e.Raw(codeHash[:])
	return e.Bytes()
}

// ContractCall encodes contracts::call to a contract address.
func ContractCall(pallet uint8, dest [32]byte, value *big.Int, gas Weight, storageDepositLimit *big.Int, data []byte) ([]byte, error) {
	var e scale.Encoder
	e.U8(pallet)
	e.U8(callCall)
	e.U8(0) // MultiAddress::Id
	e.Raw(dest[:])
	if err := e.CompactBig(orZero(value)); err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	gas.encode(&e)
	if err := encodeDepositLimit(&e, storageDepositLimit); err != nil {
		return nil, err
	}
	e.PutBytes(data)
	return e.Bytes(), nil
}

// InstantiateWithCode encodes contracts::instantiate_with_code, deploying
// new code and instantiating it in one extrinsic.
func InstantiateWithCode(pallet uint8, value *big.Int, gas Weight, storageDepositLimit *big.Int, code, data, salt []byte) ([]byte, error) {
	var e scale.Encoder
	e.U8(pallet)
	e.U8(callInstantiateWithCode)
	if err := e.CompactBig(orZero(value)); err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	gas.encode(&e)
	if err := encodeDepositLimit(&e, storageDepositLimit); err != nil {
		return nil, err
	}
	e.PutBytes(code)
	e.PutBytes(data)
	e.PutBytes(salt)
	return e.Bytes(), nil
}

// Instantiate encodes contracts::instantiate against already-uploaded code.
func Instantiate(pallet uint8, value *big.Int, gas Weight, storageDepositLimit *big.Int, codeHash [32]byte, data, salt []byte) ([]byte, error) {
	var e scale.Encoder
	e.U8(pallet)
	e.U8(callInstantiate)
	if err := e.CompactBig(orZero(value)); err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	gas.encode(&e)
	if err := encodeDepositLimit(&e, storageDepositLimit); err != nil {
		return nil, err
	}
	e.Raw(codeHash[:])
	e.PutBytes(data)
	e.PutBytes(salt)
	return e.Bytes(), nil
}

// Sign wraps a call in a v4 signed extrinsic: immortal era, Ed25519
// MultiSignature, MultiAddress::Id sender. Payloads over 256 bytes are
// hashed before signing, per the protocol.
func Sign(s signer.Signer, call []byte, ctx SigningContext) ([]byte, error) {
	if s == nil {
		return nil, ErrNoSigner
	}

	var extra scale.Encoder
	extra.U8(0) // immortal era
	extra.Compact(ctx.Nonce)
	if err := extra.CompactBig(orZero(ctx.Tip)); err != nil {
		return nil, fmt.Errorf("encoding tip: %w", err)
	}

	var payload scale.Encoder
	payload.Raw(call)
	payload.Raw(extra.Bytes())
	payload.U32(ctx.SpecVersion)
	payload.U32(ctx.TxVersion)
	payload.Raw(ctx.GenesisHash[:])
	payload.Raw(ctx.GenesisHash[:]) // immortal: checkpoint is genesis

	toSign := payload.Bytes()
	if len(toSign) > 256 {
		h := blake2b.Sum256(toSign)
		toSign = h[:]
	}

	sig, err := s.Sign(toSign)
	if err != nil {
		return nil, fmt.Errorf("signing payload: %w", err)
	}
	if len(sig) != 64 {
		return nil, fmt.Errorf("unexpected signature length %d", len(sig))
	}

	account := s.AccountID()

	var body scale.Encoder
	body.U8(0x84) // version 4, signed bit set
	body.U8(0)    // MultiAddress::Id
	body.Raw(account[:])
	body.U8(0) // MultiSignature::Ed25519
	body.Raw(sig)
	body.Raw(extra.Bytes())
	body.Raw(call)

	var ext scale.Encoder
	ext.PutBytes(body.Bytes())
	return ext.Bytes(), nil
}

// Hash returns the extrinsic hash used to identify a submitted extrinsic.
func Hash(extrinsic []byte) [32]byte {
	return blake2b.Sum256(extrinsic)
}

// encodeDepositLimit writes Option<Compact<Balance>>.
func encodeDepositLimit(e *scale.Encoder, limit *big.Int) error {
	if limit == nil {
		e.Option(false, nil)
		return nil
	}
	var encodeErr error
	e.Option(true, func(e *scale.Encoder) {
		encodeErr = e.CompactBig(limit)
	})
	if encodeErr != nil {
		return fmt.Errorf("encoding storage deposit limit: %w", encodeErr)
	}
	return nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
