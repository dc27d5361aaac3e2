// Package signer provides the signing identities used to authorize
// extrinsics: Ed25519 keypairs created from a secret URI, a well-known
// development account, or an encrypted keyfile.
package signer

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Signer can authorize an extrinsic for a target chain. Implementations
// hold key material; callers only store and forward the value.
type Signer interface {
	// AccountID returns the 32-byte public account identifier.
	AccountID() [32]byte
	// Address renders the account ID in SS58 form for the given network prefix.
	Address(prefix uint16) string
	// Sign signs the payload and returns the raw signature.
	Sign(payload []byte) ([]byte, error)
	// Scheme names the signature scheme, e.g. "ed25519".
	Scheme() string
}

var (
	ErrInvalidSeed = errors.New("invalid seed: expected 32 bytes of hex")
	ErrEmptySURI   = errors.New("empty secret URI")
)

// devSeed is the mini-secret behind the well-known substrate development
// phrase; //Alice, //Bob etc. are hard derivations from it.
const devSeed = "fac7959dbfe72f052e5a0c3c8d6530f202b02fd8f9f5ca3580ec8deb7797479e"

// devAccounts are the bare names accepted as shorthand for dev derivations.
var devAccounts = map[string]bool{
	"Alice": true, "Bob": true, "Charlie": true,
	"Dave": true, "Eve": true, "Ferdie": true,
}

// Keypair is an Ed25519 signing identity.
type Keypair struct {
	priv ed25519.PrivateKey
}

// FromSeed creates a keypair from a 32-byte seed.
func FromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidSeed
	}
	return &Keypair{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// FromSURI creates a keypair from a secret URI: a 0x-prefixed 32-byte hex
// seed, optionally followed by hard junctions ("0xseed//stash"), or a dev
// account path ("//Alice"). Bare dev names ("Alice") are also accepted.
func FromSURI(suri string) (*Keypair, error) {
	suri = strings.TrimSpace(suri)
	if suri == "" {
		return nil, ErrEmptySURI
	}
	if devAccounts[suri] {
		suri = "//" + suri
	}

	seedPart, junctions := splitJunctions(suri)
	if seedPart == "" {
		// A URI starting with "//" derives from the dev seed.
		seedPart = devSeed
	}

	seed, err := hex.DecodeString(strings.TrimPrefix(seedPart, "0x"))
	if err != nil || len(seed) != 32 {
		return nil, ErrInvalidSeed
	}

	for _, j := range junctions {
		seed = deriveHard(seed, j)
	}
	return FromSeed(seed)
}

// splitJunctions splits a secret URI into its seed part and hard junctions.
// Soft junctions ("/x") are not supported for Ed25519 and are treated as
// part of the adjacent hard junction name, matching subkey's behavior of
// rejecting them; we keep parsing simple by only honoring "//".
func splitJunctions(suri string) (string, []string) {
	parts := strings.Split(suri, "//")
	junctions := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		if p != "" {
			junctions = append(junctions, p)
		}
	}
	return parts[0], junctions
}

// deriveHard applies the Ed25519HDKD hard-junction derivation: the new
// seed is blake2b-256 over the SCALE-tagged label, the parent seed, and
// the 32-byte chain code built from the junction name.
func deriveHard(seed []byte, junction string) []byte {
	const label = "Ed25519HDKD"

	cc := chainCode(junction)
	h, _ := blake2b.New256(nil)
	h.Write(compactLen(len(label)))
	h.Write([]byte(label))
	h.Write(seed)
	h.Write(cc[:])
	return h.Sum(nil)
}

// chainCode builds the 32-byte chain code for a junction name: the
// SCALE-encoded string, zero-padded; names longer than 32 bytes are
// replaced by their blake2b-256 hash.
func chainCode(junction string) [32]byte {
	var cc [32]byte
	data := append(compactLen(len(junction)), []byte(junction)...)
	if len(data) > 32 {
		return blake2b.Sum256([]byte(junction))
	}
	copy(cc[:], data)
	return cc
}

// compactLen SCALE-encodes a small length prefix.
func compactLen(n int) []byte {
	v := uint64(n) << 2
	switch {
	case n < 64:
		return []byte{byte(v)}
	default:
		return []byte{byte(v | 0x01), byte(v >> 8)}
	}
}

// AccountID returns the public key bytes.
func (k *Keypair) AccountID() [32]byte {
	var id [32]byte
	copy(id[:], k.priv.Public().(ed25519.PublicKey))
	return id
}

// Address renders the account in SS58 form.
func (k *Keypair) Address(prefix uint16) string {
	id := k.AccountID()
	return EncodeSS58(id[:], prefix)
}

// Sign signs payload with the Ed25519 private key.
func (k *Keypair) Sign(payload []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, payload), nil
}

// Scheme returns the signature scheme identifier.
func (k *Keypair) Scheme() string {
	return "ed25519"
}

// Verify reports whether sig is a valid signature of payload by the
// keypair's public key. Used by tests and the keyfile round-trip check.
func (k *Keypair) Verify(payload, sig []byte) bool {
	return ed25519.Verify(k.priv.Public().(ed25519.PublicKey), payload, sig)
}

// Seed returns the 32-byte seed. Only the keyfile writer needs it.
func (k *Keypair) Seed() []byte {
	return k.priv.Seed()
}

func (k *Keypair) String() string {
	id := k.AccountID()
	return fmt.Sprintf("ed25519:%s", hex.EncodeToString(id[:4]))
}
