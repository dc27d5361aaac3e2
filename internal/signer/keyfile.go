package signer

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/term"
)

// Keyfile holds a seed on disk, either in the clear or encrypted with a
// passphrase (scrypt key derivation, NaCl secretbox).
type Keyfile struct {
	Version int    `json:"version"`
	Scheme  string `json:"scheme"`
	Address string `json:"address"`
	// Seed is set for unencrypted keyfiles.
	Seed string `json:"seed,omitempty"`
	// Crypto is set for encrypted keyfiles.
	Crypto *keyfileCrypto `json:"crypto,omitempty"`
}

type keyfileCrypto struct {
	Cipher     string `json:"cipher"` // "nacl-secretbox"
	KDF        string `json:"kdf"`    // "scrypt"
	Salt       string `json:"salt"`
	N          int    `json:"n"`
	R          int    `json:"r"`
	P          int    `json:"p"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

var (
	ErrKeyfilePassword = errors.New("wrong keyfile passphrase")
	ErrKeyfileFormat   = errors.New("unsupported keyfile format")
)

const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// LoadKeyfile reads a keyfile and returns its keypair. For encrypted files
// an empty passphrase triggers an interactive prompt on the terminal.
func LoadKeyfile(path, passphrase string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keyfile: %w", err)
	}

	var kf Keyfile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parsing keyfile %s: %w", path, err)
	}
	if kf.Scheme != "" && kf.Scheme != "ed25519" {
		return nil, fmt.Errorf("%w: scheme %q", ErrKeyfileFormat, kf.Scheme)
	}

	switch {
	case kf.Crypto != nil:
		if passphrase == "" {
			passphrase, err = promptPassphrase(fmt.Sprintf("Passphrase for %s: ", path))
			if err != nil {
				return nil, err
			}
		}
		seed, err := kf.Crypto.decrypt(passphrase)
		if err != nil {
			return nil, err
		}
		return FromSeed(seed)
	case kf.Seed != "":
		seed, err := hex.DecodeString(kf.Seed)
		if err != nil {
			return nil, fmt.Errorf("%w: bad seed hex", ErrKeyfileFormat)
		}
		return FromSeed(seed)
	default:
		return nil, fmt.Errorf("%w: neither seed nor crypto section", ErrKeyfileFormat)
	}
}

// WriteKeyfile stores the keypair at path. A non-empty passphrase encrypts
// the seed; otherwise it is written in the clear with 0600 permissions.
func WriteKeyfile(path string, kp *Keypair, passphrase string, prefix uint16) error {
	kf := Keyfile{
		Version: 1,
		Scheme:  kp.Scheme(),
		Address: kp.Address(prefix),
	}

	if passphrase == "" {
		kf.Seed = hex.EncodeToString(kp.Seed())
	} else {
		c, err := encryptSeed(kp.Seed(), passphrase)
		if err != nil {
			return err
		}
		kf.Crypto = c
	}

	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func encryptSeed(seed []byte, passphrase string) (*keyfileCrypto, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, err
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	var boxKey [32]byte
	copy(boxKey[:], key)
	sealed := secretbox.Seal(nil, seed, &nonce, &boxKey)

	return &keyfileCrypto{
		Cipher:     "nacl-secretbox",
		KDF:        "scrypt",
		Salt:       hex.EncodeToString(salt),
		N:          scryptN,
		R:          scryptR,
		P:          scryptP,
		Nonce:      hex.EncodeToString(nonce[:]),
		Ciphertext: hex.EncodeToString(sealed),
	}, nil
}

func (c *keyfileCrypto) decrypt(passphrase string) ([]byte, error) {
	if c.Cipher != "nacl-secretbox" || c.KDF != "scrypt" {
		return nil, fmt.Errorf("%w: cipher %q kdf %q", ErrKeyfileFormat, c.Cipher, c.KDF)
	}
	salt, err := hex.DecodeString(c.Salt)
	if err != nil {
		return nil, ErrKeyfileFormat
	}
	key, err := scrypt.Key([]byte(passphrase), salt, c.N, c.R, c.P, 32)
	if err != nil {
		return nil, err
	}

	nonceBytes, err := hex.DecodeString(c.Nonce)
	if err != nil || len(nonceBytes) != 24 {
		return nil, ErrKeyfileFormat
	}
	sealed, err := hex.DecodeString(c.Ciphertext)
	if err != nil {
		return nil, ErrKeyfileFormat
	}

	var nonce [24]byte
	copy(nonce[:], nonceBytes)
	var boxKey [32]byte
	copy(boxKey[:], key)

	seed, ok := secretbox.Open(nil, sealed, &nonce, &boxKey)
	if !ok {
		return nil, ErrKeyfilePassword
	}
	return seed, nil
}

// promptPassphrase reads a passphrase from the terminal without echo.
func promptPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pw), nil
}
