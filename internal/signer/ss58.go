package signer

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// ss58Prefix is the context prefix mixed into the SS58 checksum.
var ss58Prefix = []byte("SS58PRE")

var (
	ErrInvalidAddress  = errors.New("invalid SS58 address")
	ErrAddressChecksum = errors.New("SS58 checksum mismatch")
)

// EncodeSS58 renders a 32-byte account ID as an SS58 address for the given
// network prefix. Prefixes below 64 use the one-byte form, larger ones the
// two-byte form.
func EncodeSS58(accountID []byte, prefix uint16) string {
	var data []byte
	if prefix < 64 {
		data = append(data, byte(prefix))
	} else {
		// Two-byte encoding per the SS58 registry: the ident is spread
		// over the low bits of both bytes with the marker range 64..127.
		ident := prefix & 0x3fff
		data = append(data,
			byte((ident&0xfc)>>2)|0x40,
			byte(ident>>8)|byte((ident&0x03)<<6),
		)
	}
	data = append(data, accountID...)

	checksum := ss58Checksum(data)
	data = append(data, checksum[:2]...)
	return base58.Encode(data)
}

// DecodeSS58 parses an SS58 address, returning the account ID and prefix.
func DecodeSS58(address string) ([]byte, uint16, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	var prefix uint16
	var body []byte
	switch {
	case len(raw) == 35 && raw[0] < 64:
		prefix = uint16(raw[0])
		body = raw[:33]
	case len(raw) == 36 && raw[0] >= 64 && raw[0] < 128:
		lower := (raw[0] << 2) | (raw[1] >> 6)
		upper := raw[1] & 0x3f
		prefix = uint16(lower) | uint16(upper)<<8
		body = raw[:34]
	default:
		return nil, 0, ErrInvalidAddress
	}

	checksum := ss58Checksum(body)
	if raw[len(body)] != checksum[0] || raw[len(body)+1] != checksum[1] {
		return nil, 0, ErrAddressChecksum
	}
	return raw[len(body)-32 : len(body)], prefix, nil
}

func ss58Checksum(data []byte) [64]byte {
	h, _ := blake2b.New512(nil)
	h.Write(ss58Prefix)
	h.Write(data)
	var sum [64]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
