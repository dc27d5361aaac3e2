// Package scale implements the subset of the SCALE codec needed to build
// contract extrinsics: compact integers, fixed-width little-endian
// integers, length-prefixed byte strings and options.
package scale

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrValueTooLarge = errors.New("value too large for compact encoding")
	ErrNegative      = errors.New("negative values cannot be SCALE encoded")
	ErrShortInput    = errors.New("unexpected end of SCALE input")
)

// Encoder accumulates SCALE-encoded data.
type Encoder struct {
	buf bytes.Buffer
}

// Bytes returns the encoded data.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Raw appends bytes without any prefix.
func (e *Encoder) Raw(b []byte) {
	e.buf.Write(b)
}

// U8 appends a single byte.
func (e *Encoder) U8(v uint8) {
	e.buf.WriteByte(v)
}

// U32 appends a little-endian u32.
func (e *Encoder) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

// U64 appends a little-endian u64.
func (e *Encoder) U64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

// U128 appends a little-endian u128.
func (e *Encoder) U128(v *big.Int) error {
	if v.Sign() < 0 {
		return ErrNegative
	}
	if v.BitLen() > 128 {
		return fmt.Errorf("%w: %s exceeds u128", ErrValueTooLarge, v)
	}
	var b [16]byte
	v.FillBytes(b[:])
	// FillBytes is big-endian; flip in place.
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	e.buf.Write(b[:])
	return nil
}

// Compact appends a compact-encoded unsigned integer.
func (e *Encoder) Compact(v uint64) {
	switch {
	case v < 1<<6:
		e.buf.WriteByte(byte(v << 2))
	case v < 1<<14:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v<<2)|0b01)
		e.buf.Write(b[:])
	case v < 1<<30:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v<<2)|0b10)
		e.buf.Write(b[:])
	default:
		e.compactBigMode(new(big.Int).SetUint64(v))
	}
}

// CompactBig appends a compact-encoded big integer (u128 range).
func (e *Encoder) CompactBig(v *big.Int) error {
	if v.Sign() < 0 {
		return ErrNegative
	}
	if v.BitLen() > 128 {
		return fmt.Errorf("%w: %s exceeds u128", ErrValueTooLarge, v)
	}
	if v.IsUint64() && v.Uint64() < 1<<30 {
		e.Compact(v.Uint64())
		return nil
	}
	e.compactBigMode(v)
	return nil
}

// compactBigMode writes the four-byte-plus form: a length marker followed
// by the little-endian value bytes.
func (e *Encoder) compactBigMode(v *big.Int) {
	raw := v.Bytes() // big-endian
	for i, j := 0, len(raw)-1; i < j; i, j = i+1, j-1 {
		raw[i], raw[j] = raw[j], raw[i]
	}
	if len(raw) < 4 {
		pad := make([]byte, 4-len(raw))
		raw = append(raw, pad...)
	}
	e.buf.WriteByte(byte((len(raw)-4)<<2) | 0b11)
	e.buf.Write(raw)
}

// Bool appends a boolean.
func (e *Encoder) Bool(v bool) {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

// PutBytes appends a compact length prefix followed by the bytes.
func (e *Encoder) PutBytes(b []byte) {
	e.Compact(uint64(len(b)))
	e.buf.Write(b)
}

// Option appends the presence byte and, when present, runs the encoding
// function for the payload.
func (e *Encoder) Option(present bool, encode func(*Encoder)) {
	if !present {
		e.buf.WriteByte(0)
		return
	}
	e.buf.WriteByte(1)
	encode(e)
}

// Decoder reads SCALE-encoded data.
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder returns a decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.pos
}

func (d *Decoder) take(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, ErrShortInput
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// U8 reads a single byte.
func (d *Decoder) U8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U32 reads a little-endian u32.
func (d *Decoder) U32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Compact reads a compact-encoded unsigned integer.
func (d *Decoder) Compact() (*big.Int, error) {
	first, err := d.U8()
	if err != nil {
		return nil, err
	}
	switch first & 0b11 {
	case 0b00:
		return big.NewInt(int64(first >> 2)), nil
	case 0b01:
		second, err := d.U8()
		if err != nil {
			return nil, err
		}
		return big.NewInt(int64(uint16(first)|uint16(second)<<8) >> 2), nil
	case 0b10:
		rest, err := d.take(3)
		if err != nil {
			return nil, err
		}
		v := uint32(first) | uint32(rest[0])<<8 | uint32(rest[1])<<16 | uint32(rest[2])<<24
		return big.NewInt(int64(v >> 2)), nil
	default:
		n := int(first>>2) + 4
		raw, err := d.take(n)
		if err != nil {
			return nil, err
		}
		le := make([]byte, n)
		for i := range raw {
			le[n-1-i] = raw[i]
		}
		return new(big.Int).SetBytes(le), nil
	}
}

// Bytes reads a compact length prefix and that many bytes.
func (d *Decoder) Bytes() ([]byte, error) {
	n, err := d.Compact()
	if err != nil {
		return nil, err
	}
	if !n.IsInt64() || n.Int64() > int64(d.Remaining()) {
		return nil, ErrShortInput
	}
	return d.take(int(n.Int64()))
}
