package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// RuntimeVersion is the subset of state_getRuntimeVersion that extrinsic
// signing commits to.
type RuntimeVersion struct {
	SpecName           string `json:"specName"`
	SpecVersion        uint32 `json:"specVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

// ChainProperties describes the node's token and address format.
type ChainProperties struct {
	SS58Format    *uint16 `json:"ss58Format"`
	TokenDecimals *uint8  `json:"tokenDecimals"`
	TokenSymbol   *string `json:"tokenSymbol"`
}

// SystemChain returns the node's chain name.
func (c *Client) SystemChain(ctx context.Context) (string, error) {
	var name string
	err := c.Call(ctx, &name, "system_chain")
	return name, err
}

// SystemProperties returns the node's reported chain properties.
func (c *Client) SystemProperties(ctx context.Context) (ChainProperties, error) {
	var props ChainProperties
	err := c.Call(ctx, &props, "system_properties")
	return props, err
}

// RuntimeVersion returns the current runtime version.
func (c *Client) RuntimeVersion(ctx context.Context) (RuntimeVersion, error) {
	var v RuntimeVersion
	err := c.Call(ctx, &v, "state_getRuntimeVersion")
	return v, err
}

// GenesisHash returns the hash of block zero.
func (c *Client) GenesisHash(ctx context.Context) ([32]byte, error) {
	var hex0x string
	if err := c.Call(ctx, &hex0x, "chain_getBlockHash", 0); err != nil {
		return [32]byte{}, err
	}
	return decodeHash(hex0x)
}

// AccountNextIndex returns the next nonce for the given SS58 address.
func (c *Client) AccountNextIndex(ctx context.Context, address string) (uint64, error) {
	var nonce uint64
	err := c.Call(ctx, &nonce, "system_accountNextIndex", address)
	return nonce, err
}

// StateGetStorage fetches a raw storage value; nil when the key is empty.
func (c *Client) StateGetStorage(ctx context.Context, key []byte) ([]byte, error) {
	var out *string
	if err := c.Call(ctx, &out, "state_getStorage", toHex(key)); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return fromHex(*out)
}

// SubmitExtrinsic submits a signed extrinsic without watching it and
// returns the extrinsic hash reported by the node.
func (c *Client) SubmitExtrinsic(ctx context.Context, extrinsic []byte) ([32]byte, error) {
	var hash string
	if err := c.Call(ctx, &hash, "author_submitExtrinsic", toHex(extrinsic)); err != nil {
		return [32]byte{}, err
	}
	return decodeHash(hash)
}

// ExtrinsicStatus is one update from a watched submission.
type ExtrinsicStatus struct {
	// Phase is the bare status name: ready, broadcast, inBlock,
	// finalized, dropped, invalid, ...
	Phase string
	// BlockHash is set for inBlock / finalized updates.
	BlockHash string
}

func parseStatus(raw json.RawMessage) (ExtrinsicStatus, error) {
	var phase string
	if err := json.Unmarshal(raw, &phase); err == nil {
		return ExtrinsicStatus{Phase: phase}, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ExtrinsicStatus{}, fmt.Errorf("unexpected extrinsic status %s", raw)
	}
	for phase, v := range obj {
		var s ExtrinsicStatus
		s.Phase = phase
		// inBlock/finalized carry the block hash, broadcast a peer list.
		var hash string
		if err := json.Unmarshal(v, &hash); err == nil {
			s.BlockHash = hash
		}
		return s, nil
	}
	return ExtrinsicStatus{}, fmt.Errorf("empty extrinsic status")
}

var (
	// ErrDropped means the node gave up on the extrinsic.
	ErrDropped = errors.New("extrinsic dropped")
	// ErrInvalid means the node rejected the extrinsic as invalid.
	ErrInvalid = errors.New("extrinsic invalid")
)

// SubmitAndWatch submits a signed extrinsic and follows its status until
// it lands in a block (or is finalized, when waitFinalized is set). Each
// update is passed to report, which may be nil. It returns the hash of
// the containing block.
func (c *Client) SubmitAndWatch(ctx context.Context, extrinsic []byte, waitFinalized bool, report func(ExtrinsicStatus)) (string, error) {
	subID, updates, err := c.subscribe(ctx, "author_submitAndWatchExtrinsic", toHex(extrinsic))
	if err != nil {
		return "", err
	}
	defer c.unsubscribe(ctx, "author_unwatchExtrinsic", subID)

	for {
		select {
		case raw, ok := <-updates:
			if !ok {
				return "", ErrClosed
			}
			status, err := parseStatus(raw)
			if err != nil {
				return "", err
			}
			if report != nil {
				report(status)
			}

			switch status.Phase {
			case "inBlock":
				if !waitFinalized {
					return status.BlockHash, nil
				}
			case "finalized":
				return status.BlockHash, nil
			case "dropped", "usurped":
				return "", ErrDropped
			case "invalid":
				return "", ErrInvalid
			}
		case <-c.done:
			return "", ErrClosed
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func toHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func fromHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

func decodeHash(s string) ([32]byte, error) {
	var h [32]byte
	b, err := fromHex(s)
	if err != nil || len(b) != 32 {
		return h, fmt.Errorf("malformed hash %q", s)
	}
	copy(h[:], b)
	return h, nil
}
