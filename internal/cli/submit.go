package cli

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pendergraft/inkctl/internal/artifacts"
	"github.com/pendergraft/inkctl/internal/extrinsic"
	"github.com/pendergraft/inkctl/internal/rpc"
	"github.com/pendergraft/inkctl/internal/store"
	"github.com/pendergraft/inkctl/internal/tx"
)

// submission is one call on its way to the chain, plus what the history
// store should remember about it.
type submission struct {
	action   string
	call     []byte
	contract *artifacts.Artifacts
	codeHash string
	address  string
}

// submit signs the call, sends it, waits for inclusion, and records it
// in the deployment history.
func (s *session) submit(ctx context.Context, f *submitFlags, sub submission) error {
	sg := s.opts.Signer()
	if sg == nil {
		return errors.New("no signing key: pass --suri or --keyfile, or set one in inkctl.toml")
	}

	if err := s.confirm(sub.action, f.skipConfirm); err != nil {
		return err
	}

	ch, endpoint := s.opts.ChainAndEndpoint()
	client, err := rpc.Dial(ctx, endpoint, rpc.Options{Logger: s.logger})
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", endpoint, err)
	}
	defer client.Close()

	rv, err := client.RuntimeVersion(ctx)
	if err != nil {
		return fmt.Errorf("fetching runtime version: %w", err)
	}
	genesis, err := client.GenesisHash(ctx)
	if err != nil {
		return fmt.Errorf("fetching genesis hash: %w", err)
	}

	addr := sg.Address(s.ss58Prefix(ch))
	nonce, err := client.AccountNextIndex(ctx, addr)
	if err != nil {
		return fmt.Errorf("fetching account nonce: %w", err)
	}

	ext, err := tx.Sign(sg, sub.call, tx.SigningContext{
		SpecVersion: rv.SpecVersion,
		TxVersion:   rv.TransactionVersion,
		GenesisHash: genesis,
		Nonce:       nonce,
		Tip:         f.tipValue,
	})
	if err != nil {
		return err
	}
	extHash := tx.Hash(ext)

	s.printf("Submitting %s to %s (%s)\n", sub.action, ch, endpoint)
	s.printf("  signer:    %s\n", addr)
	s.printf("  extrinsic: 0x%s\n", hex.EncodeToString(extHash[:]))

	blockHash, err := client.SubmitAndWatch(ctx, ext, !f.noWait, func(st rpc.ExtrinsicStatus) {
		s.printf("  status:    %s\n", st.Phase)
	})
	if err != nil {
		return err
	}
	s.printf("Included in block %s\n", blockHash)

	s.recordHistory(ctx, sub, ch, endpoint, addr, extHash, blockHash)
	return nil
}

// ss58Prefix returns the address format of the resolved chain, falling
// back to the generic Substrate prefix.
func (s *session) ss58Prefix(ch extrinsic.Chain) uint16 {
	if ch.IsProduction() {
		if c, ok := s.registry.ByName(ch.Name()); ok {
			return c.SS58Prefix
		}
	}
	return 42
}

// recordHistory is best effort: a broken history database never fails
// the deployment itself.
func (s *session) recordHistory(ctx context.Context, sub submission, ch extrinsic.Chain, endpoint, signerAddr string, extHash [32]byte, blockHash string) {
	if !s.cfg.History.Enabled {
		return
	}

	h, err := store.Open(s.cfg.History.DatabaseURL, s.logger)
	if err != nil {
		s.logger.Warn("history database unavailable", "error", err)
		return
	}
	defer h.Close()

	if err := h.Migrate(ctx); err != nil {
		s.logger.Warn("migrating history database", "error", err)
		return
	}

	d := &store.Deployment{
		ID:            uuid.New().String(),
		Action:        sub.action,
		Endpoint:      endpoint,
		CodeHash:      sub.codeHash,
		Address:       sub.address,
		ExtrinsicHash: "0x" + hex.EncodeToString(extHash[:]),
		BlockHash:     blockHash,
		SignerAddress: signerAddr,
	}
	if ch.IsProduction() {
		d.ChainName = ch.Name()
	}
	if sub.contract != nil {
		d.ContractName = sub.contract.Name
		d.ContractVersion = sub.contract.Version
	}

	if err := h.Record(ctx, d); err != nil {
		s.logger.Warn("recording deployment history", "error", err)
	}
}

// parseHex decodes hex input, with or without a 0x prefix. Empty input
// is fine.
func parseHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}

// parseHash parses a 32-byte hex hash.
func parseHash(s string) ([32]byte, error) {
	var out [32]byte
	b, err := parseHex(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("expected a 32 byte hash, got %d bytes", len(b))
	}
	copy(out[:], b)
	return out, nil
}
