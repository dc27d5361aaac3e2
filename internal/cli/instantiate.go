package cli

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pendergraft/inkctl/internal/artifacts"
	"github.com/pendergraft/inkctl/internal/store"
	"github.com/pendergraft/inkctl/internal/tx"
)

func createInstantiateCmd() *cobra.Command {
	var file, manifest, codeHash string
	var data, salt, value string
	var gasRefTime, gasProofSize uint64
	f := &submitFlags{}

	cmd := &cobra.Command{
		Use:   "instantiate",
		Short: "Instantiate a contract on a chain",
		Long: `Instantiate a contract, either by uploading its code in the same
extrinsic or from a code hash that is already on chain.

--data is the SCALE-encoded constructor input, starting with the
4-byte constructor selector from the contract metadata.

EXAMPLES:
  # Deploy code and instantiate in one step
  inkctl instantiate --data 0x9bae9d5e --gas-ref-time 500000000000 --gas-proof-size 1048576 --suri //Alice

  # Instantiate from already-uploaded code
  inkctl instantiate --code-hash 0x5c8a... --data 0x9bae9d5e01 --salt 0xdeadbeef --suri //Alice
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstantiate(cmd.Context(), f, instantiateParams{
				file:     file,
				manifest: manifest,
				codeHash: codeHash,
				data:     data,
				salt:     salt,
				value:    value,
				gas:      tx.Weight{RefTime: gasRefTime, ProofSize: gasProofSize},
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "contract bundle (.contract), metadata (.json), or code (.wasm)")
	cmd.Flags().StringVar(&manifest, "manifest-path", "", "path to the contract crate's Cargo.toml")
	cmd.Flags().StringVar(&codeHash, "code-hash", "", "hash of already-uploaded code to instantiate from")
	cmd.Flags().StringVar(&data, "data", "", "hex-encoded constructor selector and arguments")
	cmd.Flags().StringVar(&salt, "salt", "", "hex-encoded salt for a deterministic contract address")
	cmd.Flags().StringVar(&value, "value", "", "balance to transfer to the new contract")
	cmd.Flags().Uint64Var(&gasRefTime, "gas-ref-time", 0, "maximum execution time budget")
	cmd.Flags().Uint64Var(&gasProofSize, "gas-proof-size", 0, "maximum proof size budget")
	addSubmitFlags(cmd, f)
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("gas-ref-time")
	_ = cmd.MarkFlagRequired("gas-proof-size")

	return cmd
}

type instantiateParams struct {
	file     string
	manifest string
	codeHash string
	data     string
	salt     string
	value    string
	gas      tx.Weight
}

func runInstantiate(ctx context.Context, f *submitFlags, p instantiateParams) error {
	if p.codeHash != "" && (p.file != "" || p.manifest != "") {
		return fmt.Errorf("--code-hash cannot be combined with --file or --manifest-path")
	}

	s, err := newSession(f, p.file, p.manifest)
	if err != nil {
		return err
	}

	data, err := parseHex(p.data)
	if err != nil {
		return fmt.Errorf("invalid --data: %w", err)
	}
	salt, err := parseHex(p.salt)
	if err != nil {
		return fmt.Errorf("invalid --salt: %w", err)
	}
	value, err := parseOptionalBalance(p.value)
	if err != nil {
		return fmt.Errorf("invalid --value: %w", err)
	}

	sub := submission{action: store.ActionInstantiate}

	if p.codeHash != "" {
		hash, err := parseHash(p.codeHash)
		if err != nil {
			return fmt.Errorf("invalid --code-hash: %w", err)
		}
		sub.call, err = tx.Instantiate(f.palletIndex, value, p.gas, s.opts.StorageDepositLimit(), hash, data, salt)
		if err != nil {
			return err
		}
		sub.codeHash = p.codeHash
		s.printf("Instantiating from code hash %s\n", p.codeHash)
	} else {
		art, err := s.opts.LoadArtifacts()
		if err != nil {
			return err
		}
		if len(art.Wasm) == 0 {
			return artifacts.ErrNoCode
		}
		hash, err := art.CodeHash()
		if err != nil {
			return err
		}
		sub.call, err = tx.InstantiateWithCode(f.palletIndex, value, p.gas, s.opts.StorageDepositLimit(), art.Wasm, data, salt)
		if err != nil {
			return err
		}
		sub.contract = art
		sub.codeHash = "0x" + hex.EncodeToString(hash)
		s.printf("Instantiating %s (code hash %s)\n", art.Name, sub.codeHash)
	}

	return s.submit(ctx, f, sub)
}
