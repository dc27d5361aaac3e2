package cli

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pendergraft/inkctl/internal/rpc"
	"github.com/pendergraft/inkctl/internal/tx"
)

func createVerifyCmd() *cobra.Command {
	var file, manifest, expectHash string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a contract bundle",
		Long: `Check that a contract bundle is internally consistent: the Wasm code
must match the source hash recorded in its metadata. With --code-hash,
additionally compare against a hash taken from deployment history or an
explorer. When a target is named with --url or --chain, the code hash is
also looked up on chain.

Bundles built with a pinned build image ("verifiable builds") can be
reproduced bit for bit; the image is printed when present.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), file, manifest, expectHash)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "contract bundle (.contract), metadata (.json), or code (.wasm)")
	cmd.Flags().StringVar(&manifest, "manifest-path", "", "path to the contract crate's Cargo.toml")
	cmd.Flags().StringVar(&expectHash, "code-hash", "", "expected code hash to compare against")

	return cmd
}

func runVerify(ctx context.Context, file, manifest, expectHash string) error {
	s, err := newSession(nil, file, manifest)
	if err != nil {
		return err
	}

	art, err := s.opts.LoadArtifacts()
	if err != nil {
		return err
	}

	if err := art.VerifyLocal(); err != nil {
		return err
	}

	codeHash, err := art.CodeHash()
	if err != nil {
		return err
	}
	got := "0x" + hex.EncodeToString(codeHash)

	if expectHash != "" {
		want, err := parseHash(expectHash)
		if err != nil {
			return fmt.Errorf("invalid --code-hash: %w", err)
		}
		if !bytes.Equal(want[:], codeHash) {
			return fmt.Errorf("code hash mismatch: bundle has %s, expected %s", got, expectHash)
		}
	}

	fmt.Printf("%s %s: OK\n", art.Name, art.Version)
	fmt.Printf("  code hash: %s\n", got)
	if art.Verifiable() {
		fmt.Printf("  reproducible build image: %s\n", art.BuildImage())
	} else {
		fmt.Println("  not built with a pinned image; build is not reproducible")
	}

	// Only go on chain when the user named a target; plain `inkctl verify`
	// stays offline.
	if nodeURL != "" || chainName != "" {
		if err := verifyOnChain(ctx, s, codeHash); err != nil {
			return err
		}
	}
	return nil
}

// verifyOnChain checks that the bundle's code hash has an entry in the
// contracts pallet's code storage.
func verifyOnChain(ctx context.Context, s *session, codeHash []byte) error {
	ch, endpoint := s.opts.ChainAndEndpoint()

	client, err := rpc.Dial(ctx, endpoint, rpc.Options{Logger: s.logger})
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", endpoint, err)
	}
	defer client.Close()

	var hash [32]byte
	copy(hash[:], codeHash)
	info, err := client.StateGetStorage(ctx, tx.CodeInfoKey(hash))
	if err != nil {
		return fmt.Errorf("querying code storage: %w", err)
	}
	if info == nil {
		return fmt.Errorf("code hash 0x%s is not uploaded on %s", hex.EncodeToString(codeHash), ch)
	}

	fmt.Printf("  on chain: uploaded on %s\n", ch)
	return nil
}
