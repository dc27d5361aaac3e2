package cli

import (
	"context"
	"encoding/hex"

	"github.com/spf13/cobra"

	"github.com/pendergraft/inkctl/internal/artifacts"
	"github.com/pendergraft/inkctl/internal/store"
	"github.com/pendergraft/inkctl/internal/tx"
)

func createUploadCmd() *cobra.Command {
	var file, manifest string
	var relaxed bool
	f := &submitFlags{}

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload contract code to a chain",
		Long: `Upload a contract's Wasm code without instantiating it.

The code is read from a .contract bundle, a metadata .json with a
sibling .wasm, or a bare .wasm file. With neither --file nor
--manifest-path, the bundle is located from ./Cargo.toml.

EXAMPLES:
  # Upload the bundle built from the current crate to a local node
  inkctl upload --suri //Alice

  # Upload a specific bundle to a production chain
  inkctl upload --file flipper.contract --chain aleph-zero --keyfile deployer.json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd.Context(), f, file, manifest, relaxed)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "contract bundle (.contract), metadata (.json), or code (.wasm)")
	cmd.Flags().StringVar(&manifest, "manifest-path", "", "path to the contract crate's Cargo.toml")
	cmd.Flags().BoolVar(&relaxed, "relaxed-determinism", false, "accept code with indeterministic instructions")
	addSubmitFlags(cmd, f)

	return cmd
}

func runUpload(ctx context.Context, f *submitFlags, file, manifest string, relaxed bool) error {
	s, err := newSession(f, file, manifest)
	if err != nil {
		return err
	}

	art, err := s.opts.LoadArtifacts()
	if err != nil {
		return err
	}
	if len(art.Wasm) == 0 {
		return artifacts.ErrNoCode
	}

	codeHash, err := art.CodeHash()
	if err != nil {
		return err
	}

	det := tx.DeterminismEnforced
	if relaxed {
		det = tx.DeterminismRelaxed
	}

	call, err := tx.UploadCode(f.palletIndex, art.Wasm, s.opts.StorageDepositLimit(), det)
	if err != nil {
		return err
	}

	s.printf("Uploading %s (%d bytes, code hash 0x%s)\n", art.Name, len(art.Wasm), hex.EncodeToString(codeHash))

	if err := s.submit(ctx, f, submission{
		action:   store.ActionUpload,
		call:     call,
		contract: art,
		codeHash: "0x" + hex.EncodeToString(codeHash),
	}); err != nil {
		return err
	}

	s.printf("Code hash 0x%s\n", hex.EncodeToString(codeHash))
	return nil
}
