package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pendergraft/inkctl/internal/store"
	"github.com/pendergraft/inkctl/internal/tx"
)

func createRemoveCmd() *cobra.Command {
	f := &submitFlags{}

	cmd := &cobra.Command{
		Use:   "remove CODE_HASH",
		Short: "Remove uploaded code from a chain",
		Long: `Remove uploaded contract code and refund its storage deposit.

Only the original uploader can remove code, and only while no contract
instance uses it.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), f, args[0])
		},
	}

	addSubmitFlags(cmd, f)
	return cmd
}

func runRemove(ctx context.Context, f *submitFlags, codeHash string) error {
	s, err := newSession(f, "", "")
	if err != nil {
		return err
	}

	hash, err := parseHash(codeHash)
	if err != nil {
		return fmt.Errorf("invalid code hash: %w", err)
	}

	s.printf("Removing code %s\n", codeHash)
	return s.submit(ctx, f, submission{
		action:   store.ActionRemove,
		call:     tx.RemoveCode(f.palletIndex, hash),
		codeHash: codeHash,
	})
}
