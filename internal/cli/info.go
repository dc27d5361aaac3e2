package cli

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pendergraft/inkctl/internal/rpc"
)

func createInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show information about the target node",
		Long: `Connect to the resolved node and print its chain name, runtime
version, genesis hash, and token properties.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.Context())
		},
	}
	return cmd
}

func runInfo(ctx context.Context) error {
	s, err := newSession(nil, "", "")
	if err != nil {
		return err
	}

	ch, endpoint := s.opts.ChainAndEndpoint()

	client, err := rpc.Dial(ctx, endpoint, rpc.Options{Logger: s.logger})
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", endpoint, err)
	}
	defer client.Close()

	systemChain, err := client.SystemChain(ctx)
	if err != nil {
		return err
	}
	rv, err := client.RuntimeVersion(ctx)
	if err != nil {
		return err
	}
	genesis, err := client.GenesisHash(ctx)
	if err != nil {
		return err
	}
	props, err := client.SystemProperties(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("target:       %s (%s)\n", ch, endpoint)
	fmt.Printf("chain:        %s\n", systemChain)
	fmt.Printf("runtime:      %s spec %d, tx version %d\n", rv.SpecName, rv.SpecVersion, rv.TransactionVersion)
	fmt.Printf("genesis hash: 0x%s\n", hex.EncodeToString(genesis[:]))
	if props.TokenSymbol != nil {
		fmt.Printf("token:        %s", *props.TokenSymbol)
		if props.TokenDecimals != nil {
			fmt.Printf(" (%d decimals)", *props.TokenDecimals)
		}
		fmt.Println()
	}
	if props.SS58Format != nil {
		fmt.Printf("ss58 format:  %d\n", *props.SS58Format)
	}
	return nil
}
