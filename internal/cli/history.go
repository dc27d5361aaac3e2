package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pendergraft/inkctl/internal/config"
	"github.com/pendergraft/inkctl/internal/extrinsic"
	"github.com/pendergraft/inkctl/internal/store"
)

func createHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse deployment history",
	}

	var chain, contract, action string
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded deployments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd.Context(), store.Filter{
				Chain:    chain,
				Contract: contract,
				Action:   action,
				Limit:    limit,
			})
		},
	}
	listCmd.Flags().StringVar(&chain, "chain", "", "filter by chain name")
	listCmd.Flags().StringVar(&contract, "contract", "", "filter by contract name")
	listCmd.Flags().StringVar(&action, "action", "", "filter by action (upload, instantiate, call, remove)")
	listCmd.Flags().IntVar(&limit, "limit", 20, "maximum rows to show")

	infoCmd := &cobra.Command{
		Use:   "info ID",
		Short: "Show one deployment in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryInfo(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(infoCmd)
	return cmd
}

func openHistory(ctx context.Context) (store.Store, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("deployment history is disabled")
	}

	verbosity, err := extrinsic.ParseVerbosity(quiet, verbose)
	if err != nil {
		return nil, err
	}

	h, err := store.Open(cfg.History.DatabaseURL, newLogger(verbosity))
	if err != nil {
		return nil, err
	}
	if err := h.Migrate(ctx); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func runHistoryList(ctx context.Context, filter store.Filter) error {
	h, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	rows, err := h.List(ctx, filter)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No deployments recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tACTION\tCHAIN\tCONTRACT\tBLOCK")
	for _, d := range rows {
		chain := d.ChainName
		if chain == "" {
			chain = d.Endpoint
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.CreatedAt.Local().Format(time.DateTime), d.Action, chain, d.ContractName, short(d.BlockHash))
	}
	return w.Flush()
}

func runHistoryInfo(ctx context.Context, id string) error {
	h, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	d, err := h.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("id:              %s\n", d.ID)
	fmt.Printf("when:            %s\n", d.CreatedAt.Local().Format(time.DateTime))
	fmt.Printf("action:          %s\n", d.Action)
	if d.ChainName != "" {
		fmt.Printf("chain:           %s\n", d.ChainName)
	}
	fmt.Printf("endpoint:        %s\n", d.Endpoint)
	if d.ContractName != "" {
		fmt.Printf("contract:        %s %s\n", d.ContractName, d.ContractVersion)
	}
	if d.CodeHash != "" {
		fmt.Printf("code hash:       %s\n", d.CodeHash)
	}
	if d.Address != "" {
		fmt.Printf("address:         %s\n", d.Address)
	}
	fmt.Printf("extrinsic hash:  %s\n", d.ExtrinsicHash)
	if d.BlockHash != "" {
		fmt.Printf("block:           %s\n", d.BlockHash)
	}
	fmt.Printf("signer:          %s\n", d.SignerAddress)
	return nil
}

// short abbreviates a hash for table display.
func short(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:10] + ".."
}
