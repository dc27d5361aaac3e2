package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pendergraft/inkctl/internal/chains"
	"github.com/pendergraft/inkctl/internal/config"
)

func createChainsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chains",
		Short: "List known production chains",
		Long: `List the chains that can be targeted by name with --chain.

Additional chains can be defined in a YAML file passed with
--chains-file or configured in inkctl.toml.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChains()
		},
	}
	return cmd
}

func runChains() error {
	registry := chains.Default
	file := chainsFile
	if file == "" {
		if cfg, err := config.Load(cfgFile); err == nil {
			file = cfg.Chains.File
		}
	}
	if file != "" {
		registry = chains.NewRegistry()
		if err := registry.LoadFile(file); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENDPOINT\tTOKEN\tSS58")
	for _, c := range registry.List() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", c.Name, c.Endpoint, c.TokenSymbol, c.SS58Prefix)
	}
	return w.Flush()
}
