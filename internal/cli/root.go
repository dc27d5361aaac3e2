// Package cli implements the inkctl command tree.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pendergraft/inkctl/internal/chains"
	"github.com/pendergraft/inkctl/internal/extrinsic"
)

var (
	cfgFile    string
	nodeURL    string
	chainName  string
	chainsFile string
	verbose    bool
	quiet      bool
)

// Execute runs the CLI
func Execute(version string) error {
	rootCmd := &cobra.Command{
		Use:     "inkctl",
		Short:   "Deploy and manage ink! smart contracts",
		Long:    `Inkctl uploads, instantiates, and calls ink! smart contracts on Substrate chains.`,
		Version: version,

		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: inkctl.toml)")
	rootCmd.PersistentFlags().StringVar(&nodeURL, "url", "", "websocket URL of the target node")
	rootCmd.PersistentFlags().StringVar(&chainName, "chain", "", "production chain to target (overrides --url)")
	rootCmd.PersistentFlags().StringVar(&chainsFile, "chains-file", "", "extra chain definitions (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	_ = rootCmd.RegisterFlagCompletionFunc("chain", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return chains.Default.Names(), cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(createUploadCmd())
	rootCmd.AddCommand(createInstantiateCmd())
	rootCmd.AddCommand(createCallCmd())
	rootCmd.AddCommand(createRemoveCmd())
	rootCmd.AddCommand(createVerifyCmd())
	rootCmd.AddCommand(createInfoCmd())
	rootCmd.AddCommand(createChainsCmd())
	rootCmd.AddCommand(createHistoryCmd())
	rootCmd.AddCommand(createConfigCmd())

	return rootCmd.Execute()
}

func newLogger(v extrinsic.Verbosity) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: v.LogLevel(),
	}))
}
