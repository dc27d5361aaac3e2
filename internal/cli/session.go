package cli

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pendergraft/inkctl/internal/chains"
	"github.com/pendergraft/inkctl/internal/config"
	"github.com/pendergraft/inkctl/internal/extrinsic"
	"github.com/pendergraft/inkctl/internal/signer"
	"github.com/pendergraft/inkctl/internal/tx"
)

// submitFlags are shared by every command that signs and submits an
// extrinsic.
type submitFlags struct {
	suri         string
	keyfile      string
	password     string
	depositLimit string
	tip          string
	palletIndex  uint8
	skipConfirm  bool
	noWait       bool

	tipValue *big.Int
}

func addSubmitFlags(cmd *cobra.Command, f *submitFlags) {
	cmd.Flags().StringVarP(&f.suri, "suri", "s", "", "secret URI of the signing key (e.g. //Alice)")
	cmd.Flags().StringVar(&f.keyfile, "keyfile", "", "path to a keyfile (prompts for the passphrase if encrypted)")
	cmd.Flags().StringVar(&f.password, "password", "", "keyfile passphrase")
	cmd.Flags().StringVar(&f.depositLimit, "storage-deposit-limit", "", "maximum balance to charge for storage (default: unlimited)")
	cmd.Flags().StringVar(&f.tip, "tip", "", "tip paid to the block author")
	cmd.Flags().Uint8Var(&f.palletIndex, "pallet-index", tx.DefaultPalletIndex, "index of the contracts pallet in the runtime")
	cmd.Flags().BoolVarP(&f.skipConfirm, "skip-confirm", "y", false, "skip the production chain confirmation prompt")
	cmd.Flags().BoolVar(&f.noWait, "no-wait", false, "return once the extrinsic is in a block instead of waiting for finality")
}

// session is the resolved runtime state behind a single command
// invocation: config, chain registry, and extrinsic options.
type session struct {
	cfg       *config.Config
	opts      extrinsic.Opts
	registry  *chains.Registry
	logger    *slog.Logger
	verbosity extrinsic.Verbosity
}

func newSession(f *submitFlags, artifactFile, manifestPath string) (*session, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	verbosity, err := extrinsic.ParseVerbosity(quiet, verbose)
	if err != nil {
		return nil, err
	}
	logger := newLogger(verbosity)

	registry := chains.Default
	file := chainsFile
	if file == "" {
		file = cfg.Chains.File
	}
	if file != "" {
		registry = chains.NewRegistry()
		if err := registry.LoadFile(file); err != nil {
			return nil, err
		}
	}

	sg, err := resolveSigner(f, cfg)
	if err != nil {
		return nil, err
	}

	b := extrinsic.NewBuilder(sg).
		WithRegistry(registry).
		WithVerbosity(verbosity).
		WithArtifactFile(artifactFile).
		WithManifestPath(manifestPath)

	rawURL := nodeURL
	if rawURL == "" {
		rawURL = cfg.Node.URL
	}
	if rawURL != "" {
		u, err := extrinsic.ParseURL(rawURL)
		if err != nil {
			return nil, err
		}
		b = b.WithNodeURL(u)
	}

	name := chainName
	if name == "" {
		name = cfg.Node.Chain
	}
	if name != "" {
		ch, ok := registry.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown chain %q (known chains: %s)", name, strings.Join(registry.Names(), ", "))
		}
		b = b.WithChain(&ch)
	}

	if f != nil {
		if f.depositLimit != "" {
			limit, err := parseBalance(f.depositLimit)
			if err != nil {
				return nil, fmt.Errorf("invalid --storage-deposit-limit: %w", err)
			}
			b = b.WithStorageDepositLimit(limit)
		}
		if f.tip != "" {
			f.tipValue, err = parseBalance(f.tip)
			if err != nil {
				return nil, fmt.Errorf("invalid --tip: %w", err)
			}
		}
	}

	return &session{
		cfg:       cfg,
		opts:      b.Build(),
		registry:  registry,
		logger:    logger,
		verbosity: verbosity,
	}, nil
}

// resolveSigner picks the signing key: flags beat the config file, a
// secret URI beats a keyfile. Read-only commands run fine without one.
func resolveSigner(f *submitFlags, cfg *config.Config) (signer.Signer, error) {
	suri := cfg.Signer.SURI
	keyfile := cfg.Signer.Keyfile
	password := ""
	if f != nil {
		if f.suri != "" {
			suri = f.suri
			keyfile = ""
		}
		if f.keyfile != "" {
			keyfile = f.keyfile
			suri = ""
		}
		password = f.password
	}

	switch {
	case suri != "":
		return signer.FromSURI(suri)
	case keyfile != "":
		return signer.LoadKeyfile(keyfile, password)
	default:
		return nil, nil
	}
}

func (s *session) printf(format string, args ...any) {
	if s.verbosity != extrinsic.VerbosityQuiet {
		fmt.Printf(format, args...)
	}
}

// confirm asks before touching a production chain. Custom nodes are
// assumed to be disposable.
func (s *session) confirm(action string, skip bool) error {
	ch, _ := s.opts.ChainAndEndpoint()
	if !ch.IsProduction() || skip {
		return nil
	}

	fmt.Printf("Submit %s to %s? [y/N] ", action, ch.Name())
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return errors.New("aborted")
	}
}

// parseBalance parses a decimal balance amount.
func parseBalance(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("expected a non-negative decimal number, got %q", s)
	}
	return v, nil
}

// parseOptionalBalance treats the empty string as zero.
func parseOptionalBalance(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	return parseBalance(s)
}
