package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pendergraft/inkctl/internal/signer"
	"github.com/pendergraft/inkctl/internal/store"
	"github.com/pendergraft/inkctl/internal/tx"
)

func createCallCmd() *cobra.Command {
	var data, value string
	var gasRefTime, gasProofSize uint64
	f := &submitFlags{}

	cmd := &cobra.Command{
		Use:   "call CONTRACT",
		Short: "Call a contract message",
		Long: `Submit a message call to an instantiated contract.

CONTRACT is the contract's SS58 address. --data is the SCALE-encoded
message input, starting with the 4-byte message selector from the
contract metadata.

EXAMPLES:
  inkctl call 5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY \
    --data 0x633aa551 --gas-ref-time 10000000000 --gas-proof-size 131072 --suri //Alice
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd.Context(), f, args[0], data, value, tx.Weight{RefTime: gasRefTime, ProofSize: gasProofSize})
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "hex-encoded message selector and arguments")
	cmd.Flags().StringVar(&value, "value", "", "balance to transfer with the call")
	cmd.Flags().Uint64Var(&gasRefTime, "gas-ref-time", 0, "maximum execution time budget")
	cmd.Flags().Uint64Var(&gasProofSize, "gas-proof-size", 0, "maximum proof size budget")
	addSubmitFlags(cmd, f)
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("gas-ref-time")
	_ = cmd.MarkFlagRequired("gas-proof-size")

	return cmd
}

func runCall(ctx context.Context, f *submitFlags, contract, dataHex, valueStr string, gas tx.Weight) error {
	s, err := newSession(f, "", "")
	if err != nil {
		return err
	}

	account, _, err := signer.DecodeSS58(contract)
	if err != nil {
		return fmt.Errorf("invalid contract address %q: %w", contract, err)
	}
	var dest [32]byte
	copy(dest[:], account)

	data, err := parseHex(dataHex)
	if err != nil {
		return fmt.Errorf("invalid --data: %w", err)
	}
	value, err := parseOptionalBalance(valueStr)
	if err != nil {
		return fmt.Errorf("invalid --value: %w", err)
	}

	call, err := tx.ContractCall(f.palletIndex, dest, value, gas, s.opts.StorageDepositLimit(), data)
	if err != nil {
		return err
	}

	s.printf("Calling %s\n", contract)
	return s.submit(ctx, f, submission{
		action:  store.ActionCall,
		call:    call,
		address: contract,
	})
}
