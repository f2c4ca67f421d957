// Package cli implements offersig, the off-ledger companion that computes
// OfferKeys and signs or recovers offer signatures exactly as the escrow
// does.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the offersig command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "offersig",
		Short: "Compute, sign and verify escrow offers",
		Long: `offersig encodes a swap tuple into its OfferKey, signs the key with a
secp256k1 key using the Ethereum personal-message prefix and recovers the
signer of an existing signature. Output is byte-compatible with the escrow.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newHashCommand())
	root.AddCommand(newSignCommand())
	root.AddCommand(newRecoverCommand())
	root.AddCommand(newKeygenCommand())
	return root
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
