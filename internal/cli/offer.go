package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/letmeget/swapgate/internal/model"
	"github.com/letmeget/swapgate/internal/protocol"
	"github.com/letmeget/swapgate/internal/signer"
)

// EnvSignerKey supplies the signing key when --key is not given.
const EnvSignerKey = "SWAPGATE_SIGNER_KEY"

// offerFlags are the swap tuple and hash schema shared by every command.
type offerFlags struct {
	schema         string
	offerContract  string
	offerTokenID   string
	wantedContract string
	wantedTokenID  string
	expires        uint64
}

func (f *offerFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.schema, "schema", "v2", "hash schema: v1 or v2")
	fs.StringVar(&f.offerContract, "offer-contract", "", "offered token contract address")
	fs.StringVar(&f.offerTokenID, "offer-token-id", "", "offered token id (decimal or 0x hex)")
	fs.StringVar(&f.wantedContract, "wanted-contract", "", "wanted token contract address")
	fs.StringVar(&f.wantedTokenID, "wanted-token-id", "", "wanted token id (decimal or 0x hex)")
	fs.Uint64Var(&f.expires, "expires", 0, "expiry block height (v2 only, 0 for none)")
}

func (f *offerFlags) parse() (protocol.Version, protocol.Terms, error) {
	v, err := protocol.ParseVersion(f.schema)
	if err != nil {
		return 0, protocol.Terms{}, err
	}
	req := model.TermsRequest{
		OfferContract:  f.offerContract,
		OfferTokenID:   f.offerTokenID,
		WantedContract: f.wantedContract,
		WantedTokenID:  f.wantedTokenID,
		Expires:        f.expires,
	}
	terms, err := req.Terms()
	if err != nil {
		return 0, protocol.Terms{}, err
	}
	return v, terms, nil
}

type hashOutput struct {
	OfferKey     string `json:"offer_key"`
	PrefixedHash string `json:"prefixed_hash"`
	Preimage     string `json:"preimage"`
}

func newHashCommand() *cobra.Command {
	var flags offerFlags
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the OfferKey of a swap tuple",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, terms, err := flags.parse()
			if err != nil {
				return err
			}
			preimage, err := protocol.Pack(v, terms)
			if err != nil {
				return err
			}
			offerKey, err := protocol.Encode(v, terms)
			if err != nil {
				return err
			}
			return printJSON(cmd, hashOutput{
				OfferKey:     offerKey.Hex(),
				PrefixedHash: protocol.PrefixedHash(offerKey).Hex(),
				Preimage:     hexutil.Encode(preimage),
			})
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

type signOutput struct {
	OfferKey  string `json:"offer_key"`
	Signature string `json:"signature"`
	Signer    string `json:"signer"`
}

func newSignCommand() *cobra.Command {
	var flags offerFlags
	var key string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign the OfferKey of a swap tuple",
		Long:  "Sign the OfferKey of a swap tuple. The key is read from --key or $" + EnvSignerKey + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				key = os.Getenv(EnvSignerKey)
			}
			if key == "" {
				return fmt.Errorf("no signing key: pass --key or set %s", EnvSignerKey)
			}
			s, err := signer.NewSigner(key)
			if err != nil {
				return err
			}
			v, terms, err := flags.parse()
			if err != nil {
				return err
			}
			sig, offerKey, err := s.SignOffer(v, terms)
			if err != nil {
				return err
			}
			return printJSON(cmd, signOutput{
				OfferKey:  offerKey.Hex(),
				Signature: hexutil.Encode(sig),
				Signer:    s.Address().Hex(),
			})
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&key, "key", "", "hex secp256k1 private key")
	return cmd
}

func newRecoverCommand() *cobra.Command {
	var flags offerFlags
	var signature string
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Recover the signer of an offer signature",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, terms, err := flags.parse()
			if err != nil {
				return err
			}
			sig, err := model.ParseSignature(signature)
			if err != nil {
				return err
			}
			offerKey, err := protocol.Encode(v, terms)
			if err != nil {
				return err
			}
			return printJSON(cmd, model.SignerResponse{
				Signer:   protocol.Recover(offerKey, sig).Hex(),
				OfferKey: offerKey.Hex(),
			})
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&signature, "signature", "", "0x hex signature")
	_ = cmd.MarkFlagRequired("signature")
	return cmd
}

type keygenOutput struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
}

func newKeygenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a throwaway signing key",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := signer.Generate()
			if err != nil {
				return err
			}
			return printJSON(cmd, keygenOutput{
				Address:    s.Address().Hex(),
				PrivateKey: s.PrivateKeyHex(),
			})
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
