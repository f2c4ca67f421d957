// Package signer produces offer signatures off-ledger. The escrow itself
// only verifies; this package exists for wallets, tooling and tests and
// must stay byte-symmetric with protocol.Encode.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/letmeget/swapgate/internal/protocol"
)

type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewSigner parses a hex private key, with or without 0x prefix.
func NewSigner(privateKeyHex string) (*Signer, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key is required")
	}
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %v", err)
	}
	return FromKey(key), nil
}

func FromKey(key *ecdsa.PrivateKey) *Signer {
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// Generate creates a signer with a fresh random key.
func Generate() (*Signer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return FromKey(key), nil
}

// SignOffer hashes terms under the given schema and signs the prefixed
// digest. The recovery id is returned as 27/28, the form wallets emit.
func (s *Signer) SignOffer(v protocol.Version, t protocol.Terms) ([]byte, common.Hash, error) {
	offerKey, err := protocol.Encode(v, t)
	if err != nil {
		return nil, common.Hash{}, err
	}
	sig, err := s.SignOfferKey(offerKey)
	if err != nil {
		return nil, common.Hash{}, err
	}
	return sig, offerKey, nil
}

// SignOfferKey signs an already computed OfferKey.
func (s *Signer) SignOfferKey(offerKey common.Hash) ([]byte, error) {
	signature, err := crypto.Sign(protocol.PrefixedHash(offerKey).Bytes(), s.key)
	if err != nil {
		return nil, err
	}
	// crypto.Sign returns [R || S || V] with V in {0,1}.
	signature[crypto.RecoveryIDOffset] += 27
	return signature, nil
}

// SignOfferHex is SignOffer with a 0x-prefixed hex result.
func (s *Signer) SignOfferHex(v protocol.Version, t protocol.Terms) (string, error) {
	sig, _, err := s.SignOffer(v, t)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}

func (s *Signer) Address() common.Address {
	return s.address
}

// PrivateKeyHex returns the 0x-prefixed private key.
func (s *Signer) PrivateKeyHex() string {
	return hexutil.Encode(crypto.FromECDSA(s.key))
}
