// Package protocol holds the wire contract shared by the escrow and every
// off-ledger signer: the canonical offer encoding and signature recovery.
package protocol

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Version selects the offer hash schema. Instances of different versions
// never accept each other's signatures.
type Version uint8

const (
	V1 Version = 1
	V2 Version = 2
)

func (v Version) String() string {
	return fmt.Sprintf("v%d", uint8(v))
}

// Valid reports whether v names a known schema.
func (v Version) Valid() bool {
	return v == V1 || v == V2
}

// ParseVersion accepts "1", "2", "v1" or "v2".
func ParseVersion(s string) (Version, error) {
	switch s {
	case "1", "v1":
		return V1, nil
	case "2", "v2":
		return V2, nil
	default:
		return 0, fmt.Errorf("unknown protocol version %q", s)
	}
}

// Terms is the swap tuple a maker and an acceptor both sign.
// Expires is a block height and is only part of the v2 schema; zero means
// the v2 offer carries no expiry.
type Terms struct {
	OfferContract  common.Address
	OfferTokenID   *big.Int
	WantedContract common.Address
	WantedTokenID  *big.Int
	Expires        uint64
}

func (t Terms) String() string {
	s := fmt.Sprintf("%s#%s->%s#%s", t.OfferContract.Hex(), bigString(t.OfferTokenID), t.WantedContract.Hex(), bigString(t.WantedTokenID))
	if t.Expires != 0 {
		s += fmt.Sprintf("@%d", t.Expires)
	}
	return s
}

func bigString(n *big.Int) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}
