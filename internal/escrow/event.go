package escrow

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/letmeget/swapgate/internal/protocol"
)

type Kind string

const (
	KindOffer  Kind = "Offer"
	KindAccept Kind = "Accept"
	KindRevoke Kind = "Revoke"
)

// Event is emitted on the ledger by a committed escrow call. Signer is the
// maker for Offer and Revoke and the acceptor for Accept; Maker is only set
// on Accept.
type Event struct {
	Kind     Kind
	Version  protocol.Version
	Escrow   common.Address
	OfferKey common.Hash
	Terms    protocol.Terms
	Signer   common.Address
	Maker    common.Address
	Height   uint64
}
