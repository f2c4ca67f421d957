package escrow

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/letmeget/swapgate/internal/ledger"
	"github.com/letmeget/swapgate/internal/protocol"
)

// Exchange is the surface shared by every protocol version.
type Exchange interface {
	Schema() protocol.Version
	Address() common.Address
	Offer(ctx context.Context, t protocol.Terms, sig []byte) (*Event, error)
	Accept(ctx context.Context, t protocol.Terms, sig []byte) (*Event, error)
	Signer(t protocol.Terms, sig []byte) (common.Address, error)
	OfferCanComplete(ctx context.Context, t protocol.Terms) (bool, error)
	Lookup(ctx context.Context, t protocol.Terms) (common.Hash, State, error)
}

// Revoker is implemented by versions that support cancellation.
type Revoker interface {
	Revoke(ctx context.Context, t protocol.Terms, sig []byte) (*Event, error)
}

// LimitedOfferer is implemented by versions that support time-boxed offers.
type LimitedOfferer interface {
	LimitedOffer(ctx context.Context, t protocol.Terms, sig []byte) (*Event, error)
}

// OfferSigner is implemented by versions that expose the recovered signer
// together with the OfferKey, and a version identifier.
type OfferSigner interface {
	Version() uint8
	OfferSigner(t protocol.Terms, sig []byte) (common.Address, common.Hash, error)
}

var (
	_ Exchange       = (*V1)(nil)
	_ Exchange       = (*V2)(nil)
	_ Revoker        = (*V2)(nil)
	_ LimitedOfferer = (*V2)(nil)
	_ OfferSigner    = (*V2)(nil)
)

// V1 is an escrow instance using the four-field schema without expiry.
type V1 struct {
	e *engine
}

func NewV1(l *ledger.Ledger, store Store, cfg Config) *V1 {
	return &V1{e: newEngine(protocol.V1, l, store, cfg)}
}

func (x *V1) Schema() protocol.Version { return protocol.V1 }
func (x *V1) Address() common.Address  { return x.e.address }

func (x *V1) Offer(ctx context.Context, t protocol.Terms, sig []byte) (*Event, error) {
	return x.e.offer(ctx, t, sig, false)
}

func (x *V1) Accept(ctx context.Context, t protocol.Terms, sig []byte) (*Event, error) {
	return x.e.accept(ctx, t, sig)
}

func (x *V1) Signer(t protocol.Terms, sig []byte) (common.Address, error) {
	addr, _, err := x.e.signer(t, sig)
	return addr, err
}

func (x *V1) OfferCanComplete(ctx context.Context, t protocol.Terms) (bool, error) {
	return x.e.canComplete(ctx, t)
}

func (x *V1) Lookup(ctx context.Context, t protocol.Terms) (common.Hash, State, error) {
	return x.e.lookup(ctx, t)
}

// V2 is an escrow instance using the five-field schema. It adds expiry,
// revocation and the signer/OfferKey helper.
type V2 struct {
	e *engine
}

func NewV2(l *ledger.Ledger, store Store, cfg Config) *V2 {
	return &V2{e: newEngine(protocol.V2, l, store, cfg)}
}

func (x *V2) Schema() protocol.Version { return protocol.V2 }
func (x *V2) Address() common.Address  { return x.e.address }
func (x *V2) Version() uint8           { return uint8(protocol.V2) }

// Offer creates an offer; a zero expiry means the offer never expires.
func (x *V2) Offer(ctx context.Context, t protocol.Terms, sig []byte) (*Event, error) {
	return x.e.offer(ctx, t, sig, false)
}

// LimitedOffer creates an offer that must carry an expiry beyond the
// current height plus the minimum buffer.
func (x *V2) LimitedOffer(ctx context.Context, t protocol.Terms, sig []byte) (*Event, error) {
	return x.e.offer(ctx, t, sig, true)
}

func (x *V2) Accept(ctx context.Context, t protocol.Terms, sig []byte) (*Event, error) {
	return x.e.accept(ctx, t, sig)
}

func (x *V2) Revoke(ctx context.Context, t protocol.Terms, sig []byte) (*Event, error) {
	return x.e.revoke(ctx, t, sig)
}

func (x *V2) Signer(t protocol.Terms, sig []byte) (common.Address, error) {
	addr, _, err := x.e.signer(t, sig)
	return addr, err
}

func (x *V2) OfferSigner(t protocol.Terms, sig []byte) (common.Address, common.Hash, error) {
	return x.e.signer(t, sig)
}

func (x *V2) OfferCanComplete(ctx context.Context, t protocol.Terms) (bool, error) {
	return x.e.canComplete(ctx, t)
}

func (x *V2) Lookup(ctx context.Context, t protocol.Terms) (common.Hash, State, error) {
	return x.e.lookup(ctx, t)
}
