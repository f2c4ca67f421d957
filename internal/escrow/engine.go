// Package escrow implements the signed-offer escrow: an offer registry
// whose entries are created, revoked and settled by signatures over a
// canonical OfferKey, with ownership and approval re-read from the token
// contracts on every call and both legs of a swap settled in one unit of
// work on the host ledger.
package escrow

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/letmeget/swapgate/internal/ledger"
	"github.com/letmeget/swapgate/internal/pkg/apperrors"
	"github.com/letmeget/swapgate/internal/pkg/logger"
	"github.com/letmeget/swapgate/internal/protocol"
)

// DefaultMinExpiryBuffer is the number of blocks an expiry must lie beyond
// the current height.
const DefaultMinExpiryBuffer = 2

type Config struct {
	// Address is the escrow's identity on the ledger, the operator token
	// owners approve. A zero address allocates a fresh one.
	Address         common.Address
	MinExpiryBuffer uint64
	Verifier        *protocol.Verifier
	Logger          *slog.Logger
}

type engine struct {
	version  protocol.Version
	address  common.Address
	buffer   uint64
	ledger   *ledger.Ledger
	store    Store
	verifier *protocol.Verifier
	log      *slog.Logger
}

func newEngine(v protocol.Version, l *ledger.Ledger, store Store, cfg Config) *engine {
	addr := cfg.Address
	if addr == (common.Address{}) {
		addr = l.NewAddress()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Component("escrow")
	}
	return &engine{
		version:  v,
		address:  addr,
		buffer:   cfg.MinExpiryBuffer,
		ledger:   l,
		store:    store,
		verifier: cfg.Verifier,
		log:      log.With("escrow", addr.Hex(), "version", v.String()),
	}
}

// offer registers terms signed by the current owner of the offered token.
// When requireExpiry is set a zero expiry is rejected instead of meaning
// "never expires".
func (e *engine) offer(ctx context.Context, t protocol.Terms, sig []byte, requireExpiry bool) (*Event, error) {
	var ev *Event
	_, err := e.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		offerKey, err := protocol.Encode(e.version, t)
		if err != nil {
			return err
		}
		if e.version == protocol.V2 && (requireExpiry || t.Expires != 0) {
			if err := e.checkExpires(t.Expires, tx.Height()); err != nil {
				return err
			}
		}

		maker := e.verifier.Recover(offerKey, sig)
		offered, err := tx.Contract(t.OfferContract, e.address)
		if err != nil {
			return err
		}
		if err := Authorize(ctx, offered, t.OfferTokenID, maker, e.address); err != nil {
			return err
		}

		if err := e.store.Put(ctx, offerKey, Record{Exists: true}); err != nil {
			return err
		}
		ev = e.event(KindOffer, offerKey, t, maker, tx.Height())
		tx.Emit(e.address, *ev)
		return nil
	})
	if err != nil {
		e.log.Debug("offer rejected", "terms", t.String(), "error", err)
		return nil, err
	}
	e.log.Info("offer created", "offer_key", ev.OfferKey.Hex(), "maker", ev.Signer.Hex())
	return ev, nil
}

// revoke moves an Active offer to Revoked. The signer must pass the same
// checks as at creation.
func (e *engine) revoke(ctx context.Context, t protocol.Terms, sig []byte) (*Event, error) {
	var ev *Event
	_, err := e.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		offerKey, err := protocol.Encode(e.version, t)
		if err != nil {
			return err
		}

		maker := e.verifier.Recover(offerKey, sig)
		offered, err := tx.Contract(t.OfferContract, e.address)
		if err != nil {
			return err
		}
		if err := Authorize(ctx, offered, t.OfferTokenID, maker, e.address); err != nil {
			return err
		}

		rec, err := e.store.Get(ctx, offerKey)
		if err != nil {
			return err
		}
		if rec.State() != StateActive {
			return apperrors.State(apperrors.ReasonOfferDoesNotExist)
		}
		if err := e.store.Put(ctx, offerKey, Record{Exists: true, Revoked: true}); err != nil {
			return err
		}
		ev = e.event(KindRevoke, offerKey, t, maker, tx.Height())
		tx.Emit(e.address, *ev)
		return nil
	})
	if err != nil {
		e.log.Debug("revoke rejected", "terms", t.String(), "error", err)
		return nil, err
	}
	e.log.Info("offer revoked", "offer_key", ev.OfferKey.Hex())
	return ev, nil
}

// accept settles an Active offer: the acceptor's signature over the same
// terms is checked against the wanted token, the offered token's approval
// is re-checked, both legs are transferred and the record is deleted.
// Any failure leaves both contracts and the registry untouched.
func (e *engine) accept(ctx context.Context, t protocol.Terms, sig []byte) (*Event, error) {
	var ev *Event
	_, err := e.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		offerKey, err := protocol.Encode(e.version, t)
		if err != nil {
			return err
		}

		rec, err := e.store.Get(ctx, offerKey)
		if err != nil {
			return err
		}
		switch rec.State() {
		case StateAbsent:
			return apperrors.State(apperrors.ReasonOfferDoesNotExist)
		case StateRevoked:
			return apperrors.State(apperrors.ReasonOfferRevoked)
		}
		if e.expired(t.Expires, tx.Height()) {
			return apperrors.State(apperrors.ReasonOfferExpired)
		}

		acceptor := e.verifier.Recover(offerKey, sig)
		wanted, err := tx.Contract(t.WantedContract, e.address)
		if err != nil {
			return err
		}
		if err := Authorize(ctx, wanted, t.WantedTokenID, acceptor, e.address); err != nil {
			return err
		}

		offered, err := tx.Contract(t.OfferContract, e.address)
		if err != nil {
			return err
		}
		maker, err := offered.OwnerOf(ctx, t.OfferTokenID)
		if err != nil {
			return err
		}
		if err := checkApproval(ctx, offered, t.OfferTokenID, maker, e.address); err != nil {
			return err
		}

		if err := offered.TransferFrom(ctx, maker, acceptor, t.OfferTokenID); err != nil {
			return err
		}
		if err := wanted.TransferFrom(ctx, acceptor, maker, t.WantedTokenID); err != nil {
			return err
		}

		deleted, err := e.store.Delete(ctx, offerKey)
		if err != nil {
			return err
		}
		if !deleted {
			return apperrors.State(apperrors.ReasonOfferDoesNotExist)
		}

		ev = e.event(KindAccept, offerKey, t, acceptor, tx.Height())
		ev.Maker = maker
		tx.Emit(e.address, *ev)
		return nil
	})
	if err != nil {
		e.log.Debug("accept rejected", "terms", t.String(), "error", err)
		return nil, err
	}
	e.log.Info("offer settled", "offer_key", ev.OfferKey.Hex(), "maker", ev.Maker.Hex(), "acceptor", ev.Signer.Hex())
	return ev, nil
}

// canComplete reports whether terms could be settled right now by some
// owner of the wanted token. Contract failures read as false.
func (e *engine) canComplete(ctx context.Context, t protocol.Terms) (bool, error) {
	offerKey, err := protocol.Encode(e.version, t)
	if err != nil {
		return false, err
	}

	var ok bool
	err = e.ledger.View(ctx, func(s ledger.State) error {
		rec, err := e.store.Get(ctx, offerKey)
		if err != nil {
			return err
		}
		if rec.State() != StateActive || e.expired(t.Expires, s.Height()) {
			return nil
		}
		offered, err := s.Contract(t.OfferContract, e.address)
		if err != nil {
			return nil
		}
		owner, err := offered.OwnerOf(ctx, t.OfferTokenID)
		if err != nil {
			return nil
		}
		ok = checkApproval(ctx, offered, t.OfferTokenID, owner, e.address) == nil
		return nil
	})
	return ok, err
}

// lookup returns the OfferKey of terms and its registry state.
func (e *engine) lookup(ctx context.Context, t protocol.Terms) (common.Hash, State, error) {
	offerKey, err := protocol.Encode(e.version, t)
	if err != nil {
		return common.Hash{}, StateAbsent, err
	}
	var state State
	err = e.ledger.View(ctx, func(ledger.State) error {
		rec, err := e.store.Get(ctx, offerKey)
		state = rec.State()
		return err
	})
	return offerKey, state, err
}

// signer recovers who signed terms under this instance's schema. A
// malformed signature yields the zero address.
func (e *engine) signer(t protocol.Terms, sig []byte) (common.Address, common.Hash, error) {
	offerKey, err := protocol.Encode(e.version, t)
	if err != nil {
		return common.Address{}, common.Hash{}, err
	}
	return e.verifier.Recover(offerKey, sig), offerKey, nil
}

func (e *engine) checkExpires(expires, height uint64) error {
	if expires <= height+e.buffer {
		return apperrors.Parameter(apperrors.ReasonExpiresTooLow)
	}
	return nil
}

// expired reports whether an offer with the given expiry can no longer be
// accepted at height. Zero never expires.
func (e *engine) expired(expires, height uint64) bool {
	return e.version == protocol.V2 && expires != 0 && height >= expires
}

func (e *engine) event(kind Kind, offerKey common.Hash, t protocol.Terms, signer common.Address, height uint64) *Event {
	return &Event{
		Kind:     kind,
		Version:  e.version,
		Escrow:   e.address,
		OfferKey: offerKey,
		Terms:    t,
		Signer:   signer,
		Height:   height,
	}
}
