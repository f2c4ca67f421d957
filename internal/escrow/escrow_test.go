package escrow

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letmeget/swapgate/internal/ledger"
	"github.com/letmeget/swapgate/internal/pkg/apperrors"
	"github.com/letmeget/swapgate/internal/protocol"
	"github.com/letmeget/swapgate/internal/signer"
	"github.com/letmeget/swapgate/internal/token"
)

type fixture struct {
	ledger   *ledger.Ledger
	apes     *token.Collection
	rats     *token.Collection
	maker    *signer.Signer
	acceptor *signer.Signer
	v1       *V1
	v2       *V2
	events   []Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l := ledger.New(ledger.Options{Automine: true})
	f := &fixture{
		ledger: l,
		apes:   l.DeployCollection("Apes", "APE"),
		rats:   l.DeployCollection("Rats", "RAT"),
	}

	var err error
	f.maker, err = signer.Generate()
	require.NoError(t, err)
	f.acceptor, err = signer.Generate()
	require.NoError(t, err)

	verifier, err := protocol.NewVerifier(64)
	require.NoError(t, err)
	cfg := Config{MinExpiryBuffer: DefaultMinExpiryBuffer, Verifier: verifier}
	f.v1 = NewV1(l, NewMemoryStore(), cfg)
	f.v2 = NewV2(l, NewMemoryStore(), cfg)

	l.Subscribe(func(r ledger.Receipt) {
		for _, log := range r.Logs {
			if ev, ok := log.Event.(Event); ok {
				f.events = append(f.events, ev)
			}
		}
	})

	f.tx(t, func() error { return f.apes.Mint(f.maker.Address(), big.NewInt(8)) })
	f.tx(t, func() error { return f.rats.Mint(f.acceptor.Address(), big.NewInt(9)) })
	return f
}

func (f *fixture) tx(t *testing.T, fn func() error) {
	t.Helper()
	_, err := f.ledger.Transact(context.Background(), func(*ledger.Tx) error { return fn() })
	require.NoError(t, err)
}

// approveBoth lets the escrow move A#8 and B#9.
func (f *fixture) approveBoth(t *testing.T, escrow common.Address) {
	t.Helper()
	f.tx(t, func() error { return f.apes.Approve(f.maker.Address(), escrow, big.NewInt(8)) })
	f.tx(t, func() error { return f.rats.Approve(f.acceptor.Address(), escrow, big.NewInt(9)) })
}

func (f *fixture) terms(expires uint64) protocol.Terms {
	return protocol.Terms{
		OfferContract:  f.apes.Address(),
		OfferTokenID:   big.NewInt(8),
		WantedContract: f.rats.Address(),
		WantedTokenID:  big.NewInt(9),
		Expires:        expires,
	}
}

func sign(t *testing.T, s *signer.Signer, v protocol.Version, terms protocol.Terms) []byte {
	t.Helper()
	sig, _, err := s.SignOffer(v, terms)
	require.NoError(t, err)
	return sig
}

func owner(t *testing.T, c *token.Collection, id int64) common.Address {
	t.Helper()
	addr, err := c.OwnerOf(big.NewInt(id))
	require.NoError(t, err)
	return addr
}

func TestV1_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approveBoth(t, f.v1.Address())
	terms := f.terms(0)

	offer, err := f.v1.Offer(ctx, terms, sign(t, f.maker, protocol.V1, terms))
	require.NoError(t, err)
	assert.Equal(t, KindOffer, offer.Kind)
	assert.Equal(t, f.maker.Address(), offer.Signer)
	assert.Equal(t, f.apes.Address(), offer.Terms.OfferContract)
	assert.Equal(t, int64(8), offer.Terms.OfferTokenID.Int64())
	assert.Equal(t, f.rats.Address(), offer.Terms.WantedContract)
	assert.Equal(t, int64(9), offer.Terms.WantedTokenID.Int64())

	offerKey, state, err := f.v1.Lookup(ctx, terms)
	require.NoError(t, err)
	assert.Equal(t, StateActive, state)
	assert.Equal(t, offer.OfferKey, offerKey)

	ok, err := f.v1.OfferCanComplete(ctx, terms)
	require.NoError(t, err)
	assert.True(t, ok)

	accept, err := f.v1.Accept(ctx, terms, sign(t, f.acceptor, protocol.V1, terms))
	require.NoError(t, err)
	assert.Equal(t, KindAccept, accept.Kind)
	assert.Equal(t, f.acceptor.Address(), accept.Signer)
	assert.Equal(t, f.maker.Address(), accept.Maker)

	assert.Equal(t, f.acceptor.Address(), owner(t, f.apes, 8))
	assert.Equal(t, f.maker.Address(), owner(t, f.rats, 9))

	_, state, err = f.v1.Lookup(ctx, terms)
	require.NoError(t, err)
	assert.Equal(t, StateAbsent, state)

	require.Len(t, f.events, 2)
	assert.Equal(t, KindOffer, f.events[0].Kind)
	assert.Equal(t, KindAccept, f.events[1].Kind)
	assert.Equal(t, f.v1.Address(), f.events[1].Escrow)
}

func TestV2_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approveBoth(t, f.v2.Address())
	terms := f.terms(f.ledger.Height() + 100)

	_, err := f.v2.LimitedOffer(ctx, terms, sign(t, f.maker, protocol.V2, terms))
	require.NoError(t, err)

	_, err = f.v2.Accept(ctx, terms, sign(t, f.acceptor, protocol.V2, terms))
	require.NoError(t, err)

	assert.Equal(t, f.acceptor.Address(), owner(t, f.apes, 8))
	assert.Equal(t, f.maker.Address(), owner(t, f.rats, 9))
	last := f.events[len(f.events)-1]
	assert.Equal(t, KindAccept, last.Kind)
	assert.Equal(t, terms.Expires, last.Terms.Expires)
}

func TestOffer_SignerNotOwner(t *testing.T) {
	f := newFixture(t)
	f.approveBoth(t, f.v1.Address())
	terms := f.terms(0)

	_, err := f.v1.Offer(context.Background(), terms, sign(t, f.acceptor, protocol.V1, terms))
	assert.Equal(t, apperrors.ReasonSignerNotOwner, apperrors.ReasonOf(err))
	assert.Equal(t, apperrors.ErrAuthorization, apperrors.TypeOf(err))
	assert.Empty(t, f.events)
}

func TestOffer_MalformedSignature(t *testing.T) {
	f := newFixture(t)
	f.approveBoth(t, f.v1.Address())

	_, err := f.v1.Offer(context.Background(), f.terms(0), []byte{1, 2, 3})
	assert.Equal(t, apperrors.ReasonSignerNotOwner, apperrors.ReasonOf(err))
}

func TestOffer_ContractNotApproved(t *testing.T) {
	f := newFixture(t)
	terms := f.terms(0)

	_, err := f.v1.Offer(context.Background(), terms, sign(t, f.maker, protocol.V1, terms))
	assert.Equal(t, apperrors.ReasonContractNotApproved, apperrors.ReasonOf(err))

	// Operator approval is sufficient.
	f.tx(t, func() error { return f.apes.SetApprovalForAll(f.maker.Address(), f.v1.Address(), true) })
	_, err = f.v1.Offer(context.Background(), terms, sign(t, f.maker, protocol.V1, terms))
	assert.NoError(t, err)
}

func TestOffer_UnknownContract(t *testing.T) {
	f := newFixture(t)
	terms := f.terms(0)
	terms.OfferContract = common.HexToAddress("0x1234")

	_, err := f.v1.Offer(context.Background(), terms, sign(t, f.maker, protocol.V1, terms))
	assert.Equal(t, apperrors.ReasonContractNotFound, apperrors.ReasonOf(err))
}

func TestV1_RejectsExpires(t *testing.T) {
	f := newFixture(t)
	f.approveBoth(t, f.v1.Address())
	terms := f.terms(50)

	_, err := f.v1.Offer(context.Background(), terms, make([]byte, 65))
	assert.Equal(t, apperrors.ReasonExpiresNotSupported, apperrors.ReasonOf(err))
}

func TestOffer_SchemasNotMixed(t *testing.T) {
	f := newFixture(t)
	f.approveBoth(t, f.v2.Address())
	terms := f.terms(0)

	_, err := f.v2.Offer(context.Background(), terms, sign(t, f.maker, protocol.V1, terms))
	assert.Equal(t, apperrors.ReasonSignerNotOwner, apperrors.ReasonOf(err))
}

func TestOffer_OverwritesActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approveBoth(t, f.v1.Address())
	terms := f.terms(0)
	sig := sign(t, f.maker, protocol.V1, terms)

	_, err := f.v1.Offer(ctx, terms, sig)
	require.NoError(t, err)
	_, err = f.v1.Offer(ctx, terms, sig)
	require.NoError(t, err)

	_, state, err := f.v1.Lookup(ctx, terms)
	require.NoError(t, err)
	assert.Equal(t, StateActive, state)
	assert.Len(t, f.events, 2)
}

func TestAccept_OfferDoesNotExist(t *testing.T) {
	f := newFixture(t)
	f.approveBoth(t, f.v1.Address())
	terms := f.terms(0)

	_, err := f.v1.Accept(context.Background(), terms, sign(t, f.acceptor, protocol.V1, terms))
	assert.Equal(t, apperrors.ReasonOfferDoesNotExist, apperrors.ReasonOf(err))
	assert.Equal(t, apperrors.ErrState, apperrors.TypeOf(err))
}

func TestAccept_SignerNotOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approveBoth(t, f.v1.Address())
	terms := f.terms(0)

	_, err := f.v1.Offer(ctx, terms, sign(t, f.maker, protocol.V1, terms))
	require.NoError(t, err)

	stranger, err := signer.Generate()
	require.NoError(t, err)
	_, err = f.v1.Accept(ctx, terms, sign(t, stranger, protocol.V1, terms))
	assert.Equal(t, apperrors.ReasonSignerNotOwner, apperrors.ReasonOf(err))
}

func TestAccept_ContractNotApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tx(t, func() error { return f.apes.Approve(f.maker.Address(), f.v1.Address(), big.NewInt(8)) })
	terms := f.terms(0)

	_, err := f.v1.Offer(ctx, terms, sign(t, f.maker, protocol.V1, terms))
	require.NoError(t, err)

	_, err = f.v1.Accept(ctx, terms, sign(t, f.acceptor, protocol.V1, terms))
	assert.Equal(t, apperrors.ReasonContractNotApproved, apperrors.ReasonOf(err))

	_, state, err := f.v1.Lookup(ctx, terms)
	require.NoError(t, err)
	assert.Equal(t, StateActive, state)
}

func TestAccept_OfferedTokenApprovalWithdrawn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tx(t, func() error { return f.apes.SetApprovalForAll(f.maker.Address(), f.v1.Address(), true) })
	f.tx(t, func() error { return f.rats.Approve(f.acceptor.Address(), f.v1.Address(), big.NewInt(9)) })
	terms := f.terms(0)

	_, err := f.v1.Offer(ctx, terms, sign(t, f.maker, protocol.V1, terms))
	require.NoError(t, err)

	f.tx(t, func() error { return f.apes.SetApprovalForAll(f.maker.Address(), f.v1.Address(), false) })

	ok, err := f.v1.OfferCanComplete(ctx, terms)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.v1.Accept(ctx, terms, sign(t, f.acceptor, protocol.V1, terms))
	assert.Equal(t, apperrors.ReasonContractNotApproved, apperrors.ReasonOf(err))
	assert.Equal(t, f.acceptor.Address(), owner(t, f.rats, 9))
}

func TestAccept_ConsumedReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approveBoth(t, f.v1.Address())
	terms := f.terms(0)
	acceptSig := sign(t, f.acceptor, protocol.V1, terms)

	_, err := f.v1.Offer(ctx, terms, sign(t, f.maker, protocol.V1, terms))
	require.NoError(t, err)
	_, err = f.v1.Accept(ctx, terms, acceptSig)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = f.v1.Accept(ctx, terms, acceptSig)
		assert.Equal(t, apperrors.ReasonOfferDoesNotExist, apperrors.ReasonOf(err))
	}
	assert.Equal(t, f.acceptor.Address(), owner(t, f.apes, 8))
}

func TestAccept_RacingAcceptsSettleOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approveBoth(t, f.v1.Address())
	terms := f.terms(0)
	acceptSig := sign(t, f.acceptor, protocol.V1, terms)

	_, err := f.v1.Offer(ctx, terms, sign(t, f.maker, protocol.V1, terms))
	require.NoError(t, err)

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.v1.Accept(ctx, terms, acceptSig)
		}(i)
	}
	wg.Wait()

	var settled int
	for _, err := range errs {
		if err == nil {
			settled++
			continue
		}
		assert.Equal(t, apperrors.ReasonOfferDoesNotExist, apperrors.ReasonOf(err))
	}
	assert.Equal(t, 1, settled)
}

type brokenTransfers struct {
	*token.Collection
}

var errTransfer = errors.New("transfer reverted")

func (b brokenTransfers) As(caller common.Address) token.Contract {
	return brokenContract{Contract: b.Collection.As(caller)}
}

type brokenContract struct {
	token.Contract
}

func (brokenContract) TransferFrom(context.Context, common.Address, common.Address, *big.Int) error {
	return errTransfer
}

func TestAccept_SecondLegFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A wanted-side contract whose transfers always fail.
	addr := f.ledger.NewAddress()
	broken := token.NewCollection(addr, "Broken", "BRK")
	require.NoError(t, broken.Mint(f.acceptor.Address(), big.NewInt(9)))
	require.NoError(t, broken.Approve(f.acceptor.Address(), f.v1.Address(), big.NewInt(9)))
	broken.Commit()
	require.NoError(t, f.ledger.Host(addr, brokenTransfers{broken}))

	f.tx(t, func() error { return f.apes.Approve(f.maker.Address(), f.v1.Address(), big.NewInt(8)) })
	terms := f.terms(0)
	terms.WantedContract = addr

	_, err := f.v1.Offer(ctx, terms, sign(t, f.maker, protocol.V1, terms))
	require.NoError(t, err)
	before := len(f.events)

	_, err = f.v1.Accept(ctx, terms, sign(t, f.acceptor, protocol.V1, terms))
	assert.ErrorIs(t, err, errTransfer)

	assert.Equal(t, f.maker.Address(), owner(t, f.apes, 8), "first leg rolled back")
	approved, err := f.apes.GetApproved(big.NewInt(8))
	require.NoError(t, err)
	assert.Equal(t, f.v1.Address(), approved, "approval restored")

	_, state, err := f.v1.Lookup(ctx, terms)
	require.NoError(t, err)
	assert.Equal(t, StateActive, state)
	assert.Len(t, f.events, before)
}

func TestV2_RevokeIsSticky(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approveBoth(t, f.v2.Address())
	terms := f.terms(0)
	offerSig := sign(t, f.maker, protocol.V2, terms)

	_, err := f.v2.Offer(ctx, terms, offerSig)
	require.NoError(t, err)

	_, err = f.v2.Revoke(ctx, terms, sign(t, f.acceptor, protocol.V2, terms))
	assert.Equal(t, apperrors.ReasonSignerNotOwner, apperrors.ReasonOf(err))

	ev, err := f.v2.Revoke(ctx, terms, offerSig)
	require.NoError(t, err)
	assert.Equal(t, KindRevoke, ev.Kind)

	acceptSig := sign(t, f.acceptor, protocol.V2, terms)
	for i := 0; i < 2; i++ {
		_, err = f.v2.Accept(ctx, terms, acceptSig)
		assert.Equal(t, apperrors.ReasonOfferRevoked, apperrors.ReasonOf(err))
	}

	_, err = f.v2.Revoke(ctx, terms, offerSig)
	assert.Equal(t, apperrors.ReasonOfferDoesNotExist, apperrors.ReasonOf(err))

	ok, err := f.v2.OfferCanComplete(ctx, terms)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestV2_RevokeMissingOffer(t *testing.T) {
	f := newFixture(t)
	f.approveBoth(t, f.v2.Address())
	terms := f.terms(0)

	_, err := f.v2.Revoke(context.Background(), terms, sign(t, f.maker, protocol.V2, terms))
	assert.Equal(t, apperrors.ReasonOfferDoesNotExist, apperrors.ReasonOf(err))
}

func TestV2_ReofferAfterRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approveBoth(t, f.v2.Address())
	terms := f.terms(0)
	offerSig := sign(t, f.maker, protocol.V2, terms)

	_, err := f.v2.Offer(ctx, terms, offerSig)
	require.NoError(t, err)
	_, err = f.v2.Revoke(ctx, terms, offerSig)
	require.NoError(t, err)
	_, err = f.v2.Offer(ctx, terms, offerSig)
	require.NoError(t, err)

	_, state, err := f.v2.Lookup(ctx, terms)
	require.NoError(t, err)
	assert.Equal(t, StateActive, state)
}

func TestV2_ExpiresTooLow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approveBoth(t, f.v2.Address())

	low := f.terms(f.ledger.Height() + DefaultMinExpiryBuffer)
	_, err := f.v2.LimitedOffer(ctx, low, sign(t, f.maker, protocol.V2, low))
	assert.Equal(t, apperrors.ReasonExpiresTooLow, apperrors.ReasonOf(err))
	assert.Equal(t, apperrors.ErrParameter, apperrors.TypeOf(err))

	_, err = f.v2.Offer(ctx, low, sign(t, f.maker, protocol.V2, low))
	assert.Equal(t, apperrors.ReasonExpiresTooLow, apperrors.ReasonOf(err))

	none := f.terms(0)
	_, err = f.v2.LimitedOffer(ctx, none, sign(t, f.maker, protocol.V2, none))
	assert.Equal(t, apperrors.ReasonExpiresTooLow, apperrors.ReasonOf(err))

	_, err = f.v2.Offer(ctx, none, sign(t, f.maker, protocol.V2, none))
	assert.NoError(t, err, "plain offer without expiry")

	ok := f.terms(f.ledger.Height() + DefaultMinExpiryBuffer + 1)
	_, err = f.v2.LimitedOffer(ctx, ok, sign(t, f.maker, protocol.V2, ok))
	assert.NoError(t, err)
}

func TestV2_AcceptExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approveBoth(t, f.v2.Address())
	terms := f.terms(f.ledger.Height() + 5)

	_, err := f.v2.LimitedOffer(ctx, terms, sign(t, f.maker, protocol.V2, terms))
	require.NoError(t, err)

	f.ledger.Mine(terms.Expires - f.ledger.Height())
	require.Equal(t, terms.Expires, f.ledger.Height())

	ok, err := f.v2.OfferCanComplete(ctx, terms)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.v2.Accept(ctx, terms, sign(t, f.acceptor, protocol.V2, terms))
	assert.Equal(t, apperrors.ReasonOfferExpired, apperrors.ReasonOf(err))
	assert.Equal(t, f.maker.Address(), owner(t, f.apes, 8))
}

func TestV2_AcceptJustBeforeExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approveBoth(t, f.v2.Address())
	terms := f.terms(f.ledger.Height() + 5)

	_, err := f.v2.LimitedOffer(ctx, terms, sign(t, f.maker, protocol.V2, terms))
	require.NoError(t, err)

	f.ledger.Mine(terms.Expires - f.ledger.Height() - 1)

	_, err = f.v2.Accept(ctx, terms, sign(t, f.acceptor, protocol.V2, terms))
	require.NoError(t, err)
	assert.Equal(t, f.acceptor.Address(), owner(t, f.apes, 8))
}

func TestV2_OfferSigner(t *testing.T) {
	f := newFixture(t)
	terms := f.terms(77)
	sig, offerKey, err := f.maker.SignOffer(protocol.V2, terms)
	require.NoError(t, err)

	addr, key, err := f.v2.OfferSigner(terms, sig)
	require.NoError(t, err)
	assert.Equal(t, f.maker.Address(), addr)
	assert.Equal(t, offerKey, key)
	assert.Equal(t, uint8(2), f.v2.Version())

	addr, err = f.v1.Signer(f.terms(0), sig)
	require.NoError(t, err)
	assert.NotEqual(t, f.maker.Address(), addr)
}

func TestVersionGate(t *testing.T) {
	f := newFixture(t)
	var x Exchange = f.v1
	_, ok := x.(Revoker)
	assert.False(t, ok)
	_, ok = x.(LimitedOfferer)
	assert.False(t, ok)
	_, ok = x.(OfferSigner)
	assert.False(t, ok)

	x = f.v2
	_, ok = x.(Revoker)
	assert.True(t, ok)
	assert.NotEqual(t, f.v1.Address(), f.v2.Address())
}

func TestOfferCanComplete_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	terms := f.terms(0)

	ok, err := f.v1.OfferCanComplete(ctx, terms)
	require.NoError(t, err)
	assert.False(t, ok, "no offer yet")

	f.approveBoth(t, f.v1.Address())
	_, err = f.v1.Offer(ctx, terms, sign(t, f.maker, protocol.V1, terms))
	require.NoError(t, err)

	ok, err = f.v1.OfferCanComplete(ctx, terms)
	require.NoError(t, err)
	assert.True(t, ok)

	bad := f.terms(0)
	bad.OfferTokenID = big.NewInt(-1)
	_, err = f.v1.OfferCanComplete(ctx, bad)
	assert.Equal(t, apperrors.ReasonInvalidTokenID, apperrors.ReasonOf(err))
}

func TestAuthorize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	escrow := f.v1.Address()
	contract := f.apes.As(escrow)

	err := Authorize(ctx, contract, big.NewInt(8), common.Address{}, escrow)
	assert.Equal(t, apperrors.ReasonSignerNotOwner, apperrors.ReasonOf(err))

	err = Authorize(ctx, contract, big.NewInt(8), f.maker.Address(), escrow)
	assert.Equal(t, apperrors.ReasonContractNotApproved, apperrors.ReasonOf(err))

	err = Authorize(ctx, contract, big.NewInt(99), f.maker.Address(), escrow)
	assert.Equal(t, token.ReasonNonexistentToken, apperrors.ReasonOf(err))

	f.tx(t, func() error { return f.apes.Approve(f.maker.Address(), escrow, big.NewInt(8)) })
	assert.NoError(t, Authorize(ctx, contract, big.NewInt(8), f.maker.Address(), escrow))
}

func TestMemoryStore_DeleteOnlyActive(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	key := common.HexToHash("0x01")

	ok, err := s.Delete(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, key, Record{Exists: true, Revoked: true}))
	ok, _ = s.Delete(ctx, key)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, key, Record{Exists: true}))
	ok, _ = s.Delete(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, 0, s.Len())
}
