package service

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/letmeget/swapgate/internal/escrow"
	"github.com/letmeget/swapgate/internal/pkg/apperrors"
	"github.com/letmeget/swapgate/internal/pkg/logger"
	"github.com/letmeget/swapgate/internal/pkg/metrics"
	"github.com/letmeget/swapgate/internal/protocol"
)

// EscrowService routes calls to the escrow instance of the requested
// protocol version and records the outcome of each.
type EscrowService struct {
	exchanges map[protocol.Version]escrow.Exchange
}

func NewEscrowService(exchanges ...escrow.Exchange) *EscrowService {
	m := make(map[protocol.Version]escrow.Exchange, len(exchanges))
	for _, x := range exchanges {
		m[x.Schema()] = x
	}
	return &EscrowService{exchanges: m}
}

// Exchange returns the instance serving v, or NotFound when that version is
// disabled.
func (s *EscrowService) Exchange(v protocol.Version) (escrow.Exchange, error) {
	x, ok := s.exchanges[v]
	if !ok {
		return nil, apperrors.NewNotFound("escrow version " + v.String() + " is not enabled")
	}
	return x, nil
}

// Escrows maps each enabled version to its escrow address.
func (s *EscrowService) Escrows() map[string]string {
	out := make(map[string]string, len(s.exchanges))
	for v, x := range s.exchanges {
		out[v.String()] = x.Address().Hex()
	}
	return out
}

func (s *EscrowService) Offer(ctx context.Context, v protocol.Version, t protocol.Terms, sig []byte) (*escrow.Event, error) {
	x, err := s.Exchange(v)
	if err != nil {
		return nil, err
	}
	return observe(v, "offer", func() (*escrow.Event, error) {
		return x.Offer(ctx, t, sig)
	})
}

func (s *EscrowService) LimitedOffer(ctx context.Context, v protocol.Version, t protocol.Terms, sig []byte) (*escrow.Event, error) {
	x, err := s.Exchange(v)
	if err != nil {
		return nil, err
	}
	lo, ok := x.(escrow.LimitedOfferer)
	if !ok {
		return nil, unsupported(v, "limited offer")
	}
	return observe(v, "limited_offer", func() (*escrow.Event, error) {
		return lo.LimitedOffer(ctx, t, sig)
	})
}

func (s *EscrowService) Accept(ctx context.Context, v protocol.Version, t protocol.Terms, sig []byte) (*escrow.Event, error) {
	x, err := s.Exchange(v)
	if err != nil {
		return nil, err
	}
	return observe(v, "accept", func() (*escrow.Event, error) {
		return x.Accept(ctx, t, sig)
	})
}

func (s *EscrowService) Revoke(ctx context.Context, v protocol.Version, t protocol.Terms, sig []byte) (*escrow.Event, error) {
	x, err := s.Exchange(v)
	if err != nil {
		return nil, err
	}
	r, ok := x.(escrow.Revoker)
	if !ok {
		return nil, unsupported(v, "revoke")
	}
	return observe(v, "revoke", func() (*escrow.Event, error) {
		return r.Revoke(ctx, t, sig)
	})
}

// Signer recovers the signer of t. The OfferKey is only returned by
// versions that expose it.
func (s *EscrowService) Signer(v protocol.Version, t protocol.Terms, sig []byte) (common.Address, *common.Hash, error) {
	x, err := s.Exchange(v)
	if err != nil {
		return common.Address{}, nil, err
	}
	if helper, ok := x.(escrow.OfferSigner); ok {
		addr, key, err := helper.OfferSigner(t, sig)
		if err != nil {
			return common.Address{}, nil, err
		}
		return addr, &key, nil
	}
	addr, err := x.Signer(t, sig)
	return addr, nil, err
}

// Completion is the answer to a can-complete query.
type Completion struct {
	OfferKey    common.Hash
	State       escrow.State
	CanComplete bool
}

func (s *EscrowService) CanComplete(ctx context.Context, v protocol.Version, t protocol.Terms) (*Completion, error) {
	x, err := s.Exchange(v)
	if err != nil {
		return nil, err
	}
	key, state, err := x.Lookup(ctx, t)
	if err != nil {
		return nil, err
	}
	ok, err := x.OfferCanComplete(ctx, t)
	if err != nil {
		return nil, err
	}
	return &Completion{OfferKey: key, State: state, CanComplete: ok}, nil
}

func (s *EscrowService) Version(v protocol.Version) (uint8, error) {
	x, err := s.Exchange(v)
	if err != nil {
		return 0, err
	}
	helper, ok := x.(escrow.OfferSigner)
	if !ok {
		return 0, unsupported(v, "version")
	}
	return helper.Version(), nil
}

func unsupported(v protocol.Version, op string) error {
	err := apperrors.NewNotFound(op + " is not supported by escrow " + v.String())
	err.Reason = apperrors.ReasonOperationUnsupported
	return err
}

func observe(v protocol.Version, op string, fn func() (*escrow.Event, error)) (*escrow.Event, error) {
	start := time.Now()
	ev, err := fn()
	metrics.LatencyBucket.WithLabelValues("escrow_" + op).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
		reason := apperrors.ReasonOf(err)
		if reason == "" {
			reason = string(apperrors.TypeOf(err))
		}
		metrics.EscrowRejects.WithLabelValues(reason).Inc()
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			outcome = "error"
			logger.Error("escrow call failed", "version", v.String(), "operation", op, "error", err)
		}
	}
	metrics.EscrowCalls.WithLabelValues(v.String(), op, outcome).Inc()
	return ev, err
}
