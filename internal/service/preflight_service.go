package service

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/letmeget/swapgate/internal/chain"
	"github.com/letmeget/swapgate/internal/escrow"
	"github.com/letmeget/swapgate/internal/model"
	"github.com/letmeget/swapgate/internal/pkg/apperrors"
	"github.com/letmeget/swapgate/internal/protocol"
)

// PreflightService runs the escrow's authorization checks against a live
// chain without sending anything. Ownership and approval are read fresh on
// every call.
type PreflightService struct {
	client   *chain.Client
	escrow   common.Address
	verifier *protocol.Verifier
}

func NewPreflightService(client *chain.Client, escrowAddr common.Address, verifier *protocol.Verifier) *PreflightService {
	return &PreflightService{client: client, escrow: escrowAddr, verifier: verifier}
}

func (s *PreflightService) Enabled() bool {
	return s != nil && s.client.Configured() && s.escrow != (common.Address{})
}

// Check verifies the maker leg and, when acceptorSig is non-empty, the
// acceptor leg concurrently. Authorization failures are reported per leg;
// RPC failures fail the whole check.
func (s *PreflightService) Check(ctx context.Context, v protocol.Version, t protocol.Terms, makerSig, acceptorSig []byte) (*model.PreflightResponse, error) {
	if !s.Enabled() {
		return nil, apperrors.New(apperrors.ErrUpstream, "chain preflight is not configured", nil)
	}
	offerKey, err := protocol.Encode(v, t)
	if err != nil {
		return nil, err
	}

	resp := &model.PreflightResponse{
		OfferKey: offerKey.Hex(),
		Escrow:   s.escrow.Hex(),
	}
	var acceptor *model.PreflightLeg
	if len(acceptorSig) > 0 {
		acceptor = &model.PreflightLeg{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		height, err := s.client.BlockNumber(gctx)
		if err != nil {
			return err
		}
		resp.BlockNumber = height
		return nil
	})
	g.Go(func() error {
		return s.leg(gctx, &resp.Maker, offerKey, makerSig, t.OfferContract, t.OfferTokenID)
	})
	if acceptor != nil {
		g.Go(func() error {
			return s.leg(gctx, acceptor, offerKey, acceptorSig, t.WantedContract, t.WantedTokenID)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp.Acceptor = acceptor
	resp.Expired = v == protocol.V2 && t.Expires != 0 && resp.BlockNumber >= t.Expires
	return resp, nil
}

func (s *PreflightService) leg(ctx context.Context, out *model.PreflightLeg, offerKey common.Hash, sig []byte, contract common.Address, tokenID *big.Int) error {
	signer := s.verifier.Recover(offerKey, sig)
	out.Signer = signer.Hex()

	err := escrow.Authorize(ctx, chain.NewERC721(s.client, contract), tokenID, signer, s.escrow)
	if err == nil {
		out.Authorized = true
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && (appErr.Type == apperrors.ErrAuthorization || appErr.Type == apperrors.ErrContractRevert) {
		out.Reason = appErr.Reason
		return nil
	}
	return err
}
