package model

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/letmeget/swapgate/internal/pkg/apperrors"
	"github.com/letmeget/swapgate/internal/protocol"
)

// TermsRequest is the swap tuple as it travels over JSON. Token ids are
// decimal or 0x-prefixed hex strings so that full 256-bit ids survive.
type TermsRequest struct {
	OfferContract  string `json:"offer_contract" binding:"required"`
	OfferTokenID   string `json:"offer_token_id" binding:"required"`
	WantedContract string `json:"wanted_contract" binding:"required"`
	WantedTokenID  string `json:"wanted_token_id" binding:"required"`
	Expires        uint64 `json:"expires,omitempty"`
}

// OfferRequest is the body of offer, limited offer, accept, revoke and the
// signer helpers.
type OfferRequest struct {
	TermsRequest
	Signature string `json:"signature" binding:"required"`
}

// PreflightRequest carries the tuple and both parties' signatures for a
// read-only check against a live chain.
type PreflightRequest struct {
	TermsRequest
	// Version selects the hash schema, "v1" or "v2"; empty means v2.
	Version           string `json:"version,omitempty"`
	MakerSignature    string `json:"maker_signature" binding:"required"`
	AcceptorSignature string `json:"acceptor_signature,omitempty"`
}

func (r TermsRequest) Terms() (protocol.Terms, error) {
	offerContract, err := ParseAddress("offer_contract", r.OfferContract)
	if err != nil {
		return protocol.Terms{}, err
	}
	wantedContract, err := ParseAddress("wanted_contract", r.WantedContract)
	if err != nil {
		return protocol.Terms{}, err
	}
	offerID, err := ParseTokenID(r.OfferTokenID)
	if err != nil {
		return protocol.Terms{}, err
	}
	wantedID, err := ParseTokenID(r.WantedTokenID)
	if err != nil {
		return protocol.Terms{}, err
	}
	return protocol.Terms{
		OfferContract:  offerContract,
		OfferTokenID:   offerID,
		WantedContract: wantedContract,
		WantedTokenID:  wantedID,
		Expires:        r.Expires,
	}, nil
}

func ParseAddress(field, s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, apperrors.NewInvalidRequest(fmt.Sprintf("%s: invalid address %q", field, s))
	}
	return common.HexToAddress(s), nil
}

// ParseTokenID accepts decimal or 0x hex up to 256 bits.
func ParseTokenID(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	id, ok := math.ParseBig256(s)
	if !ok || s == "" || id.Sign() < 0 {
		return nil, apperrors.Parameter(apperrors.ReasonInvalidTokenID)
	}
	return id, nil
}

// ParseSignature decodes a 0x-prefixed hex signature. Length is not
// checked here; a malformed signature recovers to nobody.
func ParseSignature(s string) ([]byte, error) {
	sig, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, apperrors.NewInvalidRequest("signature: " + err.Error())
	}
	return sig, nil
}

type SignerResponse struct {
	Signer   string `json:"signer"`
	OfferKey string `json:"offer_key,omitempty"`
}

type CanCompleteResponse struct {
	OfferKey    string `json:"offer_key"`
	State       string `json:"state"`
	CanComplete bool   `json:"can_complete"`
}

type VersionResponse struct {
	Version uint8 `json:"version"`
}

type LedgerResponse struct {
	Height    uint64            `json:"height"`
	Automine  bool              `json:"automine"`
	Escrows   map[string]string `json:"escrows"`
	Contracts []string          `json:"contracts"`
}

type TokenResponse struct {
	Contract string `json:"contract"`
	TokenID  string `json:"token_id"`
	Owner    string `json:"owner"`
	Approved string `json:"approved"`
}

// Dev-ledger administration.

type DeployCollectionRequest struct {
	Name   string `json:"name" binding:"required"`
	Symbol string `json:"symbol" binding:"required"`
}

type CollectionResponse struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type MintRequest struct {
	To      string `json:"to" binding:"required"`
	TokenID string `json:"token_id" binding:"required"`
}

type ApproveRequest struct {
	Owner   string `json:"owner" binding:"required"`
	To      string `json:"to" binding:"required"`
	TokenID string `json:"token_id" binding:"required"`
}

type ApprovalForAllRequest struct {
	Owner    string `json:"owner" binding:"required"`
	Operator string `json:"operator" binding:"required"`
	Approved bool   `json:"approved"`
}

type TransferRequest struct {
	Caller  string `json:"caller" binding:"required"`
	From    string `json:"from" binding:"required"`
	To      string `json:"to" binding:"required"`
	TokenID string `json:"token_id" binding:"required"`
}

type MineRequest struct {
	Blocks uint64 `json:"blocks"`
}

type PreflightLeg struct {
	Signer     string `json:"signer"`
	Authorized bool   `json:"authorized"`
	Reason     string `json:"reason,omitempty"`
}

type PreflightResponse struct {
	OfferKey    string        `json:"offer_key"`
	Escrow      string        `json:"escrow"`
	BlockNumber uint64        `json:"block_number"`
	Expired     bool          `json:"expired"`
	Maker       PreflightLeg  `json:"maker"`
	Acceptor    *PreflightLeg `json:"acceptor,omitempty"`
}
