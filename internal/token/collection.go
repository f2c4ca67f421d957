package token

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/letmeget/swapgate/internal/pkg/apperrors"
)

// Revert reasons raised by Collection, mirroring the usual ERC-721 checks.
const (
	ReasonNonexistentToken  = "nonexistent-token"
	ReasonAlreadyMinted     = "token-already-minted"
	ReasonApproveNotOwner   = "approve-caller-not-owner"
	ReasonApproveToOwner    = "approve-to-owner"
	ReasonApproveToCaller   = "approve-to-caller"
	ReasonIncorrectOwner    = "transfer-from-incorrect-owner"
	ReasonCallerNotApproved = "transfer-caller-not-approved"
	ReasonTransferToZero    = "transfer-to-zero-address"
	ReasonMintToZero        = "mint-to-zero-address"
)

// Collection is an in-process ERC-721 contract. Every mutation is recorded
// in an undo journal so the host ledger can roll a unit of work back.
type Collection struct {
	mu      sync.RWMutex
	address common.Address
	name    string
	symbol  string

	owners    map[common.Hash]common.Address
	approved  map[common.Hash]common.Address
	operators map[common.Address]map[common.Address]bool
	balances  map[common.Address]uint64

	journal []func()
}

func NewCollection(address common.Address, name, symbol string) *Collection {
	return &Collection{
		address:   address,
		name:      name,
		symbol:    symbol,
		owners:    make(map[common.Hash]common.Address),
		approved:  make(map[common.Hash]common.Address),
		operators: make(map[common.Address]map[common.Address]bool),
		balances:  make(map[common.Address]uint64),
	}
}

func (c *Collection) Address() common.Address { return c.address }
func (c *Collection) Name() string            { return c.name }
func (c *Collection) Symbol() string          { return c.symbol }

func tokenKey(id *big.Int) (common.Hash, error) {
	if id == nil || id.Sign() < 0 || id.BitLen() > 256 {
		return common.Hash{}, apperrors.Parameter(apperrors.ReasonInvalidTokenID)
	}
	return common.BigToHash(id), nil
}

// Mint creates tokenID owned by to.
func (c *Collection) Mint(to common.Address, tokenID *big.Int) error {
	key, err := tokenKey(tokenID)
	if err != nil {
		return err
	}
	if to == (common.Address{}) {
		return apperrors.Revert(ReasonMintToZero)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.owners[key]; ok {
		return apperrors.Revert(ReasonAlreadyMinted)
	}
	c.setOwner(key, to)
	c.addBalance(to, 1)
	return nil
}

// Approve grants to the right to transfer tokenID. The caller must own the
// token or be an operator of its owner.
func (c *Collection) Approve(caller, to common.Address, tokenID *big.Int) error {
	key, err := tokenKey(tokenID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	owner, ok := c.owners[key]
	if !ok {
		return apperrors.Revert(ReasonNonexistentToken)
	}
	if to == owner {
		return apperrors.Revert(ReasonApproveToOwner)
	}
	if caller != owner && !c.operators[owner][caller] {
		return apperrors.Revert(ReasonApproveNotOwner)
	}
	c.setApproved(key, to)
	return nil
}

// SetApprovalForAll grants or withdraws blanket operator rights over all of
// the caller's tokens.
func (c *Collection) SetApprovalForAll(caller, operator common.Address, approved bool) error {
	if caller == operator {
		return apperrors.Revert(ReasonApproveToCaller)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setOperator(caller, operator, approved)
	return nil
}

// TransferFrom moves tokenID from from to to on behalf of caller and
// clears its single-token approval.
func (c *Collection) TransferFrom(caller, from, to common.Address, tokenID *big.Int) error {
	key, err := tokenKey(tokenID)
	if err != nil {
		return err
	}
	if to == (common.Address{}) {
		return apperrors.Revert(ReasonTransferToZero)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	owner, ok := c.owners[key]
	if !ok {
		return apperrors.Revert(ReasonNonexistentToken)
	}
	if owner != from {
		return apperrors.Revert(ReasonIncorrectOwner)
	}
	if caller != owner && c.approved[key] != caller && !c.operators[owner][caller] {
		return apperrors.Revert(ReasonCallerNotApproved)
	}

	if _, ok := c.approved[key]; ok {
		c.clearApproved(key)
	}
	c.addBalance(from, -1)
	c.addBalance(to, 1)
	c.setOwner(key, to)
	return nil
}

func (c *Collection) OwnerOf(tokenID *big.Int) (common.Address, error) {
	key, err := tokenKey(tokenID)
	if err != nil {
		return common.Address{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	owner, ok := c.owners[key]
	if !ok {
		return common.Address{}, apperrors.Revert(ReasonNonexistentToken)
	}
	return owner, nil
}

func (c *Collection) GetApproved(tokenID *big.Int) (common.Address, error) {
	key, err := tokenKey(tokenID)
	if err != nil {
		return common.Address{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.owners[key]; !ok {
		return common.Address{}, apperrors.Revert(ReasonNonexistentToken)
	}
	return c.approved[key], nil
}

func (c *Collection) IsApprovedForAll(owner, operator common.Address) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.operators[owner][operator]
}

func (c *Collection) BalanceOf(owner common.Address) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.balances[owner]
}

// As returns a Contract handle whose transfers are made by caller.
func (c *Collection) As(caller common.Address) Contract {
	return &binding{collection: c, caller: caller}
}

type binding struct {
	collection *Collection
	caller     common.Address
}

func (b *binding) OwnerOf(_ context.Context, tokenID *big.Int) (common.Address, error) {
	return b.collection.OwnerOf(tokenID)
}

func (b *binding) GetApproved(_ context.Context, tokenID *big.Int) (common.Address, error) {
	return b.collection.GetApproved(tokenID)
}

func (b *binding) IsApprovedForAll(_ context.Context, owner, operator common.Address) (bool, error) {
	return b.collection.IsApprovedForAll(owner, operator), nil
}

func (b *binding) TransferFrom(_ context.Context, from, to common.Address, tokenID *big.Int) error {
	return b.collection.TransferFrom(b.caller, from, to, tokenID)
}
