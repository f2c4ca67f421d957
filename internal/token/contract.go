// Package token defines the capability the escrow requires of a
// non-fungible token contract, and a hosted ERC-721 collection that
// provides it on the in-process ledger.
package token

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type Ownable interface {
	OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error)
}

type Approvable interface {
	GetApproved(ctx context.Context, tokenID *big.Int) (common.Address, error)
	IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error)
}

// Transferable moves a token on behalf of the caller the contract handle
// is bound to. A failed transfer is always an error, never a silent no-op.
type Transferable interface {
	TransferFrom(ctx context.Context, from, to common.Address, tokenID *big.Int) error
}

// Reader is the read side used by authorization checks.
type Reader interface {
	Ownable
	Approvable
}

// Contract is the full capability the swap executor needs.
type Contract interface {
	Ownable
	Approvable
	Transferable
}
