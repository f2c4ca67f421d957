package escrow

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/letmeget/swapgate/internal/pkg/apperrors"
	"github.com/letmeget/swapgate/internal/token"
)

// Authorize checks, against live contract state, that claimed owns tokenID
// and that operator may transfer it, either through single-token approval
// or operator approval. Nothing is cached between calls. Contract errors
// are returned unchanged.
func Authorize(ctx context.Context, contract token.Reader, tokenID *big.Int, claimed, operator common.Address) error {
	owner, err := contract.OwnerOf(ctx, tokenID)
	if err != nil {
		return err
	}
	if claimed == (common.Address{}) || claimed != owner {
		return apperrors.Authorization(apperrors.ReasonSignerNotOwner)
	}
	return checkApproval(ctx, contract, tokenID, owner, operator)
}

func checkApproval(ctx context.Context, contract token.Approvable, tokenID *big.Int, owner, operator common.Address) error {
	approved, err := contract.GetApproved(ctx, tokenID)
	if err != nil {
		return err
	}
	if approved == operator {
		return nil
	}
	all, err := contract.IsApprovedForAll(ctx, owner, operator)
	if err != nil {
		return err
	}
	if !all {
		return apperrors.Authorization(apperrors.ReasonContractNotApproved)
	}
	return nil
}
