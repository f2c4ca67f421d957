package token

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letmeget/swapgate/internal/pkg/apperrors"
)

var (
	alice  = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob    = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	escrow = common.HexToAddress("0x00000000000000000000000000000000000e5c80")
)

func newApes(t *testing.T) *Collection {
	t.Helper()
	c := NewCollection(common.HexToAddress("0xa1"), "Apes", "APE")
	require.NoError(t, c.Mint(alice, big.NewInt(8)))
	c.Commit()
	return c
}

func TestCollection_Mint(t *testing.T) {
	c := newApes(t)

	owner, err := c.OwnerOf(big.NewInt(8))
	require.NoError(t, err)
	assert.Equal(t, alice, owner)
	assert.Equal(t, uint64(1), c.BalanceOf(alice))

	err = c.Mint(bob, big.NewInt(8))
	assert.Equal(t, ReasonAlreadyMinted, apperrors.ReasonOf(err))

	err = c.Mint(common.Address{}, big.NewInt(9))
	assert.Equal(t, ReasonMintToZero, apperrors.ReasonOf(err))

	_, err = c.OwnerOf(big.NewInt(9))
	assert.Equal(t, ReasonNonexistentToken, apperrors.ReasonOf(err))

	_, err = c.OwnerOf(big.NewInt(-1))
	assert.Equal(t, apperrors.ReasonInvalidTokenID, apperrors.ReasonOf(err))
}

func TestCollection_Approve(t *testing.T) {
	c := newApes(t)
	id := big.NewInt(8)

	err := c.Approve(bob, escrow, id)
	assert.Equal(t, ReasonApproveNotOwner, apperrors.ReasonOf(err))

	err = c.Approve(alice, alice, id)
	assert.Equal(t, ReasonApproveToOwner, apperrors.ReasonOf(err))

	require.NoError(t, c.Approve(alice, escrow, id))
	approved, err := c.GetApproved(id)
	require.NoError(t, err)
	assert.Equal(t, escrow, approved)

	// An operator may approve on the owner's behalf.
	require.NoError(t, c.SetApprovalForAll(alice, bob, true))
	require.NoError(t, c.Approve(bob, bob, id))

	err = c.SetApprovalForAll(alice, alice, true)
	assert.Equal(t, ReasonApproveToCaller, apperrors.ReasonOf(err))
}

func TestCollection_TransferFrom(t *testing.T) {
	c := newApes(t)
	id := big.NewInt(8)

	err := c.TransferFrom(escrow, alice, bob, id)
	assert.Equal(t, ReasonCallerNotApproved, apperrors.ReasonOf(err))

	require.NoError(t, c.Approve(alice, escrow, id))

	err = c.TransferFrom(escrow, bob, alice, id)
	assert.Equal(t, ReasonIncorrectOwner, apperrors.ReasonOf(err))

	err = c.TransferFrom(escrow, alice, common.Address{}, id)
	assert.Equal(t, ReasonTransferToZero, apperrors.ReasonOf(err))

	require.NoError(t, c.TransferFrom(escrow, alice, bob, id))

	owner, _ := c.OwnerOf(id)
	assert.Equal(t, bob, owner)
	assert.Equal(t, uint64(0), c.BalanceOf(alice))
	assert.Equal(t, uint64(1), c.BalanceOf(bob))

	approved, _ := c.GetApproved(id)
	assert.Equal(t, common.Address{}, approved, "approval cleared on transfer")
}

func TestCollection_OperatorTransfer(t *testing.T) {
	c := newApes(t)
	require.NoError(t, c.SetApprovalForAll(alice, escrow, true))
	assert.True(t, c.IsApprovedForAll(alice, escrow))

	require.NoError(t, c.TransferFrom(escrow, alice, bob, big.NewInt(8)))

	require.NoError(t, c.SetApprovalForAll(alice, escrow, false))
	assert.False(t, c.IsApprovedForAll(alice, escrow))
}

func TestCollection_RevertToSnapshot(t *testing.T) {
	c := newApes(t)
	id := big.NewInt(8)

	snap := c.Snapshot()
	require.NoError(t, c.Approve(alice, escrow, id))
	require.NoError(t, c.SetApprovalForAll(bob, escrow, true))
	require.NoError(t, c.TransferFrom(escrow, alice, bob, id))
	require.NoError(t, c.Mint(bob, big.NewInt(9)))

	c.RevertToSnapshot(snap)

	owner, err := c.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)
	assert.Equal(t, uint64(1), c.BalanceOf(alice))
	assert.Equal(t, uint64(0), c.BalanceOf(bob))
	approved, _ := c.GetApproved(id)
	assert.Equal(t, common.Address{}, approved)
	assert.False(t, c.IsApprovedForAll(bob, escrow))

	_, err = c.OwnerOf(big.NewInt(9))
	assert.Equal(t, ReasonNonexistentToken, apperrors.ReasonOf(err))
}

func TestCollection_CommitForgetsJournal(t *testing.T) {
	c := newApes(t)
	require.NoError(t, c.Approve(alice, escrow, big.NewInt(8)))
	c.Commit()
	assert.Equal(t, 0, c.Snapshot())

	c.RevertToSnapshot(0)
	approved, _ := c.GetApproved(big.NewInt(8))
	assert.Equal(t, escrow, approved)
}

func TestCollection_As(t *testing.T) {
	c := newApes(t)
	ctx := context.Background()
	require.NoError(t, c.Approve(alice, escrow, big.NewInt(8)))

	var contract Contract = c.As(escrow)
	owner, err := contract.OwnerOf(ctx, big.NewInt(8))
	require.NoError(t, err)
	assert.Equal(t, alice, owner)

	ok, err := contract.IsApprovedForAll(ctx, alice, escrow)
	require.NoError(t, err)
	assert.False(t, ok)

	err = c.As(bob).TransferFrom(ctx, alice, bob, big.NewInt(8))
	assert.Equal(t, ReasonCallerNotApproved, apperrors.ReasonOf(err))

	require.NoError(t, contract.TransferFrom(ctx, alice, bob, big.NewInt(8)))
}
