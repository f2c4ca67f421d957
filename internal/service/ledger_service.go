package service

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/letmeget/swapgate/internal/ledger"
	"github.com/letmeget/swapgate/internal/pkg/logger"
	"github.com/letmeget/swapgate/internal/token"
)

// LedgerService administers the host ledger: deploying collections,
// minting, approvals and transfers on behalf of test accounts, and mining.
// Every mutation runs as its own unit of work.
type LedgerService struct {
	ledger *ledger.Ledger
}

func NewLedgerService(l *ledger.Ledger) *LedgerService {
	return &LedgerService{ledger: l}
}

func (s *LedgerService) Height() uint64 { return s.ledger.Height() }

func (s *LedgerService) Automine() bool { return s.ledger.Automine() }

func (s *LedgerService) Contracts() []common.Address { return s.ledger.Contracts() }

func (s *LedgerService) Mine(blocks uint64) uint64 {
	if blocks == 0 {
		blocks = 1
	}
	height := s.ledger.Mine(blocks)
	logger.Debug("ledger mined", "blocks", blocks, "height", height)
	return height
}

// CollectionInfo describes a hosted collection.
type CollectionInfo struct {
	Address common.Address
	Name    string
	Symbol  string
}

func (s *LedgerService) DeployCollection(name, symbol string) CollectionInfo {
	c := s.ledger.DeployCollection(name, symbol)
	logger.Info("collection deployed", "address", c.Address().Hex(), "symbol", symbol)
	return CollectionInfo{Address: c.Address(), Name: c.Name(), Symbol: c.Symbol()}
}

func (s *LedgerService) Mint(ctx context.Context, contract, to common.Address, tokenID *big.Int) error {
	return s.withCollection(ctx, contract, func(c *token.Collection) error {
		return c.Mint(to, tokenID)
	})
}

func (s *LedgerService) Approve(ctx context.Context, contract, owner, to common.Address, tokenID *big.Int) error {
	return s.withCollection(ctx, contract, func(c *token.Collection) error {
		return c.Approve(owner, to, tokenID)
	})
}

func (s *LedgerService) SetApprovalForAll(ctx context.Context, contract, owner, operator common.Address, approved bool) error {
	return s.withCollection(ctx, contract, func(c *token.Collection) error {
		return c.SetApprovalForAll(owner, operator, approved)
	})
}

func (s *LedgerService) Transfer(ctx context.Context, contract, caller, from, to common.Address, tokenID *big.Int) error {
	return s.withCollection(ctx, contract, func(c *token.Collection) error {
		return c.TransferFrom(caller, from, to, tokenID)
	})
}

// TokenView is the owner and single-token approval of one token.
type TokenView struct {
	Owner    common.Address
	Approved common.Address
}

func (s *LedgerService) Token(ctx context.Context, contract common.Address, tokenID *big.Int) (*TokenView, error) {
	var view TokenView
	err := s.ledger.View(ctx, func(st ledger.State) error {
		c, err := st.Contract(contract, common.Address{})
		if err != nil {
			return err
		}
		owner, err := c.OwnerOf(ctx, tokenID)
		if err != nil {
			return err
		}
		approved, err := c.GetApproved(ctx, tokenID)
		if err != nil {
			return err
		}
		view = TokenView{Owner: owner, Approved: approved}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *LedgerService) withCollection(ctx context.Context, contract common.Address, fn func(*token.Collection) error) error {
	_, err := s.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		c, err := tx.Collection(contract)
		if err != nil {
			return err
		}
		return fn(c)
	})
	return err
}
