package handler

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/letmeget/swapgate/internal/model"
	"github.com/letmeget/swapgate/internal/service"
)

type LedgerHandler struct {
	ledger  *service.LedgerService
	escrows *service.EscrowService
}

func NewLedgerHandler(ledger *service.LedgerService, escrows *service.EscrowService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, escrows: escrows}
}

func (h *LedgerHandler) Info(c *gin.Context) {
	contracts := h.ledger.Contracts()
	addrs := make([]string, 0, len(contracts))
	for _, addr := range contracts {
		addrs = append(addrs, addr.Hex())
	}
	c.JSON(http.StatusOK, model.LedgerResponse{
		Height:    h.ledger.Height(),
		Automine:  h.ledger.Automine(),
		Escrows:   h.escrows.Escrows(),
		Contracts: addrs,
	})
}

func (h *LedgerHandler) Token(c *gin.Context) {
	contract, err := model.ParseAddress("address", c.Param("address"))
	if err != nil {
		c.Error(err)
		return
	}
	tokenID, err := model.ParseTokenID(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	h.respondToken(c, contract, tokenID)
}

// Admin

func (h *LedgerHandler) DeployCollection(c *gin.Context) {
	var req model.DeployCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(invalidBody(err))
		return
	}
	info := h.ledger.DeployCollection(req.Name, req.Symbol)
	c.JSON(http.StatusCreated, model.CollectionResponse{
		Address: info.Address.Hex(),
		Name:    info.Name,
		Symbol:  info.Symbol,
	})
}

func (h *LedgerHandler) Mint(c *gin.Context) {
	var req model.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(invalidBody(err))
		return
	}
	contract, err := model.ParseAddress("address", c.Param("address"))
	if err != nil {
		c.Error(err)
		return
	}
	to, err := model.ParseAddress("to", req.To)
	if err != nil {
		c.Error(err)
		return
	}
	tokenID, err := model.ParseTokenID(req.TokenID)
	if err != nil {
		c.Error(err)
		return
	}
	if err := h.ledger.Mint(c.Request.Context(), contract, to, tokenID); err != nil {
		c.Error(err)
		return
	}
	h.respondToken(c, contract, tokenID)
}

func (h *LedgerHandler) Approve(c *gin.Context) {
	var req model.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(invalidBody(err))
		return
	}
	contract, err := model.ParseAddress("address", c.Param("address"))
	if err != nil {
		c.Error(err)
		return
	}
	owner, err := model.ParseAddress("owner", req.Owner)
	if err != nil {
		c.Error(err)
		return
	}
	to, err := model.ParseAddress("to", req.To)
	if err != nil {
		c.Error(err)
		return
	}
	tokenID, err := model.ParseTokenID(req.TokenID)
	if err != nil {
		c.Error(err)
		return
	}
	if err := h.ledger.Approve(c.Request.Context(), contract, owner, to, tokenID); err != nil {
		c.Error(err)
		return
	}
	h.respondToken(c, contract, tokenID)
}

func (h *LedgerHandler) SetApprovalForAll(c *gin.Context) {
	var req model.ApprovalForAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(invalidBody(err))
		return
	}
	contract, err := model.ParseAddress("address", c.Param("address"))
	if err != nil {
		c.Error(err)
		return
	}
	owner, err := model.ParseAddress("owner", req.Owner)
	if err != nil {
		c.Error(err)
		return
	}
	operator, err := model.ParseAddress("operator", req.Operator)
	if err != nil {
		c.Error(err)
		return
	}
	if err := h.ledger.SetApprovalForAll(c.Request.Context(), contract, owner, operator, req.Approved); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": owner.Hex(), "operator": operator.Hex(), "approved": req.Approved})
}

func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req model.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(invalidBody(err))
		return
	}
	contract, err := model.ParseAddress("address", c.Param("address"))
	if err != nil {
		c.Error(err)
		return
	}
	caller, err := model.ParseAddress("caller", req.Caller)
	if err != nil {
		c.Error(err)
		return
	}
	from, err := model.ParseAddress("from", req.From)
	if err != nil {
		c.Error(err)
		return
	}
	to, err := model.ParseAddress("to", req.To)
	if err != nil {
		c.Error(err)
		return
	}
	tokenID, err := model.ParseTokenID(req.TokenID)
	if err != nil {
		c.Error(err)
		return
	}
	if err := h.ledger.Transfer(c.Request.Context(), contract, caller, from, to, tokenID); err != nil {
		c.Error(err)
		return
	}
	h.respondToken(c, contract, tokenID)
}

func (h *LedgerHandler) Mine(c *gin.Context) {
	var req model.MineRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(invalidBody(err))
			return
		}
	}
	height := h.ledger.Mine(req.Blocks)
	c.JSON(http.StatusOK, gin.H{"height": height})
}

// respondToken renders the current owner and approval of a token.
func (h *LedgerHandler) respondToken(c *gin.Context, contract common.Address, tokenID *big.Int) {
	view, err := h.ledger.Token(c.Request.Context(), contract, tokenID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, model.TokenResponse{
		Contract: contract.Hex(),
		TokenID:  tokenID.String(),
		Owner:    view.Owner.Hex(),
		Approved: view.Approved.Hex(),
	})
}
