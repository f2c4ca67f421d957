package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/letmeget/swapgate/internal/escrow"
	"github.com/letmeget/swapgate/internal/model"
	"github.com/letmeget/swapgate/internal/protocol"
	"github.com/letmeget/swapgate/internal/service"
)

// EscrowHandler serves one escrow instance. The protocol version is fixed
// when the route group is mounted.
type EscrowHandler struct {
	svc     *service.EscrowService
	version protocol.Version
}

func NewEscrowHandler(svc *service.EscrowService, v protocol.Version) *EscrowHandler {
	return &EscrowHandler{svc: svc, version: v}
}

type callFunc func(c *gin.Context, t protocol.Terms, sig []byte) (*escrow.Event, error)

func (h *EscrowHandler) Offer(c *gin.Context) {
	h.call(c, http.StatusCreated, func(c *gin.Context, t protocol.Terms, sig []byte) (*escrow.Event, error) {
		return h.svc.Offer(c.Request.Context(), h.version, t, sig)
	})
}

func (h *EscrowHandler) LimitedOffer(c *gin.Context) {
	h.call(c, http.StatusCreated, func(c *gin.Context, t protocol.Terms, sig []byte) (*escrow.Event, error) {
		return h.svc.LimitedOffer(c.Request.Context(), h.version, t, sig)
	})
}

func (h *EscrowHandler) Accept(c *gin.Context) {
	h.call(c, http.StatusOK, func(c *gin.Context, t protocol.Terms, sig []byte) (*escrow.Event, error) {
		return h.svc.Accept(c.Request.Context(), h.version, t, sig)
	})
}

func (h *EscrowHandler) Revoke(c *gin.Context) {
	h.call(c, http.StatusOK, func(c *gin.Context, t protocol.Terms, sig []byte) (*escrow.Event, error) {
		return h.svc.Revoke(c.Request.Context(), h.version, t, sig)
	})
}

func (h *EscrowHandler) Signer(c *gin.Context) {
	terms, sig, ok := bindOffer(c)
	if !ok {
		return
	}
	addr, offerKey, err := h.svc.Signer(h.version, terms, sig)
	if err != nil {
		c.Error(err)
		return
	}
	resp := model.SignerResponse{Signer: addr.Hex()}
	if offerKey != nil {
		resp.OfferKey = offerKey.Hex()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EscrowHandler) CanComplete(c *gin.Context) {
	var req model.TermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(invalidBody(err))
		return
	}
	terms, err := req.Terms()
	if err != nil {
		c.Error(err)
		return
	}
	done, err := h.svc.CanComplete(c.Request.Context(), h.version, terms)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, model.CanCompleteResponse{
		OfferKey:    done.OfferKey.Hex(),
		State:       string(done.State),
		CanComplete: done.CanComplete,
	})
}

func (h *EscrowHandler) Version(c *gin.Context) {
	v, err := h.svc.Version(h.version)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, model.VersionResponse{Version: v})
}

func (h *EscrowHandler) call(c *gin.Context, status int, fn callFunc) {
	terms, sig, ok := bindOffer(c)
	if !ok {
		return
	}
	ev, err := fn(c, terms, sig)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(status, model.NewEventRecord(*ev))
}

func bindOffer(c *gin.Context) (protocol.Terms, []byte, bool) {
	var req model.OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(invalidBody(err))
		return protocol.Terms{}, nil, false
	}
	terms, err := req.Terms()
	if err != nil {
		c.Error(err)
		return protocol.Terms{}, nil, false
	}
	sig, err := model.ParseSignature(req.Signature)
	if err != nil {
		c.Error(err)
		return protocol.Terms{}, nil, false
	}
	return terms, sig, true
}
