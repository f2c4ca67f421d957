package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/letmeget/swapgate/internal/model"
	"github.com/letmeget/swapgate/internal/pkg/apperrors"
	"github.com/letmeget/swapgate/internal/protocol"
	"github.com/letmeget/swapgate/internal/service"
)

type PreflightHandler struct {
	svc *service.PreflightService
}

func NewPreflightHandler(svc *service.PreflightService) *PreflightHandler {
	return &PreflightHandler{svc: svc}
}

func (h *PreflightHandler) Check(c *gin.Context) {
	var req model.PreflightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(invalidBody(err))
		return
	}
	v := protocol.V2
	if req.Version != "" {
		parsed, err := protocol.ParseVersion(req.Version)
		if err != nil {
			c.Error(apperrors.NewInvalidRequest(err.Error()))
			return
		}
		v = parsed
	}
	terms, err := req.Terms()
	if err != nil {
		c.Error(err)
		return
	}
	makerSig, err := model.ParseSignature(req.MakerSignature)
	if err != nil {
		c.Error(err)
		return
	}
	var acceptorSig []byte
	if req.AcceptorSignature != "" {
		if acceptorSig, err = model.ParseSignature(req.AcceptorSignature); err != nil {
			c.Error(err)
			return
		}
	}

	resp, err := h.svc.Check(c.Request.Context(), v, terms, makerSig, acceptorSig)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
