package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/letmeget/swapgate/internal/model"
	"github.com/letmeget/swapgate/internal/pkg/apperrors"
	"github.com/letmeget/swapgate/internal/pkg/logger"
	"github.com/letmeget/swapgate/internal/service"
	"github.com/letmeget/swapgate/internal/stream"
)

const maxEventLimit = 1000

type EventHandler struct {
	svc      *service.EventService
	hub      *stream.Hub
	upgrader websocket.Upgrader
}

func NewEventHandler(svc *service.EventService, hub *stream.Hub) *EventHandler {
	return &EventHandler{
		svc: svc,
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *EventHandler) List(c *gin.Context) {
	filter, err := eventFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	records, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(apperrors.New(apperrors.ErrInternal, err.Error(), err))
		return
	}
	if records == nil {
		records = []*model.EventRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// Stream upgrades to a websocket and pushes matching events as they
// commit. Query parameters filter like List; limit is ignored.
func (h *EventHandler) Stream(c *gin.Context) {
	filter, err := eventFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	h.hub.Serve(conn, filter)
}

func eventFilter(c *gin.Context) (model.EventFilter, error) {
	filter := model.EventFilter{
		Escrow:   c.Query("escrow"),
		OfferKey: c.Query("offer_key"),
		Kind:     c.Query("kind"),
		Limit:    100,
	}
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return filter, apperrors.NewInvalidRequest("limit must be a positive integer")
		}
		if parsed > maxEventLimit {
			parsed = maxEventLimit
		}
		filter.Limit = parsed
	}
	return filter, nil
}
