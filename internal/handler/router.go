package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/letmeget/swapgate/internal/config"
	"github.com/letmeget/swapgate/internal/escrow"
	"github.com/letmeget/swapgate/internal/middleware"
	"github.com/letmeget/swapgate/internal/pkg/apperrors"
	"github.com/letmeget/swapgate/internal/protocol"
	"github.com/letmeget/swapgate/internal/service"
	"github.com/letmeget/swapgate/internal/stream"
)

// Services bundles what the HTTP layer serves.
type Services struct {
	Escrows     *service.EscrowService
	Ledger      *service.LedgerService
	Events      *service.EventService
	Hub         *stream.Hub
	Preflight   *service.PreflightService
	Idempotency middleware.IdempotencyStore
	Limiter     *middleware.ClientLimiter
}

// Register mounts every route on r. Middleware common to all routes is
// expected to be installed by the caller.
func Register(r *gin.Engine, cfg *config.Config, svc Services) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "swapgate"})
	})

	if svc.Idempotency == nil {
		svc.Idempotency = middleware.NewInMemIdempotencyStore()
	}

	ledgerHandler := NewLedgerHandler(svc.Ledger, svc.Escrows)
	eventHandler := NewEventHandler(svc.Events, svc.Hub)
	preflightHandler := NewPreflightHandler(svc.Preflight)

	api := r.Group("/")
	api.Use(middleware.RateLimitMiddleware(svc.Limiter))
	api.Use(middleware.ReadOnlyMiddleware(cfg.Server.ReadOnly))
	{
		api.GET("/ledger", ledgerHandler.Info)
		api.GET("/collections/:address/tokens/:id", ledgerHandler.Token)
		api.GET("/events", eventHandler.List)
		api.GET("/events/ws", eventHandler.Stream)
		api.POST("/chain/preflight", preflightHandler.Check)
	}

	for _, v := range []protocol.Version{protocol.V1, protocol.V2} {
		x, err := svc.Escrows.Exchange(v)
		if err != nil {
			continue
		}
		h := NewEscrowHandler(svc.Escrows, v)
		group := api.Group("/" + v.String())
		group.Use(middleware.IdempotencyMiddleware(svc.Idempotency))
		{
			group.POST("/offers", h.Offer)
			group.POST("/offers/accept", h.Accept)
			group.POST("/offers/can-complete", h.CanComplete)
			group.POST("/offers/signer", h.Signer)
		}
		// version-specific operations are only mounted where implemented
		if _, ok := x.(escrow.LimitedOfferer); ok {
			group.POST("/offers/limited", h.LimitedOffer)
		}
		if _, ok := x.(escrow.Revoker); ok {
			group.POST("/offers/revoke", h.Revoke)
		}
		if _, ok := x.(escrow.OfferSigner); ok {
			group.GET("/version", h.Version)
		}
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AdminMiddleware(cfg))
	admin.Use(middleware.ReadOnlyMiddleware(cfg.Server.ReadOnly))
	{
		admin.POST("/collections", ledgerHandler.DeployCollection)
		admin.POST("/collections/:address/mint", ledgerHandler.Mint)
		admin.POST("/collections/:address/approve", ledgerHandler.Approve)
		admin.POST("/collections/:address/approval-for-all", ledgerHandler.SetApprovalForAll)
		admin.POST("/collections/:address/transfer", ledgerHandler.Transfer)
		admin.POST("/ledger/mine", ledgerHandler.Mine)
	}
}

func invalidBody(err error) error {
	return apperrors.NewInvalidRequest("invalid request body: " + err.Error())
}
