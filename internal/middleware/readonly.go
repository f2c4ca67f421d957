package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/letmeget/swapgate/internal/pkg/apperrors"
)

// viewSuffixes are POST routes that never change state.
var viewSuffixes = []string{
	"/offers/can-complete",
	"/offers/signer",
	"/chain/preflight",
}

func ReadOnlyMiddleware(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		path := c.FullPath()
		for _, suffix := range viewSuffixes {
			if strings.HasSuffix(path, suffix) {
				c.Next()
				return
			}
		}
		c.Error(apperrors.New(apperrors.ErrReadOnly, "read-only mode enabled", nil))
		c.Abort()
	}
}
