package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letmeget/swapgate/internal/config"
	"github.com/letmeget/swapgate/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorHandler_RendersReason(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/offer", func(c *gin.Context) {
		c.Error(apperrors.Authorization(apperrors.ReasonSignerNotOwner))
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Error(errors.New("disk on fire"))
	})

	w := perform(r, http.MethodPost, "/offer", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(apperrors.ErrAuthorization), body["code"])
	assert.Equal(t, apperrors.ReasonSignerNotOwner, body["reason"])

	w = perform(r, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestReadOnlyMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(), ReadOnlyMiddleware(true))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/ledger", ok)
	r.POST("/v2/offers", ok)
	r.POST("/v2/offers/can-complete", ok)
	r.POST("/chain/preflight", ok)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ledger", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/v2/offers/can-complete", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/chain/preflight", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, perform(r, http.MethodPost, "/v2/offers", nil).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(), RateLimitMiddleware(NewClientLimiter(0.001, 2)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping", nil).Code)
	w := perform(r, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(NewClientLimiter(0, 0)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ping", nil).Code)
	}
}

func TestIdempotencyMiddleware_ReplaysResponse(t *testing.T) {
	calls := 0
	r := gin.New()
	r.Use(IdempotencyMiddleware(NewInMemIdempotencyStore()))
	r.POST("/v2/offers", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"call": calls})
	})

	headers := map[string]string{HeaderIdempotencyKey: "abc"}
	first := perform(r, http.MethodPost, "/v2/offers", headers)
	second := perform(r, http.MethodPost, "/v2/offers", headers)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	perform(r, http.MethodPost, "/v2/offers", nil)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_ServerErrorsAreRetryable(t *testing.T) {
	calls := 0
	r := gin.New()
	r.Use(IdempotencyMiddleware(NewInMemIdempotencyStore()))
	r.POST("/v2/offers", func(c *gin.Context) {
		calls++
		c.Status(http.StatusBadGateway)
	})

	headers := map[string]string{HeaderIdempotencyKey: "abc"}
	perform(r, http.MethodPost, "/v2/offers", headers)
	perform(r, http.MethodPost, "/v2/offers", headers)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyStore_InProgress(t *testing.T) {
	store := NewInMemIdempotencyStore()
	_, hit := store.GetOrLock("k")
	assert.False(t, hit)
	rec, hit := store.GetOrLock("k")
	require.True(t, hit)
	assert.True(t, rec.Processing)
	store.Unlock("k")
	_, hit = store.GetOrLock("k")
	assert.False(t, hit)
}

func TestAdminMiddleware(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.AdminKey = "s3cret"
	r := gin.New()
	r.Use(AdminMiddleware(cfg))
	r.POST("/admin/ledger/mine", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodPost, "/admin/ledger/mine", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodPost, "/admin/ledger/mine", map[string]string{HeaderAdminKey: "nope"}).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/admin/ledger/mine", map[string]string{HeaderAdminKey: "s3cret"}).Code)

	closed := gin.New()
	closed.Use(AdminMiddleware(&config.Config{}))
	closed.POST("/admin/ledger/mine", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusForbidden, perform(closed, http.MethodPost, "/admin/ledger/mine", map[string]string{HeaderAdminKey: ""}).Code)
}

func TestRequestMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestMiddleware())
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	w := perform(r, http.MethodGet, "/health", nil)
	generated := w.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	given := uuid.New().String()
	w = perform(r, http.MethodGet, "/health", map[string]string{HeaderRequestID: given})
	assert.Equal(t, given, w.Header().Get(HeaderRequestID))

	w = perform(r, http.MethodGet, "/health", map[string]string{HeaderRequestID: "not-a-uuid"})
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(HeaderRequestID))
}
