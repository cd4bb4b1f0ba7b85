package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func doRequest(e *echo.Echo, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAdminTokenAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sekret"), bcrypt.MinCost)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/protected", okHandler, AdminTokenAuth(string(hash)))

	rec := doRequest(e, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "missing token")

	rec = doRequest(e, map[string]string{"X-Admin-Token": "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "wrong token")

	rec = doRequest(e, map[string]string{"X-Admin-Token": "sekret"})
	assert.Equal(t, http.StatusOK, rec.Code, "valid token")
}

func TestAdminTokenAuth_DisabledWithoutHash(t *testing.T) {
	e := echo.New()
	e.GET("/protected", okHandler, AdminTokenAuth(""))

	rec := doRequest(e, map[string]string{"X-Admin-Token": "anything"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestQueueRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := NewRateLimiter(client, 3)

	e := echo.New()
	e.GET("/protected", okHandler, limiter.QueueRateLimit())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/protected?user_id=u1", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected?user_id=u1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Another identity has its own budget.
	req = httptest.NewRequest(http.MethodGet, "/protected?user_id=u2", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The window resets after a minute.
	mr.FastForward(61 * time.Second)
	req = httptest.NewRequest(http.MethodGet, "/protected?user_id=u1", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
