package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bettermind/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.Logger = zap.NewNop()
}

func whoAmI(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": c.GetString(ContextUserID), "role": c.GetString(ContextRole)})
}

func authRequest(header string) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/me", JWTAuthMiddleware(), whoAmI)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	token, err := utils.GenerateToken("doc-1", utils.RoleDoctor, time.Hour)
	require.NoError(t, err)

	w := authRequest("Bearer " + token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"doc-1","role":"doctor"}`, w.Body.String())
}

func TestJWTAuthMiddleware_RoleDefaultsToPatient(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("BETTERMIND"))
	require.NoError(t, err)

	w := authRequest("Bearer " + token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"user-1","role":"patient"}`, w.Body.String())
}

func TestJWTAuthMiddleware_Rejects(t *testing.T) {
	expired, err := utils.GenerateToken("user-1", utils.RolePatient, -time.Minute)
	require.NoError(t, err)
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).
		SignedString([]byte("someone-else"))
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "doctor"}).
		SignedString([]byte("BETTERMIND"))
	require.NoError(t, err)

	tests := map[string]string{
		"missing header":  "",
		"not bearer":      "Basic dXNlcjpwYXNz",
		"garbage":         "Bearer not-a-jwt",
		"expired":         "Bearer " + expired,
		"wrong secret":    "Bearer " + foreign,
		"missing subject": "Bearer " + noSubject,
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			w := authRequest(header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)
		})
	}
}

func TestRateLimitMiddleware_PerClientIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, call("203.0.113.7"))
	assert.Equal(t, http.StatusNoContent, call("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, call("203.0.113.7"))
	assert.Equal(t, http.StatusNoContent, call("198.51.100.2"))
}

func TestGetClientIP(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "192.0.2.1:4321"
	assert.Equal(t, "192.0.2.1", getClientIP(c))

	c.Request.Header.Set("X-Real-IP", " 192.0.2.9 ")
	assert.Equal(t, "192.0.2.9", getClientIP(c))
}
