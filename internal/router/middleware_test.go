package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blues/raise/internal/config"
	"github.com/blues/raise/internal/handler"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var account = common.HexToAddress("0x1551")

func echoEngine(cfg config.AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", AuthMiddleware(cfg), func(c *gin.Context) {
		v, _ := c.Get(handler.CallerKey)
		c.String(http.StatusOK, v.(common.Address).Hex())
	})
	return r
}

func sign(t *testing.T, method jwt.SigningMethod, secret []byte, sub string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, jwt.MapClaims{"sub": sub}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestJWTAuth(t *testing.T) {
	secret := []byte("test-secret")
	r := echoEngine(config.AuthConfig{Mode: "jwt", Secret: string(secret)})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, account.Hex()), http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), account.Hex()), http.StatusUnauthorized},
		{"wrong algorithm", "Bearer " + sign(t, jwt.SigningMethodHS512, secret, account.Hex()), http.StatusUnauthorized},
		{"subject not address", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, "alice"), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tt.status {
			t.Fatalf("%s: status = %d, body = %s", tt.name, w.Code, w.Body.String())
		}
		if tt.status == http.StatusOK && w.Body.String() != account.Hex() {
			t.Fatalf("%s: caller = %s", tt.name, w.Body.String())
		}
		if w.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: missing request id", tt.name)
		}
	}
}

func TestHeaderAuth(t *testing.T) {
	r := echoEngine(config.AuthConfig{Mode: "header"})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Account", account.Hex())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != account.Hex() {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Account", "bob")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("invalid header status = %d", w.Code)
	}
}
