package router

import (
	"net/http"
	"strings"

	"github.com/blues/raise/internal/config"
	"github.com/blues/raise/internal/handler"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthMiddleware 解析调用方身份，jwt 模式下 sub 为十六进制账户地址
func AuthMiddleware(cfg config.AuthConfig) gin.HandlerFunc {
	if cfg.Mode == "header" {
		return headerAuth()
	}
	return jwtAuth([]byte(cfg.Secret))
}

func jwtAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			handler.ErrorResponse(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		tok, err := jwt.Parse(h[7:], func(t *jwt.Token) (interface{}, error) { return secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !tok.Valid {
			handler.ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		sub, err := tok.Claims.GetSubject()
		if err != nil || !common.IsHexAddress(sub) {
			handler.ErrorResponse(c, http.StatusUnauthorized, "token subject is not an account")
			c.Abort()
			return
		}
		c.Set(handler.CallerKey, common.HexToAddress(sub))
		c.Next()
	}
}

// headerAuth 本地开发使用，直接信任 X-Account
func headerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := c.GetHeader("X-Account")
		if !common.IsHexAddress(s) {
			handler.ErrorResponse(c, http.StatusUnauthorized, "missing X-Account header")
			c.Abort()
			return
		}
		c.Set(handler.CallerKey, common.HexToAddress(s))
		c.Next()
	}
}

// RequestID 为每个请求附加 X-Request-Id
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}
