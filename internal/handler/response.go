package handler

import (
	"net/http"

	apperrors "github.com/blues/raise/internal/errors"
	"github.com/blues/raise/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// CallerKey 认证中间件写入调用方地址的键
const CallerKey = "account"

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// failure 按错误码映射状态码，未编码的错误不向外暴露细节
func failure(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	status := apperrors.HTTPStatus(code)
	if status >= http.StatusInternalServerError && code != apperrors.CodeTransferFailed {
		logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, status, "internal error")
		return
	}
	c.JSON(status, Response{
		Success: false,
		Message: err.Error(),
		Data:    gin.H{"code": code},
	})
}

// caller 读取已认证的调用方
func caller(c *gin.Context) (common.Address, bool) {
	v, ok := c.Get(CallerKey)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "missing caller")
		return common.Address{}, false
	}
	addr, ok := v.(common.Address)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "invalid caller")
		return common.Address{}, false
	}
	return addr, true
}

func addressParam(c *gin.Context, name string) (common.Address, bool) {
	s := c.Param(name)
	if !common.IsHexAddress(s) {
		ErrorResponse(c, http.StatusBadRequest, "invalid "+name)
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}
