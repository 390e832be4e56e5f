package handler

import (
	"net/http"

	"github.com/blues/raise/internal/logic"
	"github.com/gin-gonic/gin"
)

// LedgerHandler 内存资产处理器
type LedgerHandler struct {
	ledgerLogic *logic.LedgerLogic
}

func NewLedgerHandler(ledgerLogic *logic.LedgerLogic) *LedgerHandler {
	return &LedgerHandler{ledgerLogic: ledgerLogic}
}

// Mint 运营方增发
func (h *LedgerHandler) Mint(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req logic.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	v, err := h.ledgerLogic.Mint(c.Request.Context(), who, req)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "增发成功", v)
}

// Approve 调用方授权
func (h *LedgerHandler) Approve(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req logic.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	v, err := h.ledgerLogic.Approve(c.Request.Context(), who, req)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "授权成功", v)
}

func (h *LedgerHandler) GetBalance(c *gin.Context) {
	account, ok := addressParam(c, "account")
	if !ok {
		return
	}
	v, err := h.ledgerLogic.Balance(c.Request.Context(), account)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取余额成功", v)
}

func (h *LedgerHandler) GetAllowance(c *gin.Context) {
	owner, ok := addressParam(c, "owner")
	if !ok {
		return
	}
	spender, ok := addressParam(c, "spender")
	if !ok {
		return
	}
	v, err := h.ledgerLogic.Allowance(c.Request.Context(), owner, spender)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取授权成功", v)
}
