package handler

import (
	"context"
	"net/http"

	"github.com/blues/raise/internal/logic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

type decisionFunc func(ctx context.Context, caller, addr common.Address, approve bool) (*logic.ActionResult, error)

type batchFunc func(ctx context.Context, caller, addr common.Address, req logic.AccountsRequest) (*logic.ActionResult, error)

func (h *RaiseHandler) decision(c *gin.Context, fn decisionFunc, message string) {
	who, ok := caller(c)
	if !ok {
		return
	}
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	var req logic.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := fn(c.Request.Context(), who, addr, req.Accept)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, message, res)
}

func (h *RaiseHandler) batch(c *gin.Context, fn batchFunc, message string) {
	who, ok := caller(c)
	if !ok {
		return
	}
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	var req logic.AccountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := fn(c.Request.Context(), who, addr, req)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, message, res)
}
