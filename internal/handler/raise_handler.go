package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/raise/internal/logic"
	"github.com/gin-gonic/gin"
)

// RaiseHandler 募资实例处理器
type RaiseHandler struct {
	raiseLogic *logic.RaiseLogic
}

// NewRaiseHandler 创建募资实例处理器
func NewRaiseHandler(raiseLogic *logic.RaiseLogic) *RaiseHandler {
	return &RaiseHandler{raiseLogic: raiseLogic}
}

// Subscribe 提交认购
func (h *RaiseHandler) Subscribe(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	var req logic.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.raiseLogic.Subscribe(c.Request.Context(), who, addr, req)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "认购已提交", res)
}

// DecideSubscription 发行方审批认购
func (h *RaiseHandler) DecideSubscription(c *gin.Context) {
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
	res, err := h.raiseLogic.DecideSubscription(c.Request.Context(), who, addr, c.Param("sid"), req.Accept)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "认购审批完成", res)
}

// IssuerClose 发行方结束募资
func (h *RaiseHandler) IssuerClose(c *gin.Context) {
	h.decision(c, h.raiseLogic.IssuerClose, "募资已结束")
}

// OperatorFinalize 运营方确认
func (h *RaiseHandler) OperatorFinalize(c *gin.Context) {
	h.decision(c, h.raiseLogic.OperatorFinalize, "运营方审批完成")
}

// ReleasePending 退回待审资金
func (h *RaiseHandler) ReleasePending(c *gin.Context) {
	h.batch(c, h.raiseLogic.ReleasePending, "待审资金已退回")
}

// ReleaseAll 退回已接受资金
func (h *RaiseHandler) ReleaseAll(c *gin.Context) {
	h.batch(c, h.raiseLogic.ReleaseAll, "资金已退回")
}

// ReleaseToIssuer 向发行方放款
func (h *RaiseHandler) ReleaseToIssuer(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	res, err := h.raiseLogic.ReleaseToIssuer(c.Request.Context(), who, addr)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "已放款", res)
}

// Close 关闭实例
func (h *RaiseHandler) Close(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	res, err := h.raiseLogic.Close(c.Request.Context(), who, addr)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "募资已关闭", res)
}

// GetRaises 全部实例
func (h *RaiseHandler) GetRaises(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "获取募资列表成功", h.raiseLogic.ListRaises())
}

// GetRaise 实例概要
func (h *RaiseHandler) GetRaise(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	v, err := h.raiseLogic.GetRaise(addr)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取募资详情成功", v)
}

// GetReceivers 分页读取份额持有人
func (h *RaiseHandler) GetReceivers(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	start, err1 := strconv.Atoi(c.DefaultQuery("start", "0"))
	count, err2 := strconv.Atoi(c.DefaultQuery("count", "50"))
	if err1 != nil || err2 != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid start or count")
		return
	}
	receivers, err := h.raiseLogic.Receivers(addr, start, count)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取持有人成功", receivers)
}

// GetInvestor 投资人持仓
func (h *RaiseHandler) GetInvestor(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	account, ok := addressParam(c, "account")
	if !ok {
		return
	}
	v, err := h.raiseLogic.Investor(addr, account)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取投资人成功", v)
}

// GetSubscription 认购详情
func (h *RaiseHandler) GetSubscription(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	v, err := h.raiseLogic.Subscription(addr, c.Param("sid"))
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取认购成功", v)
}

// GetHistory 认购历史
func (h *RaiseHandler) GetHistory(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	res, err := h.raiseLogic.History(addr, page, pageSize)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取认购历史成功", res)
}

// GetRefunds 退款记录
func (h *RaiseHandler) GetRefunds(c *gin.Context) {
	addr, ok := addressParam(c, "address")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	res, err := h.raiseLogic.Refunds(addr, page, pageSize)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取退款记录成功", res)
}

// GetStats 全局统计
func (h *RaiseHandler) GetStats(c *gin.Context) {
	stats, err := h.raiseLogic.Stats()
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取统计成功", stats)
}
