package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/raise/internal/logic"
	"github.com/gin-gonic/gin"
)

// FactoryHandler 工厂处理器
type FactoryHandler struct {
	factoryLogic *logic.FactoryLogic
}

// NewFactoryHandler 创建工厂处理器
func NewFactoryHandler(factoryLogic *logic.FactoryLogic) *FactoryHandler {
	return &FactoryHandler{factoryLogic: factoryLogic}
}

// CreateProposal 发行方登记提案
func (h *FactoryHandler) CreateProposal(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		ID string `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.factoryLogic.NewProposal(c.Request.Context(), who, req.ID)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "提案已登记", res)
}

// DecideProposal 运营方审批提案
func (h *FactoryHandler) DecideProposal(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req logic.OperatorProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.factoryLogic.Decide(c.Request.Context(), who, c.Param("id"), req)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "提案审批完成", res)
}

// GetProposal 提案详情
func (h *FactoryHandler) GetProposal(c *gin.Context) {
	v, err := h.factoryLogic.GetProposal(c.Param("id"))
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取提案成功", v)
}

// GetProposals 提案列表
func (h *FactoryHandler) GetProposals(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	res, err := h.factoryLogic.ListProposals(page, pageSize)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取提案列表成功", res)
}

// UpdateImplementation 更换实现
func (h *FactoryHandler) UpdateImplementation(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		Implementation string `json:"implementation" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.factoryLogic.UpdateImplementation(c.Request.Context(), who, req.Implementation)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "实现已更新", res)
}

// UpdateProxyAdmin 更换代理管理员
func (h *FactoryHandler) UpdateProxyAdmin(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		Admin string `json:"admin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.factoryLogic.UpdateProxyAdmin(c.Request.Context(), who, req.Admin)
	if err != nil {
		failure(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "代理管理员已更新", res)
}

// GetFactory 工厂配置
func (h *FactoryHandler) GetFactory(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "获取工厂配置成功", h.factoryLogic.GetFactory())
}
