package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mfs/internal/logic"
	"github.com/gin-gonic/gin"
)

// FundHandler 资金账本处理器
type FundHandler struct {
	fundLogic *logic.FundLogic
}

// NewFundHandler 创建资金账本处理器
func NewFundHandler(fundLogic *logic.FundLogic) *FundHandler {
	return &FundHandler{fundLogic: fundLogic}
}

// Contribute 贡献入账
func (h *FundHandler) Contribute(c *gin.Context) {
	projectId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	minted, err := h.fundLogic.RecordContribution(projectId, req.Address, req.TxHash, req.Amount)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "贡献入账成功", gin.H{
		"minted_tokens": minted,
	})
}

// GetProjectContributions 分页获取项目贡献流水
func (h *FundHandler) GetProjectContributions(c *gin.Context) {
	projectId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	page, pageSize := parsePagination(c)

	records, total, err := h.fundLogic.GetProjectContributions(projectId, page, pageSize)
	if err != nil {
		FailWithError(c, err)
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取贡献流水成功", gin.H{
		"records":    ToTransactionResponseList(records),
		"pagination": pagination,
	})
}

// GetProjectTransactions 分页获取项目流水（审计日志）
func (h *FundHandler) GetProjectTransactions(c *gin.Context) {
	projectId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	txType := c.Query("type")
	page, pageSize := parsePagination(c)

	records, total, err := h.fundLogic.GetProjectTransactions(projectId, txType, page, pageSize)
	if err != nil {
		FailWithError(c, err)
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取流水记录成功", gin.H{
		"records":    ToTransactionResponseList(records),
		"pagination": pagination,
	})
}

// GetFundingTotal 获取筹款总额（流水汇总真值）
func (h *FundHandler) GetFundingTotal(c *gin.Context) {
	projectId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	total, err := h.fundLogic.FundingTotal(projectId)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取筹款总额成功", gin.H{
		"project_id":    projectId,
		"funding_total": total,
	})
}
