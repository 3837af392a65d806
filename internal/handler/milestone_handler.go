package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mfs/internal/logic"
	"github.com/blues/mfs/internal/model"
	"github.com/gin-gonic/gin"
)

// MilestoneHandler 里程碑处理器
type MilestoneHandler struct {
	milestoneLogic *logic.MilestoneLogic
	fundLogic      *logic.FundLogic
}

// NewMilestoneHandler 创建里程碑处理器
func NewMilestoneHandler(milestoneLogic *logic.MilestoneLogic, fundLogic *logic.FundLogic) *MilestoneHandler {
	return &MilestoneHandler{
		milestoneLogic: milestoneLogic,
		fundLogic:      fundLogic,
	}
}

// CreateMilestone 创建里程碑
func (h *MilestoneHandler) CreateMilestone(c *gin.Context) {
	projectId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	var req CreateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	milestone := model.MilestoneModel{
		ProjectId:       projectId,
		Title:           req.Title,
		Description:     req.Description,
		AmountAllocated: req.AmountAllocated,
	}

	if err := h.milestoneLogic.CreateMilestone(&milestone); err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "里程碑创建成功", gin.H{
		"milestone": ToMilestoneResponse(&milestone),
	})
}

// GetProjectMilestones 获取项目里程碑列表
func (h *MilestoneHandler) GetProjectMilestones(c *gin.Context) {
	projectId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	milestones, err := h.milestoneLogic.GetProjectMilestones(projectId)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取里程碑列表成功", gin.H{
		"milestones": ToMilestoneResponseList(milestones),
	})
}

// RejectMilestone 创建者手动拒绝里程碑
func (h *MilestoneHandler) RejectMilestone(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑ID")
		return
	}

	if err := h.milestoneLogic.RejectMilestone(id); err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "里程碑已拒绝", nil)
}

// ReleaseMilestone 释放里程碑资金
func (h *MilestoneHandler) ReleaseMilestone(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑ID")
		return
	}

	var req ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	txHash, err := h.fundLogic.RecordRelease(c.Request.Context(), id, req.Destination, req.Amount)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "里程碑资金释放成功", gin.H{
		"tx_hash": txHash,
	})
}
