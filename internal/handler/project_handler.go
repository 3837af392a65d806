package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mfs/internal/logic"
	"github.com/blues/mfs/internal/model"
	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projectLogic   *logic.ProjectLogic
	milestoneLogic *logic.MilestoneLogic
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projectLogic *logic.ProjectLogic, milestoneLogic *logic.MilestoneLogic) *ProjectHandler {
	return &ProjectHandler{
		projectLogic:   projectLogic,
		milestoneLogic: milestoneLogic,
	}
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	project := model.ProjectModel{
		Title:          req.Title,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		Category:       req.Category,
		TargetAmount:   req.TargetAmount,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		CreatorAddress: req.CreatorAddress,
	}

	if err := h.projectLogic.CreateProject(&project); err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "项目创建成功", gin.H{
		"project": ToProjectResponse(&project),
	})
}

// GetProjects 获取项目列表
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	status := c.Query("status")
	creator := c.Query("creator")
	page, pageSize := parsePagination(c)

	projects, total, err := h.projectLogic.GetProjects(status, creator, page, pageSize)
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

	SuccessResponse(c, http.StatusOK, "获取项目列表成功", gin.H{
		"projects":   ToProjectResponseList(projects),
		"pagination": pagination,
	})
}

// GetProject 获取项目详情（含里程碑）
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	project, err := h.projectLogic.GetProject(id)
	if err != nil {
		FailWithError(c, err)
		return
	}

	milestones, err := h.milestoneLogic.GetProjectMilestones(id)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目详情成功", gin.H{
		"project":    ToProjectResponse(project),
		"milestones": ToMilestoneResponseList(milestones),
	})
}

// CancelProject 取消项目
func (h *ProjectHandler) CancelProject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	if err := h.projectLogic.CancelProject(id); err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "项目已取消", nil)
}

// GetProjectStats 获取项目统计信息
func (h *ProjectHandler) GetProjectStats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	stats, err := h.projectLogic.GetProjectStats(id)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目统计信息成功", gin.H{"stats": stats})
}
