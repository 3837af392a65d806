package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mfs/internal/logic"
	"github.com/gin-gonic/gin"
)

// VoteHandler 投票处理器
type VoteHandler struct {
	voteLogic *logic.VoteLogic
}

// NewVoteHandler 创建投票处理器
func NewVoteHandler(voteLogic *logic.VoteLogic) *VoteHandler {
	return &VoteHandler{voteLogic: voteLogic}
}

// CastVote 投票
func (h *VoteHandler) CastVote(c *gin.Context) {
	milestoneId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑ID")
		return
	}

	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	tally, status, err := h.voteLogic.CastVote(milestoneId, req.VoterAddress, *req.Approve, req.Weight)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "投票成功", gin.H{
		"tally":            tally,
		"milestone_status": status,
	})
}

// GetTally 查询计票结果
func (h *VoteHandler) GetTally(c *gin.Context) {
	milestoneId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑ID")
		return
	}

	tally, err := h.voteLogic.TallyOf(milestoneId)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取计票结果成功", gin.H{"tally": tally})
}

// HasVoted 查询是否已投票，仅用于展示层
func (h *VoteHandler) HasVoted(c *gin.Context) {
	milestoneId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑ID")
		return
	}

	address := c.Param("address")

	SuccessResponse(c, http.StatusOK, "查询成功", gin.H{
		"has_voted": h.voteLogic.HasVoted(milestoneId, address),
	})
}

// GetMilestoneVotes 获取里程碑投票记录
func (h *VoteHandler) GetMilestoneVotes(c *gin.Context) {
	milestoneId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑ID")
		return
	}

	votes, err := h.voteLogic.GetMilestoneVotes(milestoneId)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取投票记录成功", gin.H{
		"votes": ToVoteResponseList(votes),
	})
}
