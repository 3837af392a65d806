package handler

import (
	"strconv"
	"time"

	"github.com/blues/mfs/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// parsePagination 解析分页查询参数
// 非法值回退默认，page_size 下限1上限100，总页数计算不会除零
func parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if err != nil || pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	return page, pageSize
}

// 请求模型

// ConnectWalletRequest 钱包连接请求
type ConnectWalletRequest struct {
	Address  string `json:"address" binding:"required"`
	Nickname string `json:"nickname"`
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title          string          `json:"title" binding:"required"`
	Description    string          `json:"description"`
	ImageURL       string          `json:"image_url"`
	Category       string          `json:"category"`
	TargetAmount   decimal.Decimal `json:"target_amount" binding:"required"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	CreatorAddress string          `json:"creator_address" binding:"required"`
}

// CreateMilestoneRequest 创建里程碑请求
type CreateMilestoneRequest struct {
	Title           string          `json:"title" binding:"required"`
	Description     string          `json:"description"`
	AmountAllocated decimal.Decimal `json:"amount_allocated" binding:"required"`
}

// ContributeRequest 贡献入账请求
type ContributeRequest struct {
	Address string          `json:"address" binding:"required"`
	TxHash  string          `json:"tx_hash" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

// CastVoteRequest 投票请求
type CastVoteRequest struct {
	VoterAddress string `json:"voter_address" binding:"required"`
	Approve      *bool  `json:"approve" binding:"required"`
	Weight       int64  `json:"weight" binding:"required"`
}

// ReleaseRequest 里程碑释放请求
type ReleaseRequest struct {
	Destination string          `json:"destination" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
}

// 响应模型

// ProjectResponse 项目响应模型
type ProjectResponse struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	ImageURL       string          `json:"imageUrl"`
	Category       string          `json:"category"`
	Creator        string          `json:"creator"`
	TargetAmount   decimal.Decimal `json:"targetAmount"`
	FundedAmount   decimal.Decimal `json:"fundedAmount"`
	LockedAmount   decimal.Decimal `json:"lockedAmount"`
	Status         string          `json:"status"`
	StartTime      time.Time       `json:"startTime"`
	EndTime        time.Time       `json:"endTime"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// MilestoneResponse 里程碑响应模型
type MilestoneResponse struct {
	ID              int64           `json:"id"`
	ProjectID       int64           `json:"projectId"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	AmountAllocated decimal.Decimal `json:"amountAllocated"`
	Status          string          `json:"status"`
	ReleaseTxHash   string          `json:"releaseTxHash,omitempty"`
	ReleasedAt      *time.Time      `json:"releasedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// TransactionResponse 流水响应模型
type TransactionResponse struct {
	ID          int64           `json:"id"`
	ProjectID   int64           `json:"projectId"`
	MilestoneID int64           `json:"milestoneId,omitempty"`
	Address     string          `json:"address"`
	Amount      decimal.Decimal `json:"amount"`
	TxHash      string          `json:"txHash"`
	Type        string          `json:"type"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// VoteResponse 投票记录响应模型
type VoteResponse struct {
	ID           int64     `json:"id"`
	MilestoneID  int64     `json:"milestoneId"`
	VoterAddress string    `json:"voterAddress"`
	Approve      bool      `json:"approve"`
	VotingPower  int64     `json:"votingPower"`
	CreatedAt    time.Time `json:"createdAt"`
}

// 转换函数

// ToProjectResponse 将数据库模型转换为响应模型
func ToProjectResponse(project *model.ProjectModel) ProjectResponse {
	return ProjectResponse{
		ID:           project.Id,
		Title:        project.Title,
		Description:  project.Description,
		ImageURL:     project.ImageURL,
		Category:     project.Category,
		Creator:      project.CreatorAddress,
		TargetAmount: project.TargetAmount,
		FundedAmount: project.FundedAmount,
		LockedAmount: project.LockedAmount,
		Status:       string(project.Status),
		StartTime:    project.StartTime,
		EndTime:      project.EndTime,
		CreatedAt:    project.CreatedAt,
		UpdatedAt:    project.UpdatedAt,
	}
}

// ToProjectResponseList 将数据库模型列表转换为响应模型列表
func ToProjectResponseList(projects []model.ProjectModel) []ProjectResponse {
	result := make([]ProjectResponse, len(projects))
	for i, project := range projects {
		result[i] = ToProjectResponse(&project)
	}
	return result
}

// ToMilestoneResponse 将里程碑数据库模型转换为响应模型
func ToMilestoneResponse(milestone *model.MilestoneModel) MilestoneResponse {
	return MilestoneResponse{
		ID:              milestone.Id,
		ProjectID:       milestone.ProjectId,
		Title:           milestone.Title,
		Description:     milestone.Description,
		AmountAllocated: milestone.AmountAllocated,
		Status:          string(milestone.Status),
		ReleaseTxHash:   milestone.ReleaseTxHash,
		ReleasedAt:      milestone.ReleasedAt,
		CreatedAt:       milestone.CreatedAt,
	}
}

// ToMilestoneResponseList 将里程碑数据库模型列表转换为响应模型列表
func ToMilestoneResponseList(milestones []model.MilestoneModel) []MilestoneResponse {
	result := make([]MilestoneResponse, len(milestones))
	for i, milestone := range milestones {
		result[i] = ToMilestoneResponse(&milestone)
	}
	return result
}

// ToTransactionResponse 将流水数据库模型转换为响应模型
func ToTransactionResponse(record *model.TransactionModel) TransactionResponse {
	return TransactionResponse{
		ID:          record.Id,
		ProjectID:   record.ProjectId,
		MilestoneID: record.MilestoneId,
		Address:     record.Address,
		Amount:      record.Amount,
		TxHash:      record.TxHash,
		Type:        string(record.Type),
		CreatedAt:   record.CreatedAt,
	}
}

// ToTransactionResponseList 将流水数据库模型列表转换为响应模型列表
func ToTransactionResponseList(records []model.TransactionModel) []TransactionResponse {
	result := make([]TransactionResponse, len(records))
	for i, record := range records {
		result[i] = ToTransactionResponse(&record)
	}
	return result
}

// ToVoteResponse 将投票数据库模型转换为响应模型
func ToVoteResponse(vote *model.VoteModel) VoteResponse {
	return VoteResponse{
		ID:           vote.Id,
		MilestoneID:  vote.MilestoneId,
		VoterAddress: vote.VoterAddress,
		Approve:      vote.Approve,
		VotingPower:  vote.VotingPower,
		CreatedAt:    vote.CreatedAt,
	}
}

// ToVoteResponseList 将投票数据库模型列表转换为响应模型列表
func ToVoteResponseList(votes []model.VoteModel) []VoteResponse {
	result := make([]VoteResponse, len(votes))
	for i, vote := range votes {
		result[i] = ToVoteResponse(&vote)
	}
	return result
}
