package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MilestoneModel 项目里程碑，逐个投票通过后才能释放对应资金
type MilestoneModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId   int64  `json:"project_id" gorm:"not null;index"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`

	// 分配金额，释放金额不得超过该值
	AmountAllocated decimal.Decimal `json:"amount_allocated" gorm:"type:decimal(32,18);not null"`

	// 状态只沿状态机前进，approved 为单向闩锁
	Status MilestoneStatus `json:"status" gorm:"default:'pending'"`

	// 释放信息
	ReleaseTxHash string     `json:"release_tx_hash"`
	ReleasedAt    *time.Time `json:"released_at"`
}

// MilestoneStatus 里程碑状态
type MilestoneStatus string

const (
	MilestoneStatusPending  MilestoneStatus = "pending"  // 待投票
	MilestoneStatusVoting   MilestoneStatus = "voting"   // 投票中
	MilestoneStatusApproved MilestoneStatus = "approved" // 已通过
	MilestoneStatusReleased MilestoneStatus = "released" // 已释放
	MilestoneStatusRejected MilestoneStatus = "rejected" // 已拒绝
)

// TableName 自定义表名
func (MilestoneModel) TableName() string {
	return "milestone"
}
