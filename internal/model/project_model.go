package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectModel 众筹项目模型
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`

	// 众筹信息
	TargetAmount decimal.Decimal `json:"target_amount" gorm:"type:decimal(32,18);not null"`
	FundedAmount decimal.Decimal `json:"funded_amount" gorm:"type:decimal(32,18);default:0"`
	// 已贡献未释放的锁定金额，释放时扣减，下限为0
	LockedAmount decimal.Decimal `json:"locked_amount" gorm:"type:decimal(32,18);default:0"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// 状态
	Status ProjectStatus `json:"status" gorm:"default:'active'"`

	// 创建者信息
	CreatorId      int64  `json:"creator_id" gorm:"not null"`
	CreatorAddress string `json:"creator_address" gorm:"not null"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"    // 进行中
	ProjectStatusCompleted ProjectStatus = "completed" // 已完成
	ProjectStatusCancelled ProjectStatus = "cancelled" // 已取消
)

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}
