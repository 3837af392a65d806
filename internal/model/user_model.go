package model

import (
	"time"
)

// UserModel 用户模型
type UserModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 钱包地址，首次连接时幂等创建
	Address  string `json:"address" gorm:"uniqueIndex;not null" binding:"required"`
	Nickname string `json:"nickname"`
}

// TableName 自定义表名
func (UserModel) TableName() string {
	return "user"
}
