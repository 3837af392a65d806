package model

import (
	"time"
)

// TokenAccountModel 治理代币账户，按投票人维护可支配票权余额
type TokenAccountModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	VoterAddress string `json:"voter_address" gorm:"uniqueIndex;not null"`
	// 余额任何时刻不小于0，扣减通过条件更新保证
	Balance int64 `json:"balance" gorm:"not null;default:0"`
}

// TableName 自定义表名
func (TokenAccountModel) TableName() string {
	return "token_account"
}
