package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionModel 资金流水，仅追加的审计日志
// funded_amount 列是该表 type=funding 汇总的缓存
type TransactionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ProjectId   int64           `json:"project_id" gorm:"not null;index"`
	MilestoneId int64           `json:"milestone_id"`
	TxHash      string          `json:"tx_hash" gorm:"uniqueIndex;not null"`
	Address     string          `json:"address"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(32,18);not null"`
	Type        TransactionType `json:"type" gorm:"not null"`
}

// TransactionType 流水类型
type TransactionType string

const (
	TransactionTypeFunding TransactionType = "funding" // 贡献入账
	TransactionTypeRelease TransactionType = "release" // 里程碑释放
	TransactionTypeRefund  TransactionType = "refund"  // 退款
)

// TableName 自定义表名
func (TransactionModel) TableName() string {
	return "transaction"
}
