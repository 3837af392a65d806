package logic

import (
	"errors"
	"time"

	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 默认铸造参数：每 0.001 基础币铸造 100 代币，向下取整
var defaultMintUnit = decimal.RequireFromString("0.001")

const defaultMintRatio int64 = 100

// TokenAccountLogic 治理代币账户业务逻辑
type TokenAccountLogic struct {
	db    *gorm.DB
	unit  decimal.Decimal
	ratio int64
}

// NewTokenAccountLogic 创建治理代币账户业务逻辑
func NewTokenAccountLogic(db *gorm.DB, cfg config.TokenConfig) *TokenAccountLogic {
	unit := defaultMintUnit
	if cfg.Unit != "" {
		if parsed, err := decimal.NewFromString(cfg.Unit); err == nil && parsed.IsPositive() {
			unit = parsed
		}
	}

	ratio := cfg.Ratio
	if ratio <= 0 {
		ratio = defaultMintRatio
	}

	return &TokenAccountLogic{db: db, unit: unit, ratio: ratio}
}

// CalculateMintAmount 计算贡献金额对应的铸造数量
func (t *TokenAccountLogic) CalculateMintAmount(contributed decimal.Decimal) int64 {
	if !contributed.IsPositive() {
		return 0
	}
	return contributed.Div(t.unit).Floor().IntPart() * t.ratio
}

// Mint 按贡献金额铸造治理代币
func (t *TokenAccountLogic) Mint(voterAddress string, contributed decimal.Decimal) (int64, error) {
	var minted int64
	err := t.db.Transaction(func(tx *gorm.DB) error {
		var err error
		minted, err = t.MintTx(tx, voterAddress, contributed)
		return err
	})
	return minted, err
}

// MintTx 在给定事务内铸造治理代币，贡献入账与铸造共用一个事务边界
func (t *TokenAccountLogic) MintTx(tx *gorm.DB, voterAddress string, contributed decimal.Decimal) (int64, error) {
	if voterAddress == "" {
		return 0, errors.New("投票人地址不能为空")
	}

	minted := t.CalculateMintAmount(contributed)
	if minted < 1 {
		return 0, ErrInvalidAmount
	}

	// upsert：首次贡献建账户，否则原子累加余额
	account := model.TokenAccountModel{
		VoterAddress: voterAddress,
		Balance:      minted,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "voter_address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("token_account.balance + ?", minted),
			"updated_at": time.Now(),
		}),
	}).Create(&account).Error
	if err != nil {
		return 0, err
	}

	return minted, nil
}

// Spend 扣减投票权重
func (t *TokenAccountLogic) Spend(voterAddress string, weight int64) (int64, error) {
	var balance int64
	err := t.db.Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = t.SpendTx(tx, voterAddress, weight)
		return err
	})
	return balance, err
}

// SpendTx 在给定事务内扣减投票权重
// 条件更新保证余额不为负：余额不足时零行命中，不产生任何变更
func (t *TokenAccountLogic) SpendTx(tx *gorm.DB, voterAddress string, weight int64) (int64, error) {
	if weight < 1 {
		return 0, ErrInvalidWeight
	}

	result := tx.Model(&model.TokenAccountModel{}).
		Where("voter_address = ? AND balance >= ?", voterAddress, weight).
		Update("balance", gorm.Expr("balance - ?", weight))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrInsufficientBalance
	}

	var account model.TokenAccountModel
	if err := tx.Where("voter_address = ?", voterAddress).First(&account).Error; err != nil {
		return 0, err
	}

	return account.Balance, nil
}

// BalanceOf 查询治理代币余额，账户不存在视为0
func (t *TokenAccountLogic) BalanceOf(voterAddress string) (int64, error) {
	var account model.TokenAccountModel
	if err := t.db.Where("voter_address = ?", voterAddress).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return account.Balance, nil
}
