package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerSender 账本转账服务，链上实现见 internal/chain
type LedgerSender interface {
	Send(ctx context.Context, toAddress string, amount decimal.Decimal) (string, error)
}

// 释放校验时预留的手续费容差
var defaultReleaseTolerance = decimal.RequireFromString("0.0005")

// FundLogic 资金账本业务逻辑
// 负责贡献入账、里程碑释放以及 funded_amount 缓存列的一致性
type FundLogic struct {
	db             *gorm.DB
	tokenLogic     *TokenAccountLogic
	milestoneLogic *MilestoneLogic
	sender         LedgerSender
	tolerance      decimal.Decimal
}

// NewFundLogic 创建资金账本业务逻辑
func NewFundLogic(db *gorm.DB, tokenLogic *TokenAccountLogic, milestoneLogic *MilestoneLogic,
	sender LedgerSender, cfg config.TokenConfig) *FundLogic {
	tolerance := defaultReleaseTolerance
	if cfg.ReleaseTolerance != "" {
		if parsed, err := decimal.NewFromString(cfg.ReleaseTolerance); err == nil && !parsed.IsNegative() {
			tolerance = parsed
		}
	}

	return &FundLogic{
		db:             db,
		tokenLogic:     tokenLogic,
		milestoneLogic: milestoneLogic,
		sender:         sender,
		tolerance:      tolerance,
	}
}

// RecordContribution 贡献入账
// 单个事务内完成：流水追加、funded/locked 原子累加、治理代币铸造。
// 三者要么全部生效要么全部回滚，tx_hash 唯一索引保证重复入账幂等失败
func (f *FundLogic) RecordContribution(projectId int64, address, txHash string, amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if address == "" {
		return 0, errors.New("贡献者地址不能为空")
	}
	if txHash == "" {
		return 0, errors.New("交易哈希不能为空")
	}

	var project model.ProjectModel
	if err := f.db.First(&project, projectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrProjectNotFound
		}
		return 0, err
	}
	if project.Status != model.ProjectStatusActive {
		return 0, ErrProjectNotActive
	}

	var minted int64
	err := f.db.Transaction(func(tx *gorm.DB) error {
		record := model.TransactionModel{
			ProjectId: projectId,
			TxHash:    txHash,
			Address:   address,
			Amount:    amount,
			Type:      model.TransactionTypeFunding,
		}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateTransaction
			}
			return fmt.Errorf("创建流水记录失败: %w", err)
		}

		var err error
		minted, err = f.tokenLogic.MintTx(tx, address, amount)
		if err != nil {
			return err
		}

		// 服务端单语句累加，并发贡献不会丢更新
		err = tx.Model(&model.ProjectModel{}).
			Where("id = ?", projectId).
			Updates(map[string]interface{}{
				"funded_amount": gorm.Expr("funded_amount + CAST(? AS NUMERIC)", amount),
				"locked_amount": gorm.Expr("locked_amount + CAST(? AS NUMERIC)", amount),
			}).Error
		if err != nil {
			return fmt.Errorf("更新项目筹款金额失败: %w", err)
		}

		// 达标判定读库内累加后的金额，并发贡献共同跨过目标也不漏判
		err = tx.Model(&model.ProjectModel{}).
			Where("id = ? AND status = ? AND funded_amount >= target_amount",
				projectId, model.ProjectStatusActive).
			Update("status", model.ProjectStatusCompleted).Error
		if err != nil {
			return fmt.Errorf("更新项目状态失败: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return minted, nil
}

// RecordRelease 释放里程碑资金
// 前置校验 → 条件更新抢占 approved → released → 账本转账 → 落库
// （释放流水 + 释放信息 + 锁定金额扣减）。
// 转账失败回滚抢占并透传错误，不落任何可见状态
func (f *FundLogic) RecordRelease(ctx context.Context, milestoneId int64, destination string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	if destination == "" {
		return "", errors.New("接收地址不能为空")
	}

	milestone, err := f.milestoneLogic.GetMilestone(milestoneId)
	if err != nil {
		return "", err
	}
	if milestone.Status == model.MilestoneStatusReleased {
		return "", ErrAlreadyReleased
	}
	if milestone.Status != model.MilestoneStatusApproved {
		return "", ErrNotApproved
	}
	if amount.GreaterThan(milestone.AmountAllocated) {
		return "", ErrExceedsAllocation
	}

	var project model.ProjectModel
	if err := f.db.First(&project, milestone.ProjectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrProjectNotFound
		}
		return "", err
	}

	// 锁定资金校验，容差覆盖链上手续费波动
	if amount.GreaterThan(project.LockedAmount.Add(f.tolerance)) {
		return "", ErrInsufficientLockedFunds
	}

	// 抢占释放资格再转账，并发的重复释放在抢占一步被挡下，不会走到转账
	if err := f.milestoneLogic.ClaimRelease(milestoneId); err != nil {
		return "", err
	}

	txHash, err := f.sender.Send(ctx, destination, amount)
	if err != nil {
		f.milestoneLogic.UnclaimRelease(milestoneId)
		return "", fmt.Errorf("账本转账失败: %w", err)
	}

	err = f.db.Transaction(func(tx *gorm.DB) error {
		record := model.TransactionModel{
			ProjectId:   milestone.ProjectId,
			MilestoneId: milestoneId,
			TxHash:      txHash,
			Address:     destination,
			Amount:      amount,
			Type:        model.TransactionTypeRelease,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("创建释放流水失败: %w", err)
		}

		if err := f.milestoneLogic.FinalizeReleaseTx(tx, milestone, txHash); err != nil {
			return err
		}

		// 锁定金额扣减，下限为0
		return tx.Model(&model.ProjectModel{}).
			Where("id = ?", milestone.ProjectId).
			Update("locked_amount", gorm.Expr(
				"CASE WHEN locked_amount >= CAST(? AS NUMERIC) THEN locked_amount - CAST(? AS NUMERIC) ELSE 0 END",
				amount, amount)).Error
	})
	if err != nil {
		return "", err
	}

	return txHash, nil
}

// FundingTotal 汇总 funding 流水，是筹款总额的权威真值
// funded_amount 列只是该汇总的缓存
func (f *FundLogic) FundingTotal(projectId int64) (decimal.Decimal, error) {
	var records []model.TransactionModel
	if err := f.db.Select("amount").
		Where("project_id = ? AND type = ?", projectId, model.TransactionTypeFunding).
		Find(&records).Error; err != nil {
		return decimal.Zero, fmt.Errorf("汇总筹款流水失败: %w", err)
	}

	total := decimal.Zero
	for _, record := range records {
		total = total.Add(record.Amount)
	}
	return total, nil
}

// GetProjectContributions 分页获取项目贡献流水
func (f *FundLogic) GetProjectContributions(projectId int64, page, pageSize int) ([]model.TransactionModel, int64, error) {
	return f.listTransactions(projectId, string(model.TransactionTypeFunding), page, pageSize)
}

// GetProjectTransactions 分页获取项目流水，txType 为空时不过滤类型
func (f *FundLogic) GetProjectTransactions(projectId int64, txType string, page, pageSize int) ([]model.TransactionModel, int64, error) {
	return f.listTransactions(projectId, txType, page, pageSize)
}

func (f *FundLogic) listTransactions(projectId int64, txType string, page, pageSize int) ([]model.TransactionModel, int64, error) {
	var records []model.TransactionModel
	var total int64

	query := f.db.Model(&model.TransactionModel{}).Where("project_id = ?", projectId)
	if txType != "" {
		query = query.Where("type = ?", txType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取流水总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取流水记录失败: %w", err)
	}

	return records, total, nil
}
