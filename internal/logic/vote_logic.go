package logic

import (
	"errors"
	"fmt"
	"math"

	"github.com/blues/mfs/internal/logger"
	"github.com/blues/mfs/internal/model"
	"gorm.io/gorm"
)

// VoteLogic 投票业务逻辑
type VoteLogic struct {
	db             *gorm.DB
	tokenLogic     *TokenAccountLogic
	milestoneLogic *MilestoneLogic
}

// NewVoteLogic 创建投票业务逻辑
func NewVoteLogic(db *gorm.DB, tokenLogic *TokenAccountLogic, milestoneLogic *MilestoneLogic) *VoteLogic {
	return &VoteLogic{
		db:             db,
		tokenLogic:     tokenLogic,
		milestoneLogic: milestoneLogic,
	}
}

// VoteTally 计票结果，每次从投票记录重新汇总，不落缓存
type VoteTally struct {
	YesWeight  int64 `json:"yes_weight"`
	NoWeight   int64 `json:"no_weight"`
	Total      int64 `json:"total"`
	YesPercent int   `json:"yes_percent"`
	Approved   bool  `json:"approved"`
}

// CastVote 投票
// 顺序约定：先插投票再扣票权。唯一索引是"一人一票"的唯一裁决者，
// 重复提交在插入一步失败回滚，不会吞掉已扣的票权
func (v *VoteLogic) CastVote(milestoneId int64, voterAddress string, approve bool, weight int64) (*VoteTally, model.MilestoneStatus, error) {
	if weight < 1 {
		return nil, "", ErrInvalidWeight
	}
	if voterAddress == "" {
		return nil, "", errors.New("投票人地址不能为空")
	}

	// 余额预检，只为尽早报错；事务内的条件扣减才是最终裁决
	balance, err := v.tokenLogic.BalanceOf(voterAddress)
	if err != nil {
		return nil, "", fmt.Errorf("查询票权余额失败: %w", err)
	}
	if balance < weight {
		return nil, "", ErrInsufficientBalance
	}

	milestone, err := v.milestoneLogic.GetMilestone(milestoneId)
	if err != nil {
		return nil, "", err
	}
	if milestone.Status == model.MilestoneStatusReleased || milestone.Status == model.MilestoneStatusRejected {
		return nil, "", ErrVotingClosed
	}

	var tally *VoteTally
	err = v.db.Transaction(func(tx *gorm.DB) error {
		vote := model.VoteModel{
			MilestoneId:  milestoneId,
			VoterAddress: voterAddress,
			Approve:      approve,
			VotingPower:  weight,
		}
		if err := tx.Create(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateVote
			}
			return fmt.Errorf("创建投票记录失败: %w", err)
		}

		if _, err := v.tokenLogic.SpendTx(tx, voterAddress, weight); err != nil {
			return err
		}

		var err error
		tally, err = v.tallyTx(tx, milestoneId)
		if err != nil {
			return err
		}

		return v.milestoneLogic.ApplyTallyTx(tx, milestone, tally.Total, tally.Approved)
	})
	if err != nil {
		return nil, "", err
	}

	return tally, milestone.Status, nil
}

// TallyOf 查询计票结果
func (v *VoteLogic) TallyOf(milestoneId int64) (*VoteTally, error) {
	return v.tallyTx(v.db, milestoneId)
}

// HasVoted 查询是否已投票，仅用于展示层
// 查询出错降级为 false，真正的拦截在 CastVote 的唯一索引
func (v *VoteLogic) HasVoted(milestoneId int64, voterAddress string) bool {
	if milestoneId == 0 || voterAddress == "" {
		return false
	}

	var count int64
	err := v.db.Model(&model.VoteModel{}).
		Where("milestone_id = ? AND voter_address = ?", milestoneId, voterAddress).
		Count(&count).Error
	if err != nil {
		logger.Warn("Failed to check vote existence for milestone %d: %v", milestoneId, err)
		return false
	}

	return count > 0
}

// GetMilestoneVotes 获取里程碑投票记录
func (v *VoteLogic) GetMilestoneVotes(milestoneId int64) ([]model.VoteModel, error) {
	var votes []model.VoteModel
	if err := v.db.Where("milestone_id = ?", milestoneId).
		Order("created_at ASC").
		Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("获取投票记录失败: %w", err)
	}
	return votes, nil
}

// tallyTx 从投票记录重新汇总计票
// 严格多数：赞成权重超过总权重一半才算通过，平票不通过
func (v *VoteLogic) tallyTx(tx *gorm.DB, milestoneId int64) (*VoteTally, error) {
	var yesWeight, noWeight int64

	err := tx.Model(&model.VoteModel{}).
		Where("milestone_id = ? AND approve = ?", milestoneId, true).
		Select("COALESCE(SUM(voting_power), 0)").
		Scan(&yesWeight).Error
	if err != nil {
		return nil, fmt.Errorf("统计赞成票失败: %w", err)
	}

	err = tx.Model(&model.VoteModel{}).
		Where("milestone_id = ? AND approve = ?", milestoneId, false).
		Select("COALESCE(SUM(voting_power), 0)").
		Scan(&noWeight).Error
	if err != nil {
		return nil, fmt.Errorf("统计反对票失败: %w", err)
	}

	tally := &VoteTally{
		YesWeight: yesWeight,
		NoWeight:  noWeight,
		Total:     yesWeight + noWeight,
	}
	if tally.Total > 0 {
		tally.Approved = yesWeight*2 > tally.Total
		tally.YesPercent = int(math.Round(float64(yesWeight) / float64(tally.Total) * 100))
	}

	return tally, nil
}
