package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/mfs/internal/logger"
	"github.com/blues/mfs/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MilestoneLogic 里程碑业务逻辑
// 状态机：pending → voting → approved → released，pending|voting → rejected
// approved 是单向闩锁，之后的投票不会把状态退回 voting
type MilestoneLogic struct {
	db *gorm.DB
}

// NewMilestoneLogic 创建里程碑业务逻辑
func NewMilestoneLogic(db *gorm.DB) *MilestoneLogic {
	return &MilestoneLogic{db: db}
}

// CreateMilestone 创建里程碑
func (m *MilestoneLogic) CreateMilestone(milestone *model.MilestoneModel) error {
	if err := m.validateMilestone(milestone); err != nil {
		return err
	}

	// 检查项目是否存在且在进行中
	var project model.ProjectModel
	if err := m.db.First(&project, milestone.ProjectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	if project.Status != model.ProjectStatusActive {
		return ErrProjectNotActive
	}

	// 全部里程碑分配金额之和不得超过项目目标金额
	allocated, err := m.totalAllocated(milestone.ProjectId)
	if err != nil {
		return err
	}
	if allocated.Add(milestone.AmountAllocated).GreaterThan(project.TargetAmount) {
		return errors.New("里程碑分配金额总和超过项目目标金额")
	}

	milestone.Status = model.MilestoneStatusPending

	if err := m.db.Create(milestone).Error; err != nil {
		return fmt.Errorf("创建里程碑失败: %w", err)
	}

	return nil
}

// GetMilestone 获取里程碑详情
func (m *MilestoneLogic) GetMilestone(id int64) (*model.MilestoneModel, error) {
	var milestone model.MilestoneModel
	if err := m.db.First(&milestone, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMilestoneNotFound
		}
		return nil, fmt.Errorf("获取里程碑失败: %w", err)
	}
	return &milestone, nil
}

// GetProjectMilestones 获取项目里程碑列表
func (m *MilestoneLogic) GetProjectMilestones(projectId int64) ([]model.MilestoneModel, error) {
	var milestones []model.MilestoneModel
	if err := m.db.Where("project_id = ?", projectId).
		Order("id ASC").
		Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("获取里程碑列表失败: %w", err)
	}
	return milestones, nil
}

// ApplyTallyTx 根据最新计票结果推进里程碑状态
// 只前进不后退：首票把 pending 推到 voting，过半把 voting 推到 approved
func (m *MilestoneLogic) ApplyTallyTx(tx *gorm.DB, milestone *model.MilestoneModel, totalWeight int64, approved bool) error {
	var next model.MilestoneStatus

	switch milestone.Status {
	case model.MilestoneStatusPending:
		if approved {
			next = model.MilestoneStatusApproved
		} else if totalWeight > 0 {
			next = model.MilestoneStatusVoting
		}
	case model.MilestoneStatusVoting:
		if approved {
			next = model.MilestoneStatusApproved
		}
	default:
		// approved/released/rejected 不再变化
	}

	if next == "" {
		return nil
	}

	if err := tx.Model(milestone).Update("status", next).Error; err != nil {
		return fmt.Errorf("更新里程碑状态失败: %w", err)
	}
	milestone.Status = next

	return nil
}

// ClaimRelease 抢占释放资格
// approved → released 的条件更新是并发释放的唯一裁决：零行命中说明状态已被
// 其他调用改走，任何时刻至多一个调用能抢到
func (m *MilestoneLogic) ClaimRelease(id int64) error {
	result := m.db.Model(&model.MilestoneModel{}).
		Where("id = ? AND status = ?", id, model.MilestoneStatusApproved).
		Update("status", model.MilestoneStatusReleased)
	if result.Error != nil {
		return fmt.Errorf("更新里程碑状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		milestone, err := m.GetMilestone(id)
		if err != nil {
			return err
		}
		if milestone.Status == model.MilestoneStatusReleased {
			return ErrAlreadyReleased
		}
		return ErrNotApproved
	}

	return nil
}

// UnclaimRelease 转账失败时回滚抢占，里程碑回到 approved
// 只回滚尚未写入转账哈希的抢占
func (m *MilestoneLogic) UnclaimRelease(id int64) {
	err := m.db.Model(&model.MilestoneModel{}).
		Where("id = ? AND status = ? AND release_tx_hash = ''",
			id, model.MilestoneStatusReleased).
		Update("status", model.MilestoneStatusApproved).Error
	if err != nil {
		logger.Error("Failed to revert release claim for milestone %d: %v", id, err)
	}
}

// FinalizeReleaseTx 转账成功后补齐释放信息，状态在抢占时已置为 released
func (m *MilestoneLogic) FinalizeReleaseTx(tx *gorm.DB, milestone *model.MilestoneModel, txHash string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"release_tx_hash": txHash,
		"released_at":     &now,
	}
	if err := tx.Model(&model.MilestoneModel{}).
		Where("id = ?", milestone.Id).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("更新里程碑释放信息失败: %w", err)
	}
	milestone.Status = model.MilestoneStatusReleased
	milestone.ReleaseTxHash = txHash
	milestone.ReleasedAt = &now

	return nil
}

// RejectMilestone 创建者手动拒绝里程碑，终态
func (m *MilestoneLogic) RejectMilestone(id int64) error {
	milestone, err := m.GetMilestone(id)
	if err != nil {
		return err
	}

	if milestone.Status != model.MilestoneStatusPending && milestone.Status != model.MilestoneStatusVoting {
		return ErrVotingClosed
	}

	if err := m.db.Model(milestone).Update("status", model.MilestoneStatusRejected).Error; err != nil {
		return fmt.Errorf("更新里程碑状态失败: %w", err)
	}

	return nil
}

// totalAllocated 统计项目已分配的里程碑金额
func (m *MilestoneLogic) totalAllocated(projectId int64) (decimal.Decimal, error) {
	var milestones []model.MilestoneModel
	if err := m.db.Select("amount_allocated").
		Where("project_id = ?", projectId).
		Find(&milestones).Error; err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, ms := range milestones {
		total = total.Add(ms.AmountAllocated)
	}
	return total, nil
}

// validateMilestone 验证里程碑数据
func (m *MilestoneLogic) validateMilestone(milestone *model.MilestoneModel) error {
	if milestone.ProjectId == 0 {
		return errors.New("项目ID不能为空")
	}
	if milestone.Title == "" {
		return errors.New("里程碑标题不能为空")
	}
	if !milestone.AmountAllocated.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
