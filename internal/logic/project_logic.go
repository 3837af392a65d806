package logic

import (
	"errors"
	"fmt"

	"github.com/blues/mfs/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProjectLogic 项目业务逻辑
type ProjectLogic struct {
	db        *gorm.DB
	userLogic *UserLogic
}

// NewProjectLogic 创建项目业务逻辑
func NewProjectLogic(db *gorm.DB) *ProjectLogic {
	return &ProjectLogic{db: db, userLogic: NewUserLogic(db)}
}

// CreateProject 创建项目
func (p *ProjectLogic) CreateProject(project *model.ProjectModel) error {
	if err := p.validateProject(project); err != nil {
		return err
	}

	// 创建者首次出现时一并建档
	creator, err := p.userLogic.ConnectWallet(project.CreatorAddress, "")
	if err != nil {
		return err
	}
	project.CreatorId = creator.Id

	// 设置默认值
	project.Status = model.ProjectStatusActive
	project.FundedAmount = decimal.Zero
	project.LockedAmount = decimal.Zero

	if err := p.db.Create(project).Error; err != nil {
		return fmt.Errorf("创建项目失败: %w", err)
	}

	return nil
}

// GetProjects 获取项目列表
func (p *ProjectLogic) GetProjects(status, creator string, page, pageSize int) ([]model.ProjectModel, int64, error) {
	var projects []model.ProjectModel
	var total int64

	query := p.db.Model(&model.ProjectModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if creator != "" {
		query = query.Where("creator_address = ?", creator)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取项目总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, 0, fmt.Errorf("获取项目列表失败: %w", err)
	}

	return projects, total, nil
}

// GetProject 获取项目详情
func (p *ProjectLogic) GetProject(id int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	if err := p.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("获取项目详情失败: %w", err)
	}
	return &project, nil
}

// CancelProject 取消项目，仅进行中的项目可取消
func (p *ProjectLogic) CancelProject(id int64) error {
	project, err := p.GetProject(id)
	if err != nil {
		return err
	}

	if project.Status != model.ProjectStatusActive {
		return ErrProjectNotActive
	}

	if err := p.db.Model(project).Update("status", model.ProjectStatusCancelled).Error; err != nil {
		return fmt.Errorf("取消项目失败: %w", err)
	}

	return nil
}

// GetProjectStats 获取项目统计信息
func (p *ProjectLogic) GetProjectStats(id int64) (map[string]interface{}, error) {
	project, err := p.GetProject(id)
	if err != nil {
		return nil, err
	}

	var contributorCount, contributionCount int64

	if err := p.db.Model(&model.TransactionModel{}).
		Where("project_id = ? AND type = ?", id, model.TransactionTypeFunding).
		Distinct("address").
		Count(&contributorCount).Error; err != nil {
		return nil, fmt.Errorf("获取贡献者数量失败: %w", err)
	}

	if err := p.db.Model(&model.TransactionModel{}).
		Where("project_id = ? AND type = ?", id, model.TransactionTypeFunding).
		Count(&contributionCount).Error; err != nil {
		return nil, fmt.Errorf("获取贡献笔数失败: %w", err)
	}

	// 计算完成百分比
	completionPercentage := decimal.Zero
	if project.TargetAmount.IsPositive() {
		completionPercentage = project.FundedAmount.
			Div(project.TargetAmount).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	return map[string]interface{}{
		"project_id":            project.Id,
		"funded_amount":         project.FundedAmount,
		"locked_amount":         project.LockedAmount,
		"target_amount":         project.TargetAmount,
		"completion_percentage": completionPercentage,
		"contributor_count":     contributorCount,
		"contribution_count":    contributionCount,
		"status":                project.Status,
	}, nil
}

// validateProject 验证项目数据
func (p *ProjectLogic) validateProject(project *model.ProjectModel) error {
	if project.Title == "" {
		return errors.New("项目标题不能为空")
	}
	if !project.TargetAmount.IsPositive() {
		return errors.New("目标金额必须大于0")
	}
	if project.CreatorAddress == "" {
		return errors.New("创建者地址不能为空")
	}
	if !project.StartTime.IsZero() && !project.EndTime.IsZero() && project.StartTime.After(project.EndTime) {
		return errors.New("开始时间不能晚于结束时间")
	}
	return nil
}
