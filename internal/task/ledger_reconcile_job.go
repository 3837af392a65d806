package task

import (
	"time"

	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/logger"
	"github.com/blues/mfs/internal/logic"
	"github.com/blues/mfs/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// LedgerReconcileJob 资金账本对账任务
// funded_amount 列是 funding 流水汇总的缓存，该任务定期校验两者一致。
// 发现漂移时记录告警，并通过原子累加差额修复，绝不整列覆盖
type LedgerReconcileJob struct {
	db        *gorm.DB
	config    *config.Config
	fundLogic *logic.FundLogic
}

// NewLedgerReconcileJob 创建对账任务
func NewLedgerReconcileJob(db *gorm.DB, cfg *config.Config, fundLogic *logic.FundLogic) *LedgerReconcileJob {
	return &LedgerReconcileJob{
		db:        db,
		config:    cfg,
		fundLogic: fundLogic,
	}
}

// GetName 获取任务名称
func (j *LedgerReconcileJob) GetName() string {
	return "ledger_reconciler"
}

// GetSchedule 获取调度配置
func (j *LedgerReconcileJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *LedgerReconcileJob) Execute() {
	logger.Debug("Starting ledger reconcile task")

	var projects []model.ProjectModel
	if err := j.db.Find(&projects).Error; err != nil {
		logger.Error("Failed to fetch projects for reconciliation: %v", err)
		return
	}

	driftCount := 0

	for _, project := range projects {
		total, err := j.fundLogic.FundingTotal(project.Id)
		if err != nil {
			logger.Error("Failed to compute funding total for project %d: %v", project.Id, err)
			continue
		}

		delta := total.Sub(project.FundedAmount)
		if delta.IsZero() {
			continue
		}

		logger.Warn("Funded amount drift on project %d: column=%s ledger=%s delta=%s",
			project.Id, project.FundedAmount, total, delta)

		err = j.db.Model(&model.ProjectModel{}).
			Where("id = ?", project.Id).
			Update("funded_amount", gorm.Expr("funded_amount + CAST(? AS NUMERIC)", delta)).Error
		if err != nil {
			logger.Error("Failed to repair funded amount for project %d: %v", project.Id, err)
			continue
		}

		driftCount++
	}

	if driftCount > 0 {
		logger.Info("Ledger reconcile task repaired %d projects", driftCount)
	}
}
