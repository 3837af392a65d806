package task

import (
	"time"

	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/logger"
	"github.com/blues/mfs/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// ProjectFinishJob 项目完成任务
// 把已过结束时间且达到目标金额的项目置为已完成
type ProjectFinishJob struct {
	db     *gorm.DB
	config *config.Config
}

// NewProjectFinishJob 创建项目完成任务
func NewProjectFinishJob(db *gorm.DB, cfg *config.Config) *ProjectFinishJob {
	return &ProjectFinishJob{
		db:     db,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *ProjectFinishJob) GetName() string {
	return "project_finish_updater"
}

// GetSchedule 获取调度配置
func (j *ProjectFinishJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *ProjectFinishJob) Execute() {
	logger.Debug("Starting project finish task")

	now := time.Now()

	// 查找需要完成的项目：进行中、已过结束时间、达到目标金额
	var projects []model.ProjectModel
	err := j.db.Where("status = ? AND end_time IS NOT NULL AND end_time <= ?",
		model.ProjectStatusActive, now).Find(&projects).Error
	if err != nil {
		logger.Error("Failed to fetch projects for finishing: %v", err)
		return
	}

	finishedCount := 0

	for _, project := range projects {
		if project.EndTime.IsZero() || project.FundedAmount.LessThan(project.TargetAmount) {
			continue
		}

		err := j.db.Model(&model.ProjectModel{}).
			Where("id = ? AND status = ?", project.Id, model.ProjectStatusActive).
			Update("status", model.ProjectStatusCompleted).Error
		if err != nil {
			logger.Error("Failed to finish project %d: %v", project.Id, err)
			continue
		}

		logger.Info("Project %d reached target amount %s, marked as completed",
			project.Id, project.TargetAmount)
		finishedCount++
	}

	if finishedCount > 0 {
		logger.Info("Project finish task completed %d projects", finishedCount)
	}
}
