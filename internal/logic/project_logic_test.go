package logic

import (
	"testing"

	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCreateProject(t *testing.T) {
	db := setupTestDB(t)
	projectLogic := NewProjectLogic(db)

	project := &model.ProjectModel{
		Title:          "开源硬件",
		TargetAmount:   decimal.RequireFromString("1"),
		CreatorAddress: "0xcreator",
	}
	require.NoError(t, projectLogic.CreateProject(project))
	require.Equal(t, model.ProjectStatusActive, project.Status)
	require.NotZero(t, project.CreatorId)
	require.True(t, project.FundedAmount.IsZero())

	// 创建者随项目一并建档
	userLogic := NewUserLogic(db)
	creator, err := userLogic.GetUserByAddress("0xcreator")
	require.NoError(t, err)
	require.Equal(t, project.CreatorId, creator.Id)
}

func TestCreateProjectValidation(t *testing.T) {
	db := setupTestDB(t)
	projectLogic := NewProjectLogic(db)

	err := projectLogic.CreateProject(&model.ProjectModel{
		TargetAmount:   decimal.RequireFromString("1"),
		CreatorAddress: "0xcreator",
	})
	require.Error(t, err)

	err = projectLogic.CreateProject(&model.ProjectModel{
		Title:          "零目标",
		CreatorAddress: "0xcreator",
	})
	require.Error(t, err)

	err = projectLogic.CreateProject(&model.ProjectModel{
		Title:        "缺创建者",
		TargetAmount: decimal.RequireFromString("1"),
	})
	require.Error(t, err)
}

func TestGetProjectsFilterAndPagination(t *testing.T) {
	db := setupTestDB(t)
	projectLogic := NewProjectLogic(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, projectLogic.CreateProject(&model.ProjectModel{
			Title:          "项目",
			TargetAmount:   decimal.RequireFromString("1"),
			CreatorAddress: "0xcreator",
		}))
	}
	cancelled := &model.ProjectModel{
		Title:          "已取消",
		TargetAmount:   decimal.RequireFromString("1"),
		CreatorAddress: "0xother",
	}
	require.NoError(t, projectLogic.CreateProject(cancelled))
	require.NoError(t, projectLogic.CancelProject(cancelled.Id))

	projects, total, err := projectLogic.GetProjects(string(model.ProjectStatusActive), "", 1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, projects, 2)

	projects, total, err = projectLogic.GetProjects("", "0xother", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, model.ProjectStatusCancelled, projects[0].Status)
}

func TestCancelProject(t *testing.T) {
	db := setupTestDB(t)
	projectLogic := NewProjectLogic(db)
	project := createTestProject(t, db, "1")

	require.NoError(t, projectLogic.CancelProject(project.Id))

	// 已取消项目不能再次取消
	require.ErrorIs(t, projectLogic.CancelProject(project.Id), ErrProjectNotActive)

	require.ErrorIs(t, projectLogic.CancelProject(9999), ErrProjectNotFound)
}

func TestGetProjectStats(t *testing.T) {
	db := setupTestDB(t)
	projectLogic := NewProjectLogic(db)
	project := createTestProject(t, db, "1")

	tokenLogic := NewTokenAccountLogic(db, config.TokenConfig{})
	milestoneLogic := NewMilestoneLogic(db)
	fundLogic := NewFundLogic(db, tokenLogic, milestoneLogic, &fakeSender{}, config.TokenConfig{})

	_, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.25"))
	require.NoError(t, err)
	_, err = fundLogic.RecordContribution(project.Id, "0xalice", "0xtx2", decimal.RequireFromString("0.25"))
	require.NoError(t, err)
	_, err = fundLogic.RecordContribution(project.Id, "0xbob", "0xtx3", decimal.RequireFromString("0.25"))
	require.NoError(t, err)

	stats, err := projectLogic.GetProjectStats(project.Id)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats["contributor_count"])
	require.Equal(t, int64(3), stats["contribution_count"])
	requireDecimalEqual(t, "75", stats["completion_percentage"].(decimal.Decimal))
	requireDecimalEqual(t, "0.75", stats["funded_amount"].(decimal.Decimal))
}
