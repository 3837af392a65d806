package logic

import (
	"context"
	"testing"

	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// setupTestDB 每个测试用例一个独立的内存库
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true,
		},
		TranslateError: true,
	})
	require.NoError(t, err)

	// 内存库限制单连接，避免连接池各自为政
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.UserModel{},
		&model.ProjectModel{},
		&model.MilestoneModel{},
		&model.VoteModel{},
		&model.TransactionModel{},
		&model.TokenAccountModel{},
	))

	return db
}

// fakeSender 账本转账服务测试替身
type fakeSender struct {
	txHash string
	err    error
	calls  int
}

func (f *fakeSender) Send(ctx context.Context, toAddress string, amount decimal.Decimal) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.txHash, nil
}

// newTestLogics 组装一套指向同一测试库的业务逻辑
func newTestLogics(t *testing.T, sender LedgerSender) (*gorm.DB, *TokenAccountLogic, *MilestoneLogic, *VoteLogic, *FundLogic) {
	t.Helper()

	db := setupTestDB(t)
	tokenLogic := NewTokenAccountLogic(db, config.TokenConfig{})
	milestoneLogic := NewMilestoneLogic(db)
	voteLogic := NewVoteLogic(db, tokenLogic, milestoneLogic)
	fundLogic := NewFundLogic(db, tokenLogic, milestoneLogic, sender, config.TokenConfig{})

	return db, tokenLogic, milestoneLogic, voteLogic, fundLogic
}

// createTestProject 建一个进行中的项目
func createTestProject(t *testing.T, db *gorm.DB, target string) *model.ProjectModel {
	t.Helper()

	project := &model.ProjectModel{
		Title:          "测试项目",
		TargetAmount:   decimal.RequireFromString(target),
		FundedAmount:   decimal.Zero,
		LockedAmount:   decimal.Zero,
		Status:         model.ProjectStatusActive,
		CreatorAddress: "0xcreator",
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

// createTestMilestone 在项目下建一个里程碑
func createTestMilestone(t *testing.T, db *gorm.DB, projectId int64, allocated string) *model.MilestoneModel {
	t.Helper()

	milestone := &model.MilestoneModel{
		ProjectId:       projectId,
		Title:           "测试里程碑",
		AmountAllocated: decimal.RequireFromString(allocated),
		Status:          model.MilestoneStatusPending,
	}
	require.NoError(t, db.Create(milestone).Error)
	return milestone
}

func requireDecimalEqual(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(expected).Equal(actual),
		"expected %s, got %s", expected, actual)
}
