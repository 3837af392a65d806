package logic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/blues/mfs/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRecordContribution(t *testing.T) {
	db, tokenLogic, _, _, fundLogic := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")

	minted, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.01"))
	require.NoError(t, err)
	require.Equal(t, int64(1000), minted)

	// 流水、筹款金额、锁定金额、代币余额同事务生效
	var stored model.ProjectModel
	require.NoError(t, db.First(&stored, project.Id).Error)
	requireDecimalEqual(t, "0.01", stored.FundedAmount)
	requireDecimalEqual(t, "0.01", stored.LockedAmount)

	balance, err := tokenLogic.BalanceOf("0xalice")
	require.NoError(t, err)
	require.Equal(t, int64(1000), balance)

	records, total, err := fundLogic.GetProjectContributions(project.Id, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	require.Equal(t, "0xtx1", records[0].TxHash)
}

func TestRecordContributionAccumulatesExactly(t *testing.T) {
	db, _, _, _, fundLogic := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")

	_, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.01"))
	require.NoError(t, err)
	_, err = fundLogic.RecordContribution(project.Id, "0xbob", "0xtx2", decimal.RequireFromString("0.01"))
	require.NoError(t, err)

	// 两笔 0.01 的和必须精确等于 0.02
	var stored model.ProjectModel
	require.NoError(t, db.First(&stored, project.Id).Error)
	requireDecimalEqual(t, "0.02", stored.FundedAmount)

	total, err := fundLogic.FundingTotal(project.Id)
	require.NoError(t, err)
	requireDecimalEqual(t, "0.02", total)
	require.True(t, stored.FundedAmount.Equal(total))
}

func TestRecordContributionDuplicateTxHash(t *testing.T) {
	db, tokenLogic, _, _, fundLogic := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")

	_, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.01"))
	require.NoError(t, err)

	// 重复哈希整体回滚：不加金额、不铸代币
	_, err = fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.01"))
	require.ErrorIs(t, err, ErrDuplicateTransaction)

	var stored model.ProjectModel
	require.NoError(t, db.First(&stored, project.Id).Error)
	requireDecimalEqual(t, "0.01", stored.FundedAmount)

	balance, err := tokenLogic.BalanceOf("0xalice")
	require.NoError(t, err)
	require.Equal(t, int64(1000), balance)
}

func TestRecordContributionBelowMintUnit(t *testing.T) {
	db, _, _, _, fundLogic := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")

	// 不足一个铸造单位的贡献整笔失败
	_, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.0004"))
	require.ErrorIs(t, err, ErrInvalidAmount)

	var stored model.ProjectModel
	require.NoError(t, db.First(&stored, project.Id).Error)
	require.True(t, stored.FundedAmount.IsZero())

	_, total, err := fundLogic.GetProjectContributions(project.Id, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(0), total)
}

func TestRecordContributionValidation(t *testing.T) {
	db, _, _, _, fundLogic := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")

	_, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = fundLogic.RecordContribution(project.Id, "", "0xtx1", decimal.RequireFromString("0.01"))
	require.Error(t, err)

	_, err = fundLogic.RecordContribution(project.Id, "0xalice", "", decimal.RequireFromString("0.01"))
	require.Error(t, err)

	_, err = fundLogic.RecordContribution(9999, "0xalice", "0xtx1", decimal.RequireFromString("0.01"))
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestRecordContributionCompletesProject(t *testing.T) {
	db, _, _, _, fundLogic := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "0.01")

	_, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.01"))
	require.NoError(t, err)

	var stored model.ProjectModel
	require.NoError(t, db.First(&stored, project.Id).Error)
	require.Equal(t, model.ProjectStatusCompleted, stored.Status)

	// 已完成项目拒绝新贡献
	_, err = fundLogic.RecordContribution(project.Id, "0xbob", "0xtx2", decimal.RequireFromString("0.01"))
	require.ErrorIs(t, err, ErrProjectNotActive)
}

// approveMilestone 通过投票把里程碑推到 approved
func approveMilestone(t *testing.T, tokenLogic *TokenAccountLogic, voteLogic *VoteLogic, milestoneId int64) {
	t.Helper()

	mintFor(t, tokenLogic, "0xapprover", 100)
	_, status, err := voteLogic.CastVote(milestoneId, "0xapprover", true, 100)
	require.NoError(t, err)
	require.Equal(t, model.MilestoneStatusApproved, status)
}

func TestRecordRelease(t *testing.T) {
	sender := &fakeSender{txHash: "0xrelease"}
	db, tokenLogic, milestoneLogic, voteLogic, fundLogic := newTestLogics(t, sender)
	project := createTestProject(t, db, "1")
	milestone := createTestMilestone(t, db, project.Id, "0.5")

	_, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	approveMilestone(t, tokenLogic, voteLogic, milestone.Id)

	txHash, err := fundLogic.RecordRelease(context.Background(), milestone.Id, "0xcreator", decimal.RequireFromString("0.25"))
	require.NoError(t, err)
	require.Equal(t, "0xrelease", txHash)
	require.Equal(t, 1, sender.calls)

	// 里程碑进入 released 终态并带上转账哈希
	stored, err := milestoneLogic.GetMilestone(milestone.Id)
	require.NoError(t, err)
	require.Equal(t, model.MilestoneStatusReleased, stored.Status)
	require.Equal(t, "0xrelease", stored.ReleaseTxHash)
	require.NotNil(t, stored.ReleasedAt)

	// 锁定金额扣减，筹款金额不变
	var storedProject model.ProjectModel
	require.NoError(t, db.First(&storedProject, project.Id).Error)
	requireDecimalEqual(t, "0.25", storedProject.LockedAmount)
	requireDecimalEqual(t, "0.5", storedProject.FundedAmount)

	records, total, err := fundLogic.GetProjectTransactions(project.Id, string(model.TransactionTypeRelease), 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, milestone.Id, records[0].MilestoneId)
}

func TestRecordReleaseNotApproved(t *testing.T) {
	sender := &fakeSender{txHash: "0xrelease"}
	db, tokenLogic, _, voteLogic, fundLogic := newTestLogics(t, sender)
	project := createTestProject(t, db, "1")
	milestone := createTestMilestone(t, db, project.Id, "0.5")

	_, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.5"))
	require.NoError(t, err)

	// pending 状态拒绝释放
	_, err = fundLogic.RecordRelease(context.Background(), milestone.Id, "0xcreator", decimal.RequireFromString("0.25"))
	require.ErrorIs(t, err, ErrNotApproved)

	// 投票未过半时仍是 voting，同样拒绝
	mintFor(t, tokenLogic, "0xbob", 100)
	_, _, err = voteLogic.CastVote(milestone.Id, "0xbob", false, 50)
	require.NoError(t, err)

	_, err = fundLogic.RecordRelease(context.Background(), milestone.Id, "0xcreator", decimal.RequireFromString("0.25"))
	require.ErrorIs(t, err, ErrNotApproved)
	require.Equal(t, 0, sender.calls)
}

func TestRecordReleaseExceedsAllocation(t *testing.T) {
	sender := &fakeSender{txHash: "0xrelease"}
	db, tokenLogic, _, voteLogic, fundLogic := newTestLogics(t, sender)
	project := createTestProject(t, db, "1")
	milestone := createTestMilestone(t, db, project.Id, "0.25")

	_, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	approveMilestone(t, tokenLogic, voteLogic, milestone.Id)

	_, err = fundLogic.RecordRelease(context.Background(), milestone.Id, "0xcreator", decimal.RequireFromString("0.5"))
	require.ErrorIs(t, err, ErrExceedsAllocation)
	require.Equal(t, 0, sender.calls)
}

func TestRecordReleaseInsufficientLockedFunds(t *testing.T) {
	sender := &fakeSender{txHash: "0xrelease"}
	db, tokenLogic, _, voteLogic, fundLogic := newTestLogics(t, sender)
	project := createTestProject(t, db, "1")
	milestone := createTestMilestone(t, db, project.Id, "0.5")

	// 只筹到 0.25，分配额 0.5 的全额释放超出锁定资金
	_, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.25"))
	require.NoError(t, err)
	approveMilestone(t, tokenLogic, voteLogic, milestone.Id)

	_, err = fundLogic.RecordRelease(context.Background(), milestone.Id, "0xcreator", decimal.RequireFromString("0.5"))
	require.ErrorIs(t, err, ErrInsufficientLockedFunds)
	require.Equal(t, 0, sender.calls)
}

func TestRecordReleaseToleranceCoversFees(t *testing.T) {
	sender := &fakeSender{txHash: "0xrelease"}
	db, tokenLogic, _, voteLogic, fundLogic := newTestLogics(t, sender)
	project := createTestProject(t, db, "1")
	milestone := createTestMilestone(t, db, project.Id, "0.5")

	_, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.25"))
	require.NoError(t, err)
	approveMilestone(t, tokenLogic, voteLogic, milestone.Id)

	// 超出锁定资金但在容差 0.0005 之内，放行
	_, err = fundLogic.RecordRelease(context.Background(), milestone.Id, "0xcreator", decimal.RequireFromString("0.2504"))
	require.NoError(t, err)
	require.Equal(t, 1, sender.calls)

	// 扣减下限为0，不出现负的锁定金额
	var storedProject model.ProjectModel
	require.NoError(t, db.First(&storedProject, project.Id).Error)
	require.False(t, storedProject.LockedAmount.IsNegative())
}

func TestRecordReleaseSenderFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("节点不可达")}
	db, tokenLogic, milestoneLogic, voteLogic, fundLogic := newTestLogics(t, sender)
	project := createTestProject(t, db, "1")
	milestone := createTestMilestone(t, db, project.Id, "0.5")

	_, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	approveMilestone(t, tokenLogic, voteLogic, milestone.Id)

	_, err = fundLogic.RecordRelease(context.Background(), milestone.Id, "0xcreator", decimal.RequireFromString("0.25"))
	require.Error(t, err)

	// 转账失败不落任何可见状态
	stored, err := milestoneLogic.GetMilestone(milestone.Id)
	require.NoError(t, err)
	require.Equal(t, model.MilestoneStatusApproved, stored.Status)

	var storedProject model.ProjectModel
	require.NoError(t, db.First(&storedProject, project.Id).Error)
	requireDecimalEqual(t, "0.5", storedProject.LockedAmount)

	_, total, err := fundLogic.GetProjectTransactions(project.Id, string(model.TransactionTypeRelease), 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(0), total)
}

func TestRecordReleaseAlreadyReleased(t *testing.T) {
	sender := &fakeSender{txHash: "0xrelease"}
	db, tokenLogic, _, voteLogic, fundLogic := newTestLogics(t, sender)
	project := createTestProject(t, db, "1")
	milestone := createTestMilestone(t, db, project.Id, "0.5")

	_, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	approveMilestone(t, tokenLogic, voteLogic, milestone.Id)

	_, err = fundLogic.RecordRelease(context.Background(), milestone.Id, "0xcreator", decimal.RequireFromString("0.25"))
	require.NoError(t, err)

	// 重复释放被终态拦截，不再触发转账
	_, err = fundLogic.RecordRelease(context.Background(), milestone.Id, "0xcreator", decimal.RequireFromString("0.25"))
	require.ErrorIs(t, err, ErrAlreadyReleased)
	require.Equal(t, 1, sender.calls)
}

func TestRecordReleaseConcurrentSingleWinner(t *testing.T) {
	sender := &fakeSender{txHash: "0xrelease"}
	db, tokenLogic, _, voteLogic, fundLogic := newTestLogics(t, sender)
	project := createTestProject(t, db, "1")
	milestone := createTestMilestone(t, db, project.Id, "0.5")

	_, err := fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	approveMilestone(t, tokenLogic, voteLogic, milestone.Id)

	// 两个并发的全额释放，抢占保证只有一个赢家走到转账
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = fundLogic.RecordRelease(context.Background(),
				milestone.Id, "0xcreator", decimal.RequireFromString("0.5"))
		}(i)
	}
	close(start)
	wg.Wait()

	var succeeded, blocked int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadyReleased):
			blocked++
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, blocked)
	require.Equal(t, 1, sender.calls)

	// 释放总额不超过分配额：只有一条释放流水
	var releaseCount int64
	require.NoError(t, db.Model(&model.TransactionModel{}).
		Where("milestone_id = ? AND type = ?", milestone.Id, model.TransactionTypeRelease).
		Count(&releaseCount).Error)
	require.Equal(t, int64(1), releaseCount)
}

func TestRecordContributionConcurrent(t *testing.T) {
	db, _, _, _, fundLogic := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "10")

	const workers = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = fundLogic.RecordContribution(project.Id, "0xalice",
				fmt.Sprintf("0xctx%d", i), decimal.RequireFromString("0.25"))
		}(i)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	// 任何交织下缓存列都等于流水汇总，单语句累加不丢更新
	var stored model.ProjectModel
	require.NoError(t, db.First(&stored, project.Id).Error)
	requireDecimalEqual(t, "2", stored.FundedAmount)

	total, err := fundLogic.FundingTotal(project.Id)
	require.NoError(t, err)
	require.True(t, stored.FundedAmount.Equal(total))
}

func TestRecordContributionConcurrentCompletesProject(t *testing.T) {
	db, _, _, _, fundLogic := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")

	// 四笔各自不达标的并发贡献共同跨过目标
	const workers = 4
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = fundLogic.RecordContribution(project.Id, "0xalice",
				fmt.Sprintf("0xcross%d", i), decimal.RequireFromString("0.25"))
		}(i)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	// 达标判定读库内累加结果，跨过目标的那笔一定会完成项目
	var stored model.ProjectModel
	require.NoError(t, db.First(&stored, project.Id).Error)
	requireDecimalEqual(t, "1", stored.FundedAmount)
	require.Equal(t, model.ProjectStatusCompleted, stored.Status)
}

func TestFundingTotalAuthoritative(t *testing.T) {
	db, _, _, _, fundLogic := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")

	total, err := fundLogic.FundingTotal(project.Id)
	require.NoError(t, err)
	require.True(t, total.IsZero())

	_, err = fundLogic.RecordContribution(project.Id, "0xalice", "0xtx1", decimal.RequireFromString("0.01"))
	require.NoError(t, err)
	_, err = fundLogic.RecordContribution(project.Id, "0xbob", "0xtx2", decimal.RequireFromString("0.25"))
	require.NoError(t, err)

	// 释放流水不计入筹款总额
	release := model.TransactionModel{
		ProjectId: project.Id,
		TxHash:    "0xrel",
		Address:   "0xcreator",
		Amount:    decimal.RequireFromString("0.1"),
		Type:      model.TransactionTypeRelease,
	}
	require.NoError(t, db.Create(&release).Error)

	total, err = fundLogic.FundingTotal(project.Id)
	require.NoError(t, err)
	requireDecimalEqual(t, "0.26", total)
}

func TestListTransactionsPagination(t *testing.T) {
	db, _, _, _, fundLogic := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")

	for i := 0; i < 5; i++ {
		_, err := fundLogic.RecordContribution(project.Id, "0xalice",
			fmt.Sprintf("0xtx%d", i), decimal.RequireFromString("0.01"))
		require.NoError(t, err)
	}

	records, total, err := fundLogic.GetProjectContributions(project.Id, 1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, records, 2)

	records, total, err = fundLogic.GetProjectContributions(project.Id, 3, 2)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, records, 1)
}
