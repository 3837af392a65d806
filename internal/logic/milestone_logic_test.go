package logic

import (
	"testing"

	"github.com/blues/mfs/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCreateMilestone(t *testing.T) {
	db, _, milestoneLogic, _, _ := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")

	milestone := &model.MilestoneModel{
		ProjectId:       project.Id,
		Title:           "第一阶段",
		AmountAllocated: decimal.RequireFromString("0.5"),
	}
	require.NoError(t, milestoneLogic.CreateMilestone(milestone))
	require.Equal(t, model.MilestoneStatusPending, milestone.Status)
	require.NotZero(t, milestone.Id)
}

func TestCreateMilestoneValidation(t *testing.T) {
	db, _, milestoneLogic, _, _ := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")

	err := milestoneLogic.CreateMilestone(&model.MilestoneModel{
		Title:           "缺项目",
		AmountAllocated: decimal.RequireFromString("0.5"),
	})
	require.Error(t, err)

	err = milestoneLogic.CreateMilestone(&model.MilestoneModel{
		ProjectId:       project.Id,
		AmountAllocated: decimal.RequireFromString("0.5"),
	})
	require.Error(t, err)

	err = milestoneLogic.CreateMilestone(&model.MilestoneModel{
		ProjectId: project.Id,
		Title:     "零金额",
	})
	require.ErrorIs(t, err, ErrInvalidAmount)

	err = milestoneLogic.CreateMilestone(&model.MilestoneModel{
		ProjectId:       9999,
		Title:           "项目不存在",
		AmountAllocated: decimal.RequireFromString("0.5"),
	})
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestCreateMilestoneAllocationCap(t *testing.T) {
	db, _, milestoneLogic, _, _ := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")

	require.NoError(t, milestoneLogic.CreateMilestone(&model.MilestoneModel{
		ProjectId:       project.Id,
		Title:           "第一阶段",
		AmountAllocated: decimal.RequireFromString("0.75"),
	}))

	// 分配总和超过目标金额被拒绝
	err := milestoneLogic.CreateMilestone(&model.MilestoneModel{
		ProjectId:       project.Id,
		Title:           "第二阶段",
		AmountAllocated: decimal.RequireFromString("0.5"),
	})
	require.Error(t, err)

	// 刚好补齐到目标金额可以
	require.NoError(t, milestoneLogic.CreateMilestone(&model.MilestoneModel{
		ProjectId:       project.Id,
		Title:           "第二阶段",
		AmountAllocated: decimal.RequireFromString("0.25"),
	}))
}

func TestCreateMilestoneInactiveProject(t *testing.T) {
	db, _, milestoneLogic, _, _ := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")
	require.NoError(t, db.Model(project).Update("status", model.ProjectStatusCancelled).Error)

	err := milestoneLogic.CreateMilestone(&model.MilestoneModel{
		ProjectId:       project.Id,
		Title:           "第一阶段",
		AmountAllocated: decimal.RequireFromString("0.5"),
	})
	require.ErrorIs(t, err, ErrProjectNotActive)
}

func TestGetProjectMilestones(t *testing.T) {
	db, _, milestoneLogic, _, _ := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")
	createTestMilestone(t, db, project.Id, "0.25")
	createTestMilestone(t, db, project.Id, "0.25")

	milestones, err := milestoneLogic.GetProjectMilestones(project.Id)
	require.NoError(t, err)
	require.Len(t, milestones, 2)

	milestones, err = milestoneLogic.GetProjectMilestones(9999)
	require.NoError(t, err)
	require.Empty(t, milestones)
}

func TestRejectMilestone(t *testing.T) {
	db, tokenLogic, milestoneLogic, voteLogic, _ := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")

	// pending 可拒绝
	pending := createTestMilestone(t, db, project.Id, "0.25")
	require.NoError(t, milestoneLogic.RejectMilestone(pending.Id))
	stored, err := milestoneLogic.GetMilestone(pending.Id)
	require.NoError(t, err)
	require.Equal(t, model.MilestoneStatusRejected, stored.Status)

	// voting 可拒绝
	voting := createTestMilestone(t, db, project.Id, "0.25")
	mintFor(t, tokenLogic, "0xalice", 100)
	_, _, err = voteLogic.CastVote(voting.Id, "0xalice", false, 10)
	require.NoError(t, err)
	require.NoError(t, milestoneLogic.RejectMilestone(voting.Id))

	// rejected 终态，再拒绝报错
	require.ErrorIs(t, milestoneLogic.RejectMilestone(voting.Id), ErrVotingClosed)

	// approved 不可再拒绝
	approved := createTestMilestone(t, db, project.Id, "0.25")
	mintFor(t, tokenLogic, "0xbob", 100)
	_, _, err = voteLogic.CastVote(approved.Id, "0xbob", true, 100)
	require.NoError(t, err)
	require.ErrorIs(t, milestoneLogic.RejectMilestone(approved.Id), ErrVotingClosed)
}

func TestRejectMilestoneNotFound(t *testing.T) {
	_, _, milestoneLogic, _, _ := newTestLogics(t, &fakeSender{})
	require.ErrorIs(t, milestoneLogic.RejectMilestone(9999), ErrMilestoneNotFound)
}

func TestClaimReleaseRequiresApproved(t *testing.T) {
	db, _, milestoneLogic, _, _ := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")

	// 未通过投票的里程碑抢不到释放资格
	pending := createTestMilestone(t, db, project.Id, "0.25")
	require.ErrorIs(t, milestoneLogic.ClaimRelease(pending.Id), ErrNotApproved)

	require.ErrorIs(t, milestoneLogic.ClaimRelease(9999), ErrMilestoneNotFound)
}

func TestClaimReleaseSingleClaim(t *testing.T) {
	db, tokenLogic, milestoneLogic, voteLogic, _ := newTestLogics(t, &fakeSender{})
	project := createTestProject(t, db, "1")
	milestone := createTestMilestone(t, db, project.Id, "0.25")

	mintFor(t, tokenLogic, "0xalice", 100)
	_, _, err := voteLogic.CastVote(milestone.Id, "0xalice", true, 100)
	require.NoError(t, err)

	// 第一次抢占成功，第二次被终态拦下
	require.NoError(t, milestoneLogic.ClaimRelease(milestone.Id))
	require.ErrorIs(t, milestoneLogic.ClaimRelease(milestone.Id), ErrAlreadyReleased)

	// 回滚抢占后可以重新抢
	milestoneLogic.UnclaimRelease(milestone.Id)
	require.NoError(t, milestoneLogic.ClaimRelease(milestone.Id))
}
