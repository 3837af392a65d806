package logic

import "errors"

// 业务错误，handler 层据此映射HTTP状态码
var (
	// ErrInvalidAmount 金额非法（非正数、低于铸造单位等）
	ErrInvalidAmount = errors.New("金额无效")

	// ErrInvalidWeight 投票权重非法
	ErrInvalidWeight = errors.New("投票权重必须不小于1")

	// ErrInsufficientBalance 治理代币余额不足
	ErrInsufficientBalance = errors.New("治理代币余额不足")

	// ErrInsufficientLockedFunds 项目锁定资金不足以覆盖本次释放
	ErrInsufficientLockedFunds = errors.New("锁定资金不足")

	// ErrDuplicateVote 同一投票人对同一里程碑重复投票
	ErrDuplicateVote = errors.New("已经对该里程碑投过票")

	// ErrDuplicateTransaction 交易哈希已入账
	ErrDuplicateTransaction = errors.New("交易哈希已存在")

	// ErrNotApproved 里程碑未通过投票，不能释放资金
	ErrNotApproved = errors.New("里程碑尚未投票通过")

	// ErrAlreadyReleased 里程碑资金已经释放过
	ErrAlreadyReleased = errors.New("里程碑资金已释放")

	// ErrExceedsAllocation 释放金额超过里程碑分配金额
	ErrExceedsAllocation = errors.New("释放金额超过里程碑分配金额")

	// ErrVotingClosed 里程碑已进入终态，不再接受投票
	ErrVotingClosed = errors.New("里程碑已结束投票")

	// ErrProjectNotFound 项目不存在
	ErrProjectNotFound = errors.New("项目不存在")

	// ErrProjectNotActive 项目不在进行中
	ErrProjectNotActive = errors.New("项目不在进行中")

	// ErrMilestoneNotFound 里程碑不存在
	ErrMilestoneNotFound = errors.New("里程碑不存在")

	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("用户不存在")
)
