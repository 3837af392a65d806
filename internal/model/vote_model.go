package model

import (
	"time"
)

// VoteModel 投票记录，落库后不可变更
// (milestone_id, voter_address) 唯一索引是"一人一票"的唯一判定依据
type VoteModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	MilestoneId  int64  `json:"milestone_id" gorm:"not null;uniqueIndex:idx_vote_milestone_voter"`
	VoterAddress string `json:"voter_address" gorm:"not null;uniqueIndex:idx_vote_milestone_voter"`
	Approve      bool   `json:"approve"`
	VotingPower  int64  `json:"voting_power" gorm:"not null"`
}

// TableName 自定义表名
func (VoteModel) TableName() string {
	return "vote"
}
