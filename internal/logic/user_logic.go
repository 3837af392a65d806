package logic

import (
	"errors"
	"fmt"

	"github.com/blues/mfs/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserLogic 用户业务逻辑
type UserLogic struct {
	db *gorm.DB
}

// NewUserLogic 创建用户业务逻辑
func NewUserLogic(db *gorm.DB) *UserLogic {
	return &UserLogic{db: db}
}

// ConnectWallet 钱包连接时幂等创建用户
// 以地址为键 upsert，并发的首次连接只会落一条记录
func (u *UserLogic) ConnectWallet(address, nickname string) (*model.UserModel, error) {
	if address == "" {
		return nil, errors.New("钱包地址不能为空")
	}

	user := model.UserModel{
		Address:  address,
		Nickname: nickname,
	}
	err := u.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoNothing: true,
	}).Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	// upsert 命中已有记录时重新读取，保证返回的是库内记录
	var stored model.UserModel
	if err := u.db.Where("address = ?", address).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("获取用户失败: %w", err)
	}

	return &stored, nil
}

// GetUserByAddress 按钱包地址获取用户
func (u *UserLogic) GetUserByAddress(address string) (*model.UserModel, error) {
	var user model.UserModel
	if err := u.db.Where("address = ?", address).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("获取用户失败: %w", err)
	}
	return &user, nil
}
