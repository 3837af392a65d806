package handler

import (
	"net/http"

	"github.com/blues/mfs/internal/logic"
	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	userLogic  *logic.UserLogic
	tokenLogic *logic.TokenAccountLogic
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userLogic *logic.UserLogic, tokenLogic *logic.TokenAccountLogic) *UserHandler {
	return &UserHandler{
		userLogic:  userLogic,
		tokenLogic: tokenLogic,
	}
}

// ConnectWallet 钱包连接，幂等创建用户
func (h *UserHandler) ConnectWallet(c *gin.Context) {
	var req ConnectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userLogic.ConnectWallet(req.Address, req.Nickname)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "钱包连接成功", gin.H{"user": user})
}

// GetTokenBalance 查询治理代币余额
func (h *UserHandler) GetTokenBalance(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		ErrorResponse(c, http.StatusBadRequest, "无效的钱包地址")
		return
	}

	balance, err := h.tokenLogic.BalanceOf(address)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取代币余额成功", gin.H{
		"address": address,
		"balance": balance,
	})
}
