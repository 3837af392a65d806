package handler

import (
	"errors"
	"net/http"

	"github.com/blues/mfs/internal/logic"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// FailWithError 业务错误映射到HTTP状态码后返回
func FailWithError(c *gin.Context, err error) {
	ErrorResponse(c, statusFromError(err), err.Error())
}

// statusFromError 业务错误到状态码的映射
func statusFromError(err error) int {
	switch {
	case errors.Is(err, logic.ErrProjectNotFound),
		errors.Is(err, logic.ErrMilestoneNotFound),
		errors.Is(err, logic.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, logic.ErrDuplicateVote),
		errors.Is(err, logic.ErrDuplicateTransaction):
		return http.StatusConflict
	case errors.Is(err, logic.ErrInsufficientBalance),
		errors.Is(err, logic.ErrInsufficientLockedFunds),
		errors.Is(err, logic.ErrNotApproved),
		errors.Is(err, logic.ErrAlreadyReleased),
		errors.Is(err, logic.ErrExceedsAllocation),
		errors.Is(err, logic.ErrVotingClosed),
		errors.Is(err, logic.ErrProjectNotActive):
		return http.StatusUnprocessableEntity
	case errors.Is(err, logic.ErrInvalidAmount),
		errors.Is(err, logic.ErrInvalidWeight):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
