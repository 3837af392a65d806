package router

import (
	"github.com/blues/mfs/internal/handler"
	"github.com/gin-gonic/gin"
)

func Setup(
	userHandler *handler.UserHandler,
	projectHandler *handler.ProjectHandler,
	milestoneHandler *handler.MilestoneHandler,
	voteHandler *handler.VoteHandler,
	fundHandler *handler.FundHandler,
) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "milestone-funding-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 用户相关路由
		users := v1.Group("/users")
		{
			users.POST("/connect", userHandler.ConnectWallet)
		}

		// 治理代币账户
		v1.GET("/token-accounts/:address", userHandler.GetTokenBalance)

		// 项目相关路由
		projects := v1.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.DELETE("/:id", projectHandler.CancelProject)
			projects.GET("/:id/stats", projectHandler.GetProjectStats)

			projects.POST("/:id/contributions", fundHandler.Contribute)
			projects.GET("/:id/contributions", fundHandler.GetProjectContributions)
			projects.GET("/:id/transactions", fundHandler.GetProjectTransactions)
			projects.GET("/:id/funding-total", fundHandler.GetFundingTotal)

			projects.POST("/:id/milestones", milestoneHandler.CreateMilestone)
			projects.GET("/:id/milestones", milestoneHandler.GetProjectMilestones)
		}

		// 里程碑相关路由
		milestones := v1.Group("/milestones")
		{
			milestones.POST("/:id/votes", voteHandler.CastVote)
			milestones.GET("/:id/votes", voteHandler.GetMilestoneVotes)
			milestones.GET("/:id/votes/:address", voteHandler.HasVoted)
			milestones.GET("/:id/tally", voteHandler.GetTally)
			milestones.POST("/:id/reject", milestoneHandler.RejectMilestone)
			milestones.POST("/:id/release", milestoneHandler.ReleaseMilestone)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
