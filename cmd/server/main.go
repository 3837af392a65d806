package main

import (
	"github.com/blues/mfs/internal/chain"
	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/handler"
	"github.com/blues/mfs/internal/logger"
	"github.com/blues/mfs/internal/logic"
	"github.com/blues/mfs/internal/monitor"
	"github.com/blues/mfs/internal/repository"
	"github.com/blues/mfs/internal/router"
	"github.com/blues/mfs/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	initLogger(cfg.Log)
	defer logger.Sync()

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化账本转账客户端
	chainClient, err := chain.Init(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize chain client: %v", err)
	}

	// 组装业务逻辑
	userLogic := logic.NewUserLogic(db)
	projectLogic := logic.NewProjectLogic(db)
	tokenLogic := logic.NewTokenAccountLogic(db, cfg.Token)
	milestoneLogic := logic.NewMilestoneLogic(db)
	voteLogic := logic.NewVoteLogic(db, tokenLogic, milestoneLogic)
	fundLogic := logic.NewFundLogic(db, tokenLogic, milestoneLogic, chainClient, cfg.Token)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(
		handler.NewUserHandler(userLogic, tokenLogic),
		handler.NewProjectHandler(projectLogic, milestoneLogic),
		handler.NewMilestoneHandler(milestoneLogic, fundLogic),
		handler.NewVoteHandler(voteLogic),
		handler.NewFundHandler(fundLogic),
	)

	// 启动链上贡献事件监控
	contributionMonitor := monitor.NewContributionMonitor(chainClient, fundLogic)
	if err := contributionMonitor.Start(); err != nil {
		logger.Fatal("Failed to start contribution monitor: %v", err)
	}
	defer contributionMonitor.Stop()

	// 启动定时任务
	taskManager := task.Start(db, fundLogic, cfg)
	defer taskManager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

// initLogger 根据配置初始化默认日志器
func initLogger(cfg config.LogConfig) {
	level := logger.ParseLogLevel(cfg.Level)

	if cfg.Output == "file" && cfg.File != "" {
		fileLogger, err := logger.NewWithFileRotation(level, cfg.File)
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(fileLogger)
		return
	}

	stdLogger, err := logger.New(level)
	if err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	logger.SetDefaultLogger(stdLogger)
}
