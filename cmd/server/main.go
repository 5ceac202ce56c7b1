// Package main 是应用程序入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Treessss/CaseLedger/internal/common/cache"
	"github.com/Treessss/CaseLedger/internal/common/config"
	"github.com/Treessss/CaseLedger/internal/common/database"
	"github.com/Treessss/CaseLedger/internal/common/logger"
	"github.com/Treessss/CaseLedger/internal/common/metrics"
	"github.com/Treessss/CaseLedger/internal/models"
	"github.com/Treessss/CaseLedger/internal/repository"
	"github.com/Treessss/CaseLedger/internal/scheduler"
	"github.com/Treessss/CaseLedger/internal/service/exchange"
)

func main() {
	// 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.GetLogger()

	log.Info("Starting CaseLedger",
		zap.String("version", "1.0.0"),
		zap.String("env", cfg.Server.Mode),
	)

	// 初始化数据库连接
	db, err := database.Init(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// 自动迁移表结构
	if err := db.AutoMigrate(
		&models.Account{},
		&models.Recharge{},
		&models.Consumption{},
		&models.OrderCost{},
		&models.OrderCostBatch{},
		&models.Order{},
		&models.Expense{},
		&models.FeeConfig{},
	); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 初始化 Redis 连接
	redisClient, err := cache.Init(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Redis connected successfully")

	// 写入默认手续费配置
	rateService := exchange.NewRateService(&cfg.ExchangeRate, redisClient)
	feeService := exchange.NewFeeService(repository.NewFeeConfigRepository(db), rateService)
	if err := feeService.SeedDefaults(context.Background()); err != nil {
		log.Warn("Failed to seed fee configs", zap.Error(err))
	}

	// 初始化指标
	metrics.Init(cfg.Server.Name)

	// 设置 Gin 模式
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Mode == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 创建 Gin 引擎
	engine := gin.New()

	// 设置路由
	setupRouter(engine, cfg, log, db, redisClient)

	// 启动定时任务
	taskHandler := scheduler.NewTaskHandler(repository.NewAccountRepository(db), rateService)
	sched := scheduler.NewScheduler()
	scheduler.SetupTasks(sched, taskHandler, cfg)
	sched.Start()

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Info("HTTP server starting",
			zap.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	sched.Stop()

	// 创建超时上下文用于优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// 关闭数据库连接
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}

	log.Info("Server exited")
}
