// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Treessss/CaseLedger/internal/common/config"
	"github.com/Treessss/CaseLedger/internal/common/metrics"
	"github.com/Treessss/CaseLedger/internal/handler/api"
	"github.com/Treessss/CaseLedger/internal/middleware"
	"github.com/Treessss/CaseLedger/internal/repository"
	"github.com/Treessss/CaseLedger/internal/service/exchange"
	expenseService "github.com/Treessss/CaseLedger/internal/service/expense"
	ledgerService "github.com/Treessss/CaseLedger/internal/service/ledger"
	orderService "github.com/Treessss/CaseLedger/internal/service/order"
	"github.com/Treessss/CaseLedger/internal/service/profit"
	"github.com/Treessss/CaseLedger/internal/service/settlement"
)

// setupRouter 设置路由
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) {
	// 初始化仓储
	accountRepo := repository.NewAccountRepository(db)
	rechargeRepo := repository.NewRechargeRepository(db)
	consumptionRepo := repository.NewConsumptionRepository(db)
	orderCostRepo := repository.NewOrderCostRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	feeConfigRepo := repository.NewFeeConfigRepository(db)

	// 初始化服务
	rateSvc := exchange.NewRateService(&cfg.ExchangeRate, redisClient)
	feeSvc := exchange.NewFeeService(feeConfigRepo, rateSvc)
	accountSvc := ledgerService.NewAccountService(db, accountRepo, rechargeRepo, consumptionRepo)
	transactionSvc := ledgerService.NewTransactionService(db, accountRepo, rechargeRepo, consumptionRepo)
	orderCostSvc := settlement.NewOrderCostService(db, orderCostRepo, accountRepo, consumptionRepo)
	orderSvc := orderService.NewOrderService(orderRepo)
	expenseSvc := expenseService.NewExpenseService(db, expenseRepo, orderRepo, accountRepo, consumptionRepo, rateSvc)
	profitSvc := profit.NewProfitService(orderRepo, orderCostRepo, expenseRepo, rateSvc)

	// 初始化处理器
	accountH := api.NewAccountHandler(accountSvc)
	transactionH := api.NewTransactionHandler(transactionSvc)
	orderCostH := api.NewOrderCostHandler(orderCostSvc)
	orderH := api.NewOrderHandler(orderSvc)
	expenseH := api.NewExpenseHandler(expenseSvc)
	exchangeH := api.NewExchangeHandler(rateSvc, feeSvc)
	reportH := api.NewReportHandler(profitSvc, expenseSvc, transactionSvc)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(nil))
	r.Use(middleware.AccessLog(logger))
	r.Use(metrics.GetMetrics().Middleware())
	if cfg.RateLimit.Enabled {
		r.Use(middleware.IPRateLimit(redisClient, cfg.RateLimit.RequestsPerSecond, time.Second))
	}

	// 健康检查
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// Prometheus 指标
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 账户
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountH.Create)
			accounts.GET("", accountH.List)
			accounts.GET("/platforms", accountH.Platforms)
			accounts.GET("/balances", accountH.PlatformBalances)
			accounts.GET("/:id", accountH.Get)
			accounts.PUT("/:id", accountH.Update)
			accounts.DELETE("/:id", accountH.Delete)
			accounts.GET("/:id/summary", accountH.Summary)
		}

		// 充值
		recharges := v1.Group("/recharges")
		{
			recharges.POST("", transactionH.CreateRecharge)
			recharges.GET("", transactionH.ListRecharges)
			recharges.GET("/methods", transactionH.RechargeMethods)
			recharges.POST("/:id/confirm", transactionH.ConfirmRecharge)
			recharges.POST("/:id/cancel", transactionH.CancelRecharge)
			recharges.DELETE("/:id", transactionH.DeleteRecharge)
		}

		// 消耗
		consumptions := v1.Group("/consumptions")
		{
			consumptions.POST("", transactionH.CreateConsumption)
			consumptions.GET("", transactionH.ListConsumptions)
			consumptions.GET("/types", transactionH.ConsumptionTypes)
			consumptions.DELETE("/:id", transactionH.DeleteConsumption)
		}

		// 订单成本
		orderCosts := v1.Group("/order-costs")
		{
			orderCosts.POST("", orderCostH.Create)
			orderCosts.POST("/batch", orderCostH.BatchCreate)
			orderCosts.GET("", orderCostH.List)
			orderCosts.GET("/summary", orderCostH.Summary)
			orderCosts.GET("/:id", orderCostH.Get)
			orderCosts.PUT("/:id", orderCostH.Update)
			orderCosts.DELETE("/:id", orderCostH.Delete)
			orderCosts.POST("/:id/confirm", orderCostH.Confirm)
			orderCosts.POST("/:id/cancel", orderCostH.Cancel)
		}

		// 成本批次
		batches := v1.Group("/order-cost-batches")
		{
			batches.GET("", orderCostH.ListBatches)
			batches.GET("/:batch_id", orderCostH.GetBatch)
			batches.GET("/:batch_id/costs", orderCostH.ListBatchCosts)
			batches.POST("/:batch_id/confirm", orderCostH.ConfirmBatch)
		}

		// 订单
		orders := v1.Group("/orders")
		{
			orders.POST("", orderH.Create)
			orders.GET("", orderH.List)
			orders.GET("/:id", orderH.Get)
			orders.PUT("/:id", orderH.Update)
			orders.DELETE("/:id", orderH.Delete)
		}

		// 支出
		expenses := v1.Group("/expenses")
		{
			expenses.POST("", expenseH.Create)
			expenses.POST("/batch-delete", expenseH.BatchDelete)
			expenses.GET("", expenseH.List)
			expenses.GET("/categories", expenseH.Categories)
			expenses.GET("/summary", expenseH.Summary)
			expenses.GET("/:id", expenseH.Get)
			expenses.PUT("/:id", expenseH.Update)
			expenses.DELETE("/:id", expenseH.Delete)
		}

		// 汇率
		exchangeGroup := v1.Group("/exchange")
		{
			exchangeGroup.GET("/rates", exchangeH.Rates)
			exchangeGroup.GET("/currencies", exchangeH.Currencies)
			exchangeGroup.GET("/rate", exchangeH.GetRate)
			exchangeGroup.GET("/convert", exchangeH.Convert)
			exchangeGroup.POST("/refresh", exchangeH.Refresh)
		}

		// 手续费配置
		feeConfigs := v1.Group("/fee-configs")
		{
			feeConfigs.POST("", exchangeH.CreateFeeConfig)
			feeConfigs.GET("", exchangeH.ListFeeConfigs)
			feeConfigs.GET("/:id", exchangeH.GetFeeConfig)
			feeConfigs.PUT("/:id", exchangeH.UpdateFeeConfig)
			feeConfigs.DELETE("/:id", exchangeH.DeleteFeeConfig)
			feeConfigs.GET("/:id/calculate", exchangeH.CalculateFee)
		}

		// 报表
		reports := v1.Group("/reports")
		{
			reports.GET("/profit", reportH.Profit)
			reports.GET("/financial-summary", reportH.Profit)
			reports.GET("/daily", reportH.Daily)
			reports.GET("/monthly", reportH.Monthly)
			reports.GET("/order-profits", reportH.OrderProfits)
			reports.GET("/order-profit/:order_number", reportH.OrderProfit)
			reports.GET("/expense-summary", reportH.ExpenseSummary)
			reports.GET("/consumption-summary", reportH.ConsumptionSummary)
		}
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    404,
			"message": "接口不存在",
		})
	})
}
