package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rbadmin/internal/database"
	"rbadmin/internal/rbac"
	"rbadmin/internal/router"
	"rbadmin/internal/services"
	"rbadmin/pkg/config"
	"rbadmin/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger := logger.GetLogger()
	appLogger.Info("Starting rbadmin...")

	// 初始化数据库
	if err := database.Initialize(cfg); err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			appLogger.Error("Failed to close database:", err)
		}
		if err := database.CloseRedisCache(); err != nil {
			appLogger.Error("Failed to close Redis:", err)
		}
	}()

	// 执行数据库迁移
	if err := database.Migrate(); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	// 执行种子数据初始化
	if err := seedData(); err != nil {
		appLogger.Fatalf("Failed to initialize seed data: %v", err)
	}

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	// 构建授权决策引擎
	policyStore := services.NewPolicyService(database.GetDB())
	enforcer := rbac.NewEnforcer(policyStore, cfg.RBAC.APIPrefix)

	// 延迟预热权限快照；预热前到达的请求会触发同步加载，不会误放行
	go func() {
		time.Sleep(time.Duration(cfg.RBAC.WarmupDelay) * time.Second)
		if err := enforcer.Reload(); err != nil {
			appLogger.Errorf("权限快照预热失败: %v", err)
		}
	}()

	// 定期对账：全量重载权限快照，收敛双写过程中可能的分歧
	resync := cron.New()
	if _, err := resync.AddFunc(cfg.RBAC.ResyncSpec, func() {
		if err := enforcer.Reload(); err != nil {
			appLogger.Errorf("权限快照定期对账失败: %v", err)
		}
	}); err != nil {
		appLogger.Fatalf("Failed to schedule policy resync: %v", err)
	}
	resync.Start()
	defer resync.Stop()

	// 设置路由
	r := router.SetupRouter(database.GetDB(), enforcer, database.GetRedisCache())

	// 启动服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	appLogger.Infof("Server started on port %s", cfg.Server.Port)

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	if err := server.Close(); err != nil {
		appLogger.Error("Server forced to shutdown:", err)
	}
	appLogger.Info("Server exited")
}
