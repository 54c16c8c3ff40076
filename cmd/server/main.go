package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/study-tracker-backend/api"
	"github.com/SlpAus/study-tracker-backend/internal/entry"
	"github.com/SlpAus/study-tracker-backend/internal/platform/config"
	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
	"github.com/SlpAus/study-tracker-backend/internal/platform/health"
	"github.com/SlpAus/study-tracker-backend/internal/platform/shutdown"
	"github.com/SlpAus/study-tracker-backend/internal/platform/startup"
	"github.com/SlpAus/study-tracker-backend/pkg/lifecycle"
	"github.com/SlpAus/study-tracker-backend/pkg/token"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env 仅用于本地开发，文件不存在时静默忽略
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("无法加载配置: %v", err))
	}

	token.GenerateSecretKey()
	database.InitDB(cfg.Database)
	database.InitRedis(cfg.Database.Redis)

	// 1. 阻塞式获取初始Run ID
	health.InitializeRunID()

	// 2. 执行应用首次启动初始化流程
	if err := startup.InitializeApplication(); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 3. 创建两阶段停机的生命周期管理器
	gracefulManager := lifecycle.NewManager()
	forcefulManager := lifecycle.NewManager()

	// 4. 启动保存事件处理器
	processorGraceful, err := gracefulManager.NewServiceHandle("entry-processor")
	if err != nil {
		panic(err)
	}
	processorForceful, err := forcefulManager.NewServiceHandle("entry-processor")
	if err != nil {
		panic(err)
	}
	if err := entry.StartEntryProcessor(processorGraceful, processorForceful); err != nil {
		panic(fmt.Sprintf("无法启动事件处理器: %v", err))
	}

	// 5. 阻塞式执行一次启动后健康检查，再异步启动持续检查器
	fmt.Println("正在执行启动后健康检查...")
	health.PerformCheck()
	go health.StartRedisHealthCheck()

	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	allowedOrigins := cfg.Server.Cors.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
		// 请求不允许无限期阻塞
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic("Failed to start server: " + err.Error())
		}
	}()

	// 阻塞等待停机信号，并编排完整的停机流程
	coordinator := shutdown.NewCoordinator(gracefulManager, forcefulManager)
	coordinator.ListenForSignalsAndShutdown(server)
}
