package apis

import (
	"net/http"
	"path/filepath"
	"strings"

	"betting_assistant/controllers"
	"betting_assistant/pkg/history"
	"betting_assistant/pkg/middleware"
	"betting_assistant/pkg/mlb"
	"betting_assistant/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// Dependencies 路由依赖的组件
type Dependencies struct {
	Store            *history.Store
	Analyzer         controllers.Analyzer
	MLB              *mlb.Client
	WebSocket        *websocket.WebSocketManager
	Notifiers        []controllers.HistoryNotifier
	CredentialPrefix string
	FallbackKey      string // 服务端兜底API密钥
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	// 创建控制器实例
	historyController := controllers.NewHistoryController(deps.Store, deps.Notifiers...)
	analysisController := controllers.NewAnalysisController(deps.Analyzer, deps.Store, historyController, deps.FallbackKey)
	settingsController := controllers.NewSettingsController(deps.Store, deps.CredentialPrefix)
	eventsController := controllers.NewEventsController(deps.MLB)
	authController := &controllers.AuthController{}
	configController := controllers.NewConfigController()

	// 静态文件服务
	webBuildPath := "./web/build"

	r.Static("/static", filepath.Join(webBuildPath, "static"))
	r.StaticFile("/favicon.ico", filepath.Join(webBuildPath, "favicon.ico"))
	r.StaticFile("/manifest.json", filepath.Join(webBuildPath, "manifest.json"))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Betting Assistant API is running",
		})
	})

	r.Use(middleware.Cors())
	r.Use(middleware.AuthMiddleware())

	// WebSocket路由
	if deps.WebSocket != nil {
		r.GET("/ws", deps.WebSocket.HandleWebSocket)
	}

	// 认证路由
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/login", authController.Login) // 用户登录
	}

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 用户信息路由
		v1.GET("/user/profile", authController.GetProfile)

		// 分析路由
		v1.POST("/analyze", analysisController.Analyze)         // 只生成分析
		v1.POST("/analysis", analysisController.CreateAnalysis) // 生成并保存

		// 历史记录路由
		historyGroup := v1.Group("/history")
		{
			historyGroup.GET("", historyController.GetHistory)                // 筛选排序后的历史
			historyGroup.POST("", historyController.CreateRecord)             // 保存分析
			historyGroup.GET("/stats", historyController.GetStats)            // 统计汇总
			historyGroup.GET("/recent", historyController.GetRecent)          // 最近分析
			historyGroup.GET("/:id", historyController.GetRecord)             // 单条分析
			historyGroup.PUT("/:id/outcome", historyController.UpdateOutcome) // 更新结果
		}

		// 首页
		v1.GET("/dashboard", historyController.GetDashboard)

		// MLB数据路由
		mlbGroup := v1.Group("/mlb")
		{
			mlbGroup.GET("/schedule", eventsController.GetSchedule) // 赛程
			mlbGroup.GET("/stats", eventsController.GetStats)       // 赛季统计
		}
		v1.GET("/events/upcoming", eventsController.GetUpcoming) // 即将开始的赛事

		// API密钥设置路由
		settings := v1.Group("/settings")
		{
			settings.GET("/credential", settingsController.GetCredential)
			settings.PUT("/credential", settingsController.SaveCredential)
			settings.DELETE("/credential", settingsController.ClearCredential)
		}

		// 系统配置路由
		v1.GET("/config", configController.GetSystemConfig)

		if deps.WebSocket != nil {
			v1.GET("/ws/stats", deps.WebSocket.GetStats) // WebSocket连接统计
		}
	}

	// 服务前端应用（SPA路由）
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}

		c.File(filepath.Join(webBuildPath, "index.html"))
	})
}
