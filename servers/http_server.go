package servers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"betting_assistant/apis"
	"betting_assistant/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type HTTPServer struct {
	engine *gin.Engine
	server *http.Server
	port   string
}

// NewHTTPServer 创建HTTP服务器
func NewHTTPServer(deps apis.Dependencies) *HTTPServer {
	// 设置Gin模式
	if config.GlobalConfig.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	// 设置路由
	apis.SetupRoutes(engine, deps)

	port := config.GlobalConfig.HTTPPort
	if port == "" {
		port = "8080"
	}

	return &HTTPServer{
		engine: engine,
		port:   port,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: engine,
		},
	}
}

// Start 启动HTTP服务器
func (s *HTTPServer) Start() {
	logrus.Infof("HTTP服务器启动在端口 %s", s.port)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Fatalf("HTTP服务器启动失败: %v", err)
	}
}

// Shutdown 等待进行中的请求完成后关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
