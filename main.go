package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"betting_assistant/apis"
	"betting_assistant/controllers"
	"betting_assistant/pkg/config"
	"betting_assistant/pkg/database"
	"betting_assistant/pkg/history"
	"betting_assistant/pkg/mlb"
	"betting_assistant/pkg/openai"
	"betting_assistant/pkg/redis"
	"betting_assistant/pkg/storage"
	"betting_assistant/pkg/telegram"
	"betting_assistant/pkg/websocket"
	"betting_assistant/servers"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetLevel(logrus.InfoLevel)
	logrus.Info("启动投注分析助手...")

	// 加载配置
	config.LoadConfig()
	cfg := config.GlobalConfig

	// 初始化存储
	kv, cache, closeStorage, err := initStorage(cfg)
	if err != nil {
		logrus.Fatalf("存储初始化失败: %v", err)
	}

	store := history.NewStore(kv,
		history.WithHistoryKey(cfg.HistoryKey),
		history.WithCredentialKey(cfg.CredentialKey),
	)

	// 初始化Telegram客户端
	if err := telegram.InitTelegram(store); err != nil {
		logrus.Errorf("Telegram init fail: %v", err)
	}

	// 初始化WebSocket
	wsManager := websocket.InitializeGlobalWebSocketManager(store)

	notifiers := []controllers.HistoryNotifier{wsManager}
	if telegram.GlobalTelegramClient != nil {
		notifiers = append(notifiers, telegram.GlobalTelegramClient)
	}

	// 创建HTTP服务器
	server := servers.NewHTTPServer(apis.Dependencies{
		Store:            store,
		Analyzer:         openai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAITimeout),
		MLB:              mlb.NewClient(cfg.MLBBaseURL, cfg.MLBTimeout, cache, cfg.MLBCacheTTL),
		WebSocket:        wsManager,
		Notifiers:        notifiers,
		CredentialPrefix: cfg.CredentialPrefix,
		FallbackKey:      cfg.OpenAIAPIKey,
	})
	go server.Start()

	logrus.Info("投注分析助手启动完成!")
	if telegram.GlobalTelegramClient != nil {
		telegram.GlobalTelegramClient.SendServiceStatus("started", "投注分析助手已启动")
	}

	// 优雅关闭
	gracefulShutdown(server, closeStorage)
}

// initStorage 按 STORAGE_DRIVER 选择槽位存储，返回可选的MLB缓存
func initStorage(cfg *config.Config) (storage.KV, mlb.Cache, func(), error) {
	switch cfg.StorageDriver {
	case storage.DriverRedis:
		if err := redis.InitRedis(); err != nil {
			return nil, nil, nil, err
		}
		client := redis.GlobalRedisClient
		return client, client, func() { client.Close() }, nil

	case storage.DriverMySQL:
		db, err := database.InitMySQL(cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() { db.Close() }

		// MySQL 模式下 Redis 只用于缓存，连接失败时不缓存
		if err := redis.InitRedis(); err != nil {
			logrus.Warnf("Redis不可用，MLB数据不缓存: %v", err)
			return db, nil, closeFn, nil
		}
		client := redis.GlobalRedisClient
		return db, client, func() {
			closeFn()
			client.Close()
		}, nil

	case storage.DriverMemory:
		logrus.Warn("使用内存存储，重启后历史记录会丢失")
		return storage.NewMemoryKV(), nil, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("未知的存储驱动: %s", cfg.StorageDriver)
	}
}

// gracefulShutdown 优雅关闭
func gracefulShutdown(server *servers.HTTPServer, closeStorage func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("正在关闭投注分析助手...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP服务器关闭失败: %v", err)
	}

	if telegram.GlobalTelegramClient != nil {
		if err := telegram.GlobalTelegramClient.SendServiceStatus("stopped", "投注分析助手已关闭"); err != nil {
			logrus.Errorf("发送关闭通知失败: %v", err)
		}
		telegram.GlobalTelegramClient.Stop()
	}

	closeStorage()

	logrus.Info("投注分析助手已关闭")
}
