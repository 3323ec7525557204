package controllers

import (
	"net/http"

	"betting_assistant/pkg/config"

	"github.com/gin-gonic/gin"
)

// ConfigController 系统配置控制器
type ConfigController struct{}

// NewConfigController 创建配置控制器
func NewConfigController() *ConfigController {
	return &ConfigController{}
}

// SystemConfigResponse 系统配置响应，不包含任何密钥
type SystemConfigResponse struct {
	StorageDriver     string `json:"storage_driver"`      // 存储驱动: redis, mysql, memory
	Model             string `json:"model"`               // 分析使用的模型
	CredentialPrefix  string `json:"credential_prefix"`   // API密钥前缀要求
	ServerCredential  bool   `json:"server_credential"`   // 是否配置了服务端兜底密钥
	MLBCacheTTL       string `json:"mlb_cache_ttl"`       // MLB数据缓存时间
	TelegramConfigured bool   `json:"telegram_configured"` // 是否配置了Telegram通知
}

// GetSystemConfig 获取系统配置
func (c *ConfigController) GetSystemConfig(ctx *gin.Context) {
	cfg := config.GlobalConfig

	response := SystemConfigResponse{
		StorageDriver:     cfg.StorageDriver,
		Model:             cfg.OpenAIModel,
		CredentialPrefix:  cfg.CredentialPrefix,
		ServerCredential:  cfg.OpenAIAPIKey != "",
		MLBCacheTTL:       cfg.MLBCacheTTL.String(),
		TelegramConfigured: cfg.TelegramBotToken != "",
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": response,
	})
}
