package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MySQL配置
	MySQLHost     string
	MySQLPort     string
	MySQLUser     string
	MySQLPassword string
	MySQLDB       string

	// 服务配置
	LogLevel string
	BaseURL  string
	HTTPPort string

	// 存储配置
	StorageDriver    string // 存储驱动: redis, mysql, memory
	HistoryKey       string // 历史记录槽位
	CredentialKey    string // API密钥槽位
	CredentialPrefix string // API密钥前缀校验，留空不校验

	// 认证配置
	AdminUsername string // 管理员用户名
	AdminPassword string // 管理员密码
	JWTSecret     string // JWT密钥

	// OpenAI配置
	OpenAIBaseURL string        // 接口地址
	OpenAIModel   string        // 模型
	OpenAIAPIKey  string        // 服务端兜底密钥，未在设置页保存时使用
	OpenAITimeout time.Duration // 请求超时

	// MLB数据配置
	MLBBaseURL  string        // statsapi 地址
	MLBTimeout  time.Duration // 请求超时
	MLBCacheTTL time.Duration // 缓存时间

	// Telegram配置
	TelegramBotToken string // 机器人Token，留空不启用
	TelegramChatID   int64  // 通知发送的聊天ID
}

var GlobalConfig *Config

func LoadConfig() {
	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		logrus.Warn("未找到.env文件，使用环境变量")
	}

	GlobalConfig = &Config{
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MySQLHost:     getEnv("MYSQL_HOST", "localhost"),
		MySQLPort:     getEnv("MYSQL_PORT", "3306"),
		MySQLUser:     getEnv("MYSQL_USER", "root"),
		MySQLPassword: getEnv("MYSQL_PASSWORD", ""),
		MySQLDB:       getEnv("MYSQL_DB", "betting_assistant"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		BaseURL:  getEnv("BASE_URL", "localhost"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		StorageDriver:    getEnv("STORAGE_DRIVER", "redis"),
		HistoryKey:       getEnv("HISTORY_KEY", "betting_history"),
		CredentialKey:    getEnv("CREDENTIAL_KEY", "openai_api_key"),
		CredentialPrefix: getEnvAllowEmpty("CREDENTIAL_PREFIX", "sk-"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		JWTSecret:     getEnv("JWT_SECRET", "d4f8c1b2e3f4a5b6c7d8e9f0a1b2c3d4e5f6g7h8i9j0k1l2m3n4o5p6q7r8s9t0"),

		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAITimeout: getEnvDuration("OPENAI_TIMEOUT", "60s"),

		MLBBaseURL:  getEnv("MLB_BASE_URL", "https://statsapi.mlb.com/api/v1"),
		MLBTimeout:  getEnvDuration("MLB_TIMEOUT", "10s"),
		MLBCacheTTL: getEnvDuration("MLB_CACHE_TTL", "5m"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvInt64("TELEGRAM_CHAT_ID", 0),
	}

	// 设置日志级别
	level, err := logrus.ParseLevel(GlobalConfig.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	logrus.WithField("storage", GlobalConfig.StorageDriver).Info("配置加载完成")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAllowEmpty 变量已设置时即使为空也采用
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.Warnf("无法解析环境变量 %s 的时间间隔值: %s，使用默认值: %s", key, value, defaultValue)
	}

	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}

	logrus.Errorf("无法解析默认时间间隔值: %s，使用15秒", defaultValue)
	return 15 * time.Second
}
