// Package config 负责加载进程级配置（.env + 环境变量）
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config 汇总风险监控进程需要的全部配置项
type Config struct {
	// TradingStrategy 当前激活的交易策略（决定是否启动代码级监控）
	TradingStrategy string
	// DatabasePath SQLite 数据库文件路径
	DatabasePath string

	// Binance USDT 本位合约 API 凭证
	BinanceAPIKey    string
	BinanceSecretKey string

	// 只读状态 API
	APIPort         int
	APIJWTSecret    string
	APIPasswordHash string // bcrypt 哈希，用于 /api/login

	// Telegram 风险事件推送（可选）
	TelegramBotToken string
	TelegramChatID   int64
}

// Load 读取 .env（如果存在）并构造配置，缺失项使用默认值
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("已加载 .env 配置文件")
	}

	return &Config{
		TradingStrategy:  getEnv("TRADING_STRATEGY", "balanced"),
		DatabasePath:     getEnv("DATABASE_PATH", "trading.db"),
		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceSecretKey: os.Getenv("BINANCE_SECRET_KEY"),
		APIPort:          getEnvInt("API_PORT", 8880),
		APIJWTSecret:     getEnv("API_JWT_SECRET", ""),
		APIPasswordHash:  os.Getenv("API_PASSWORD_HASH"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   getEnvInt64("TELEGRAM_CHAT_ID", 0),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
		log.Printf("⚠️  环境变量 %s=%q 不是合法整数，使用默认值 %d", key, v, fallback)
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
		log.Printf("⚠️  环境变量 %s=%q 不是合法整数，使用默认值 %d", key, v, fallback)
	}
	return fallback
}
