package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nof1/api"
	"nof1/config"
	"nof1/exchange"
	"nof1/market"
	"nof1/notify"
	"nof1/store"
	"nof1/strategy"
	"nof1/trader"
)

func main() {
	log.Println("🚀 持仓风险监控启动")

	cfg := config.Load()

	profile := strategy.GetProfile(cfg.TradingStrategy)
	log.Printf("📌 交易策略: %s（%s）", profile.Name, profile.Key)

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("🚨 数据库初始化失败: %v", err)
	}
	defer st.Close()

	client := exchange.NewBinanceClient(cfg.BinanceAPIKey, cfg.BinanceSecretKey)

	prices := market.NewMarkPriceMonitor()
	prices.Start()

	var notifier trader.Notifier
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("⚠️ Telegram 通知不可用: %v", err)
		} else {
			notifier = tg
		}
	}

	stopLoss := trader.NewStopLossMonitor(profile, client, st, notifier)
	trailing := trader.NewTrailingStopMonitor(profile, client, st, notifier)
	stopLoss.Start()
	trailing.Start()

	server := api.NewServer(api.Config{
		Port:         cfg.APIPort,
		JWTSecret:    cfg.APIJWTSecret,
		PasswordHash: cfg.APIPasswordHash,
	}, st, prices, stopLoss, trailing)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("🚨 API 服务异常退出: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 收到退出信号，开始优雅关闭")

	trailing.Stop()
	stopLoss.Stop()
	prices.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ API 服务关闭超时: %v", err)
	}

	log.Println("👋 持仓风险监控已退出")
}
