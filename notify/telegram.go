// Package notify 把平仓事件推送到外部通知渠道
package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nof1/trader"
)

// TelegramNotifier 把平仓事件推送到 Telegram。
// 通知只做尽力而为，失败只记日志，绝不阻断交易流程。
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier 创建 Telegram 通知器，token 校验失败返回错误
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("初始化 Telegram Bot 失败: %w", err)
	}
	log.Printf("✅ [通知] Telegram Bot 已连接: @%s", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// NotifyClose 实现 trader.Notifier
func (n *TelegramNotifier) NotifyClose(event trader.CloseEvent) {
	msg := tgbotapi.NewMessage(n.chatID, formatCloseEvent(event))
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("⚠️ [通知] Telegram 推送失败: %v", err)
	}
}

// formatCloseEvent 生成人读的平仓通知文本
func formatCloseEvent(event trader.CloseEvent) string {
	sideLabel := "多"
	if event.Side == "short" {
		sideLabel = "空"
	}

	switch event.Trigger {
	case trader.TriggerStopLoss:
		return fmt.Sprintf(
			"🚨 代码级止损平仓\n币种: %s（%s单）\n数量: %v\n成交价: %v\n盈亏: %.4f USDT（%.2f%%）\n风险等级: %s（阈值 %.2f%%）",
			event.Symbol, sideLabel, event.Quantity, event.FillPrice,
			event.Pnl, event.PnlPercent, event.RiskLevel, event.ThresholdPercent)
	case trader.TriggerTrailingStop:
		return fmt.Sprintf(
			"🎯 代码级移动止盈平仓\n币种: %s（%s单）\n数量: %v\n成交价: %v\n盈亏: %.4f USDT（%.2f%%）\n峰值盈利: %.2f%%\n回撤: %.2f%%（%s阈值 %.2f%%）",
			event.Symbol, sideLabel, event.Quantity, event.FillPrice,
			event.Pnl, event.PnlPercent, event.PeakPnlPercent,
			event.DrawdownPercent, event.Stage, event.ThresholdPercent)
	default:
		return fmt.Sprintf("ℹ️ 风控平仓: %s（%s单）成交价 %v 盈亏 %.4f USDT",
			event.Symbol, sideLabel, event.FillPrice, event.Pnl)
	}
}
