// Package strategy 定义交易策略档案与代码级风控的分层阈值配置
package strategy

import "strings"

// StopLossTier 单个杠杆风险档位的止损配置
type StopLossTier struct {
	// MinLeverage 该档位的最低杠杆倍数（含）
	MinLeverage int
	// MaxLeverage 该档位的最高杠杆倍数（0 表示无上限）
	MaxLeverage int
	// ThresholdPercent 触发止损的亏损百分比（负值，已含杠杆）
	ThresholdPercent float64
	// Level 档位名称，用于日志与决策记录
	Level string
	// Description 人类可读描述
	Description string
}

// StopLossConfig groups the leverage-banded stop-loss tiers of a profile.
type StopLossConfig struct {
	LowRisk    StopLossTier
	MediumRisk StopLossTier
	HighRisk   StopLossTier
}

// TrailingStage 单个盈利阶段的移动止盈配置
type TrailingStage struct {
	// Name 阶段名称（阶段1..阶段5）
	Name string
	// MinProfit 进入该阶段所需的最低峰值盈利百分比（含）
	MinProfit float64
	// MaxProfit 该阶段的峰值盈利上限（0 表示无上限）
	MaxProfit float64
	// DrawdownPercent 从峰值回退多少个百分点时平仓
	DrawdownPercent float64
	// Description 人类可读描述
	Description string
}

// TrailingStopConfig holds the profit-staged trailing-stop tiers, ordered low to high.
type TrailingStopConfig struct {
	Stages []TrailingStage
}

// Profile describes one trading strategy and its optional code-level protection tables.
type Profile struct {
	// Key 策略标识符（与 TRADING_STRATEGY 环境变量对应）
	Key string
	// Name 中文名称
	Name string
	// Description 策略定位描述
	Description string
	// EnableCodeLevelProtection 是否启用代码级自动止损/移动止盈监控
	EnableCodeLevelProtection bool
	// CodeLevelStopLoss 杠杆分档止损配置（仅波段策略配置）
	CodeLevelStopLoss *StopLossConfig
	// CodeLevelTrailingStop 盈利分阶段移动止盈配置（仅波段策略配置）
	CodeLevelTrailingStop *TrailingStopConfig
}

var profiles = map[string]*Profile{
	"ultra-short": {
		Key:         "ultra-short",
		Name:        "超短线",
		Description: "3分钟执行周期，高频快进快出，由AI全程管理风险",
	},
	"swing-trend": {
		Key:                       "swing-trend",
		Name:                      "波段趋势",
		Description:               "20分钟执行周期，持仓可达数天，让利润充分奔跑",
		EnableCodeLevelProtection: true,
		CodeLevelStopLoss: &StopLossConfig{
			LowRisk: StopLossTier{
				MinLeverage:      5,
				MaxLeverage:      7,
				ThresholdPercent: -6,
				Level:            "低风险",
				Description:      "5-7倍杠杆，亏损 -6% 时止损",
			},
			MediumRisk: StopLossTier{
				MinLeverage:      8,
				MaxLeverage:      12,
				ThresholdPercent: -5,
				Level:            "中风险",
				Description:      "8-12倍杠杆，亏损 -5% 时止损",
			},
			HighRisk: StopLossTier{
				MinLeverage:      13,
				MaxLeverage:      0,
				ThresholdPercent: -4,
				Level:            "高风险",
				Description:      "13倍以上杠杆，亏损 -4% 时止损",
			},
		},
		CodeLevelTrailingStop: &TrailingStopConfig{
			Stages: []TrailingStage{
				{Name: "阶段1", MinProfit: 4, MaxProfit: 6, DrawdownPercent: 1.5, Description: "峰值4-6%，回退1.5%平仓（保底2.5%）"},
				{Name: "阶段2", MinProfit: 6, MaxProfit: 10, DrawdownPercent: 2, Description: "峰值6-10%，回退2%平仓（保底4%）"},
				{Name: "阶段3", MinProfit: 10, MaxProfit: 15, DrawdownPercent: 2.5, Description: "峰值10-15%，回退2.5%平仓（保底7.5%）"},
				{Name: "阶段4", MinProfit: 15, MaxProfit: 25, DrawdownPercent: 3, Description: "峰值15-25%，回退3%平仓（保底12%）"},
				{Name: "阶段5", MinProfit: 25, MaxProfit: 0, DrawdownPercent: 5, Description: "峰值25%+，回退5%平仓（保底20%）"},
			},
		},
	},
	"conservative": {
		Key:         "conservative",
		Name:        "保守",
		Description: "低杠杆低频率，优先保住本金",
	},
	"balanced": {
		Key:         "balanced",
		Name:        "平衡",
		Description: "默认策略，风险与收益均衡",
	},
	"aggressive": {
		Key:         "aggressive",
		Name:        "激进",
		Description: "高杠杆高频率，追求收益上限",
	},
}

// GetProfile 根据策略标识符返回策略档案；未知标识符回落到 balanced
func GetProfile(key string) *Profile {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if p, ok := profiles[normalized]; ok {
		return p
	}
	return profiles["balanced"]
}
