package strategy

import "errors"

// ErrNoTierConfig 当前策略没有配置对应的分层阈值表
var ErrNoTierConfig = errors.New("策略未配置代码级风控阈值")

// StopLossThresholdInfo 止损阈值查询结果
type StopLossThresholdInfo struct {
	ThresholdPercent float64
	Level            string
	Description      string
}

// DrawdownThresholdInfo 移动止盈回退阈值查询结果
type DrawdownThresholdInfo struct {
	// Armed 峰值盈利是否已达到最低阶段门槛；false 时阈值未生效
	Armed            bool
	ThresholdPercent float64
	Stage            string
	Description      string
}

// StopLossThreshold 根据杠杆倍数返回止损阈值。
// 从高风险档位向下匹配，杠杆越高止损线越紧（越接近零）。
func (p *Profile) StopLossThreshold(leverage int) (*StopLossThresholdInfo, error) {
	if p == nil || p.CodeLevelStopLoss == nil {
		return nil, ErrNoTierConfig
	}
	cfg := p.CodeLevelStopLoss

	if leverage >= cfg.HighRisk.MinLeverage {
		return &StopLossThresholdInfo{
			ThresholdPercent: cfg.HighRisk.ThresholdPercent,
			Level:            cfg.HighRisk.Level,
			Description:      cfg.HighRisk.Description,
		}, nil
	}

	if leverage >= cfg.MediumRisk.MinLeverage {
		return &StopLossThresholdInfo{
			ThresholdPercent: cfg.MediumRisk.ThresholdPercent,
			Level:            cfg.MediumRisk.Level,
			Description:      cfg.MediumRisk.Description,
		}, nil
	}

	return &StopLossThresholdInfo{
		ThresholdPercent: cfg.LowRisk.ThresholdPercent,
		Level:            cfg.LowRisk.Level,
		Description:      cfg.LowRisk.Description,
	}, nil
}

// DrawdownThreshold 根据峰值盈利返回移动止盈的回退阈值。
// 从最高阶段向下匹配，第一个峰值达标的阶段生效；
// 峰值低于最低阶段门槛时返回未生效的哨兵结果（继续跟踪，不触发）。
func (p *Profile) DrawdownThreshold(peakPnlPercent float64) (*DrawdownThresholdInfo, error) {
	if p == nil || p.CodeLevelTrailingStop == nil || len(p.CodeLevelTrailingStop.Stages) == 0 {
		return nil, ErrNoTierConfig
	}

	stages := p.CodeLevelTrailingStop.Stages
	for i := len(stages) - 1; i >= 0; i-- {
		if peakPnlPercent >= stages[i].MinProfit {
			return &DrawdownThresholdInfo{
				Armed:            true,
				ThresholdPercent: stages[i].DrawdownPercent,
				Stage:            stages[i].Name,
				Description:      stages[i].Description,
			}, nil
		}
	}

	return &DrawdownThresholdInfo{
		Armed:       false,
		Stage:       "未达到阈值",
		Description: "峰值盈利未达到最低阶段门槛，继续跟踪",
	}, nil
}
