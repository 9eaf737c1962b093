package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// handleMonitor 返回两个监控器的运行状态与跟踪中的持仓
func (s *Server) handleMonitor(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stop_loss":     s.stopLoss.Status(),
		"trailing_stop": s.trailing.Status(),
	})
}

// handlePositions 返回持仓镜像行，并附上实时标记价格
func (s *Server) handlePositions(c *gin.Context) {
	rows, err := s.store.Positions()
	if err != nil {
		s.log.Error().Err(err).Msg("查询持仓失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询持仓失败"})
		return
	}

	type positionView struct {
		Symbol         string  `json:"symbol"`
		Side           string  `json:"side"`
		Quantity       float64 `json:"quantity"`
		EntryPrice     float64 `json:"entry_price"`
		Leverage       int     `json:"leverage"`
		PeakPnlPercent float64 `json:"peak_pnl_percent"`
		OpenedAt       string  `json:"opened_at"`
		MarkPrice      float64 `json:"mark_price,omitempty"`
	}

	views := make([]positionView, 0, len(rows))
	for _, row := range rows {
		v := positionView{
			Symbol:         row.Symbol,
			Side:           row.Side,
			Quantity:       row.Quantity,
			EntryPrice:     row.EntryPrice,
			Leverage:       row.Leverage,
			PeakPnlPercent: row.PeakPnlPercent,
			OpenedAt:       row.OpenedAt,
		}
		if s.prices != nil {
			if price, ok := s.prices.MarkPrice(row.Symbol); ok {
				v.MarkPrice = price
			}
		}
		views = append(views, v)
	}

	c.JSON(http.StatusOK, gin.H{"positions": views})
}

// handleTrades 返回最近的交易流水
func (s *Server) handleTrades(c *gin.Context) {
	limit := queryLimit(c, 50)
	trades, err := s.store.RecentTrades(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("查询交易流水失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询交易流水失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

// handleDecisions 返回最近的风控审计记录
func (s *Server) handleDecisions(c *gin.Context) {
	limit := queryLimit(c, 20)
	decisions, err := s.store.RecentDecisions(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("查询审计记录失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询审计记录失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": decisions})
}

func queryLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 500 {
		return fallback
	}
	return limit
}
