package store

import (
	"database/sql"
	"fmt"
)

// PositionRow positions 表的一行（进程侧的持仓镜像，交易所数据为准）
type PositionRow struct {
	Symbol         string
	Side           string
	Quantity       float64
	EntryPrice     float64
	Leverage       int
	PeakPnlPercent float64
	OpenedAt       string
}

// PositionPeak 返回某交易对已持久化的峰值盈利百分比
func (s *Store) PositionPeak(symbol string) (float64, bool, error) {
	var peak float64
	err := s.db.QueryRow(`SELECT peak_pnl_percent FROM positions WHERE symbol = ?`, symbol).Scan(&peak)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return peak, true, nil
}

// UpdatePositionPeak 持久化峰值盈利（进程重启后移动止盈保护不回退）
func (s *Store) UpdatePositionPeak(symbol string, peak float64) error {
	if _, err := s.db.Exec(`UPDATE positions SET peak_pnl_percent = ? WHERE symbol = ?`, peak, symbol); err != nil {
		return fmt.Errorf("更新峰值盈利失败: %w", err)
	}
	return nil
}

// UpsertPosition 写入或覆盖持仓镜像行（开仓路径使用）
func (s *Store) UpsertPosition(p *PositionRow) error {
	_, err := s.db.Exec(
		`INSERT INTO positions (symbol, side, quantity, entry_price, leverage, peak_pnl_percent, opened_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(symbol) DO UPDATE SET
			side = excluded.side,
			quantity = excluded.quantity,
			entry_price = excluded.entry_price,
			leverage = excluded.leverage,
			opened_at = excluded.opened_at`,
		p.Symbol, p.Side, p.Quantity, p.EntryPrice, p.Leverage, p.PeakPnlPercent, p.OpenedAt,
	)
	if err != nil {
		return fmt.Errorf("写入持仓记录失败: %w", err)
	}
	return nil
}

// DeletePosition 删除持仓镜像行（平仓后调用）
func (s *Store) DeletePosition(symbol string) error {
	if _, err := s.db.Exec(`DELETE FROM positions WHERE symbol = ?`, symbol); err != nil {
		return fmt.Errorf("删除持仓记录失败: %w", err)
	}
	return nil
}

// Positions 返回全部持仓镜像行
func (s *Store) Positions() ([]*PositionRow, error) {
	rows, err := s.db.Query(
		`SELECT symbol, side, quantity, entry_price, leverage, peak_pnl_percent, opened_at FROM positions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*PositionRow
	for rows.Next() {
		p := &PositionRow{}
		if err := rows.Scan(&p.Symbol, &p.Side, &p.Quantity, &p.EntryPrice, &p.Leverage,
			&p.PeakPnlPercent, &p.OpenedAt); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}
