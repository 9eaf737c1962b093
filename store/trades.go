package store

import (
	"database/sql"
	"fmt"
)

// Trade trades 表的一行（开仓或平仓流水）
type Trade struct {
	ID        int64   `json:"id"`
	OrderID   string  `json:"order_id"`
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	Type      string  `json:"type"` // "open" / "close"
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
	Leverage  int     `json:"leverage"`
	Pnl       float64 `json:"pnl"`
	Fee       float64 `json:"fee"`
	Timestamp string  `json:"timestamp"`
	Status    string  `json:"status"` // "filled" / "pending"
}

// InsertTrade 追加一条交易流水
func (s *Store) InsertTrade(t *Trade) error {
	res, err := s.db.Exec(
		`INSERT INTO trades (order_id, symbol, side, type, price, quantity, leverage, pnl, fee, timestamp, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.OrderID, t.Symbol, t.Side, t.Type, t.Price, t.Quantity, t.Leverage, t.Pnl, t.Fee, t.Timestamp, t.Status,
	)
	if err != nil {
		return fmt.Errorf("写入交易记录失败: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		t.ID = id
	}
	s.log.WithField("symbol", t.Symbol).WithField("type", t.Type).Debug("交易记录已写入")
	return nil
}

// LatestCloseTrade 返回某交易对最近的一条平仓记录
func (s *Store) LatestCloseTrade(symbol string) (*Trade, error) {
	row := s.db.QueryRow(
		`SELECT id, order_id, symbol, side, type, price, quantity, leverage, pnl, fee, timestamp, status
		 FROM trades WHERE symbol = ? AND type = 'close' ORDER BY timestamp DESC, id DESC LIMIT 1`,
		symbol,
	)
	return scanTrade(row)
}

// LatestOpenTradeBefore 返回平仓时间点之前最近的一条开仓记录（用于配对修复）
func (s *Store) LatestOpenTradeBefore(symbol, timestamp string) (*Trade, error) {
	row := s.db.QueryRow(
		`SELECT id, order_id, symbol, side, type, price, quantity, leverage, pnl, fee, timestamp, status
		 FROM trades WHERE symbol = ? AND type = 'open' AND timestamp < ? ORDER BY timestamp DESC, id DESC LIMIT 1`,
		symbol, timestamp,
	)
	return scanTrade(row)
}

// PatchTrade 原地修正平仓记录的价格/盈亏/手续费（账本唯一允许的改写路径）
func (s *Store) PatchTrade(id int64, price, pnl, fee float64) error {
	if _, err := s.db.Exec(`UPDATE trades SET price = ?, pnl = ?, fee = ? WHERE id = ?`, price, pnl, fee, id); err != nil {
		return fmt.Errorf("修正交易记录失败: %w", err)
	}
	s.log.WithField("trade_id", id).Info("交易记录已修正")
	return nil
}

// RecentTrades 按时间倒序返回最近的交易流水
func (s *Store) RecentTrades(limit int) ([]*Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, order_id, symbol, side, type, price, quantity, leverage, pnl, fee, timestamp, status
		 FROM trades ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*Trade
	for rows.Next() {
		t := &Trade{}
		if err := rows.Scan(&t.ID, &t.OrderID, &t.Symbol, &t.Side, &t.Type, &t.Price, &t.Quantity,
			&t.Leverage, &t.Pnl, &t.Fee, &t.Timestamp, &t.Status); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func scanTrade(row *sql.Row) (*Trade, error) {
	t := &Trade{}
	err := row.Scan(&t.ID, &t.OrderID, &t.Symbol, &t.Side, &t.Type, &t.Price, &t.Quantity,
		&t.Leverage, &t.Pnl, &t.Fee, &t.Timestamp, &t.Status)
	if err == sql.ErrNoRows {
		return nil, ErrTradeNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
