// Package store 管理交易、持仓与决策记录的 SQLite 账本
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var (
	// ErrTradeNotFound 查询不到符合条件的交易记录
	ErrTradeNotFound = errors.New("trade not found")
	// ErrPositionNotFound 查询不到持仓记录
	ErrPositionNotFound = errors.New("position not found")
)

// Store 封装 SQLite 连接与表结构
type Store struct {
	db  *sql.DB
	log *logrus.Entry
}

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id TEXT NOT NULL DEFAULT '',
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	type TEXT NOT NULL,
	price REAL NOT NULL DEFAULT 0,
	quantity REAL NOT NULL DEFAULT 0,
	leverage INTEGER NOT NULL DEFAULT 1,
	pnl REAL NOT NULL DEFAULT 0,
	fee REAL NOT NULL DEFAULT 0,
	timestamp TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_trades_symbol_type ON trades(symbol, type, timestamp);

CREATE TABLE IF NOT EXISTS positions (
	symbol TEXT PRIMARY KEY,
	side TEXT NOT NULL DEFAULT '',
	quantity REAL NOT NULL DEFAULT 0,
	entry_price REAL NOT NULL DEFAULT 0,
	leverage INTEGER NOT NULL DEFAULT 1,
	peak_pnl_percent REAL NOT NULL DEFAULT 0,
	opened_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS agent_decisions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	iteration INTEGER NOT NULL DEFAULT 0,
	market_analysis TEXT NOT NULL DEFAULT '',
	decision TEXT NOT NULL DEFAULT '',
	actions_taken TEXT NOT NULL DEFAULT '',
	account_value REAL NOT NULL DEFAULT 0,
	positions_count INTEGER NOT NULL DEFAULT 0
);
`

// Open 打开（必要时创建）SQLite 数据库并初始化表结构
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// modernc/sqlite 对并发写入敏感，串行化连接使用
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}

	s := &Store{
		db:  db,
		log: logrus.WithField("component", "store"),
	}
	s.log.WithField("path", path).Info("数据库已就绪")
	return s, nil
}

// Close 关闭底层数据库连接
func (s *Store) Close() error {
	return s.db.Close()
}

// ChinaTimeISO 返回东八区的 ISO8601 时间戳（账本统一使用中国时间）
func ChinaTimeISO() string {
	return time.Now().In(time.FixedZone("CST", 8*3600)).Format(time.RFC3339)
}
