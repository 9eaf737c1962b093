package store

// Decision agent_decisions 表的一行（只写审计记录）
type Decision struct {
	ID             int64   `json:"id"`
	Timestamp      string  `json:"timestamp"`
	Iteration      int     `json:"iteration"` // 0 表示由自动风控触发，非 AI 周期
	MarketAnalysis string  `json:"market_analysis"`
	Decision       string  `json:"decision"`
	ActionsTaken   string  `json:"actions_taken"`
	AccountValue   float64 `json:"account_value"`
	PositionsCount int     `json:"positions_count"`
}

// InsertDecision 追加一条决策审计记录
func (s *Store) InsertDecision(d *Decision) error {
	res, err := s.db.Exec(
		`INSERT INTO agent_decisions (timestamp, iteration, market_analysis, decision, actions_taken, account_value, positions_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Timestamp, d.Iteration, d.MarketAnalysis, d.Decision, d.ActionsTaken, d.AccountValue, d.PositionsCount,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		d.ID = id
	}
	return nil
}

// RecentDecisions 按时间倒序返回最近的决策记录
func (s *Store) RecentDecisions(limit int) ([]*Decision, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, timestamp, iteration, market_analysis, decision, actions_taken, account_value, positions_count
		 FROM agent_decisions ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []*Decision
	for rows.Next() {
		d := &Decision{}
		if err := rows.Scan(&d.ID, &d.Timestamp, &d.Iteration, &d.MarketAnalysis, &d.Decision,
			&d.ActionsTaken, &d.AccountValue, &d.PositionsCount); err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
