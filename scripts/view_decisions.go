// 命令行工具：查看数据库中的风控审计记录
//
// 用法:
//
//	go run scripts/view_decisions.go -db trading.db -limit 20
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"nof1/store"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func main() {
	dbPath := flag.String("db", "trading.db", "SQLite 数据库路径")
	limit := flag.Int("limit", 20, "显示的记录条数")
	flag.Parse()

	st, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s打开数据库失败: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
	defer st.Close()

	decisions, err := st.RecentDecisions(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s查询审计记录失败: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}

	if len(decisions) == 0 {
		fmt.Println("没有审计记录")
		return
	}

	for _, d := range decisions {
		printDecision(d)
	}
}

func printDecision(d *store.Decision) {
	fmt.Printf("%s%s═══ #%d  %s ═══%s\n", colorBold, colorCyan, d.ID, d.Timestamp, colorReset)

	color := colorGreen
	if strings.Contains(d.Decision, "止损") {
		color = colorRed
	}
	fmt.Printf("%s%s%s\n", color, d.Decision, colorReset)

	if analysis := prettyJSON(d.MarketAnalysis); analysis != "" {
		fmt.Printf("%s市场数据:%s\n%s\n", colorYellow, colorReset, analysis)
	}
	if actions := prettyJSON(d.ActionsTaken); actions != "" {
		fmt.Printf("%s执行动作:%s\n%s\n", colorYellow, colorReset, actions)
	}
	fmt.Println()
}

// prettyJSON 重排 JSON 便于阅读，非 JSON 内容原样返回
func prettyJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	pretty, err := json.MarshalIndent(value, "  ", "  ")
	if err != nil {
		return raw
	}
	return "  " + string(pretty)
}
