// Package api 提供监控状态与交易流水的只读 HTTP 接口
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"nof1/market"
	"nof1/store"
	"nof1/trader"
)

// Config API 服务配置
type Config struct {
	Port         int
	JWTSecret    string
	PasswordHash string // bcrypt 哈希
}

// Server 封装 gin 引擎与依赖
type Server struct {
	cfg      Config
	log      zerolog.Logger
	store    *store.Store
	prices   *market.MarkPriceMonitor
	stopLoss *trader.StopLossMonitor
	trailing *trader.TrailingStopMonitor
	httpSrv  *http.Server
}

func NewServer(cfg Config, st *store.Store, prices *market.MarkPriceMonitor,
	stopLoss *trader.StopLossMonitor, trailing *trader.TrailingStopMonitor) *Server {

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "api").Logger()

	s := &Server{
		cfg:      cfg,
		log:      logger,
		store:    st,
		prices:   prices,
		stopLoss: stopLoss,
		trailing: trailing,
	}
	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router(),
	}
	return s
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.POST("/api/login", s.handleLogin)

	authorized := r.Group("/api", s.authRequired())
	authorized.GET("/monitor", s.handleMonitor)
	authorized.GET("/positions", s.handlePositions)
	authorized.GET("/trades", s.handleTrades)
	authorized.GET("/decisions", s.handleDecisions)

	return r
}

// Start 阻塞运行 HTTP 服务
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpSrv.Addr).Msg("API 服务启动")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown 优雅关闭 HTTP 服务
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("API 服务关闭")
	return s.httpSrv.Shutdown(ctx)
}

// requestLogger 用 zerolog 记录每个请求
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
