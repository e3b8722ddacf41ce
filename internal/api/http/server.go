// Package http 提供HTTP API服务
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/antigravity/bountyboard/internal/api/http/handlers"
	"github.com/antigravity/bountyboard/internal/api/http/middleware"
	"github.com/antigravity/bountyboard/internal/api/websocket"
	"github.com/antigravity/bountyboard/internal/config"
)

// Server HTTP服务
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer 创建HTTP服务并装配路由
func NewServer(
	opts config.HTTPOptions,
	bounty *handlers.BountyHandler,
	walletHandler *handlers.WalletHandler,
	health *handlers.HealthHandler,
	ws *websocket.Server,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.NewMetrics().Handler())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", health.Health)

		v1.GET("/bounties", bounty.List)
		v1.POST("/bounties", bounty.Create)
		v1.GET("/bounties/count", bounty.Count)
		v1.GET("/bounties/:id", bounty.Get)
		v1.POST("/bounties/:id/submit", bounty.SubmitSolution)
		v1.POST("/bounties/:id/approve", bounty.ApproveSolution)
		v1.POST("/bounties/:id/reject", bounty.RejectSolution)
		v1.POST("/bounties/:id/cancel", bounty.Cancel)
		v1.POST("/contract/initialize", bounty.Initialize)

		v1.POST("/wallet/connect", walletHandler.Connect)
		v1.POST("/wallet/disconnect", walletHandler.Disconnect)
		v1.GET("/wallet/session", walletHandler.Session)
	}

	router.GET("/ws", ws.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		srv: &http.Server{
			Addr:              opts.Listen,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start 启动监听
func (s *Server) Start() {
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped unexpectedly", zap.Error(err))
		}
	}()
}

// Stop 优雅停止
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
