package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "reelforge/docs"
	"reelforge/internal/app"
	"reelforge/internal/config"
	"reelforge/internal/handler"
	scriptHandler "reelforge/internal/handler/script"
	"reelforge/internal/pkg/jwt"
	"reelforge/internal/server/middleware"
)

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	app    *app.App
	engine *gin.Engine
}

// New 创建服务器实例
func New(cfg *config.Config, a *app.App) *Server {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &Server{
		cfg:    cfg,
		app:    a,
		engine: gin.New(),
	}
	srv.setupRoutes()
	return srv
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler(s.app.Ready)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1
	v1 := s.engine.Group("/api/v1")
	if s.cfg.Auth.JWTSecret != "" {
		v1.Use(middleware.Auth(jwt.NewJWT(s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenExpiry)))
	} else {
		log.Warn().Msg("auth.jwt_secret not configured, API endpoints are not authenticated")
	}

	scriptHdl := scriptHandler.NewHandler(s.app.Pipeline)
	scripts := v1.Group("/scripts/:script_id")
	{
		scripts.POST("/synchronize", scriptHdl.Synchronize)
		scripts.POST("/segment", scriptHdl.Segment)
		scripts.POST("/run", scriptHdl.Run)
		scripts.GET("/synchronized", scriptHdl.GetSynchronized)
		scripts.GET("/segmented", scriptHdl.GetSegmented)
		scripts.GET("/jobs", scriptHdl.GetJobs)
		scripts.GET("/checkpoint", scriptHdl.GetCheckpoint)
		scripts.DELETE("/checkpoint", scriptHdl.ClearCheckpoint)
	}
	v1.GET("/runs", scriptHdl.ListRuns)
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
