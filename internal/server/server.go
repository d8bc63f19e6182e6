package server

import (
	"net/http"

	"github.com/genbridge/gateway/internal/config"
	"github.com/genbridge/gateway/internal/models"
	"github.com/genbridge/gateway/internal/upstream"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server represents the gateway HTTP server
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	upstream upstream.Client
}

// New creates a new server instance. All outbound traffic goes through client.
func New(cfg *config.Config, logger *zap.Logger, client upstream.Client) (*Server, error) {
	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		router:   gin.New(),
		upstream: client,
	}

	// 设置中间件
	s.setupMiddleware()

	// 设置路由
	s.setupRoutes()

	return s, nil
}

// Router returns the gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.recoverWith(errInternal))
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggerMiddleware())

	if s.cfg.Security.EnableCORS {
		s.router.Use(s.corsMiddleware())
	}
}

func (s *Server) setupRoutes() {
	s.router.HandleMethodNotAllowed = true
	s.router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method not allowed"})
	})
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
	})

	// 健康检查
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api")
	api.Use(s.maxBodySizeMiddleware())
	{
		api.GET("/config", s.recoverWith(errConfig), s.getConfig)
		api.GET("/models", s.recoverWith(errFetchModels), s.listModels)
		api.POST("/chat", s.chatCompletion)
		api.POST("/image", s.generateImage)
	}

	// 前端页面
	s.setupStaticFiles()
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
