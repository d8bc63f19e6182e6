package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/genbridge/gateway/internal/config"
	"github.com/genbridge/gateway/internal/logger"
	"github.com/genbridge/gateway/internal/server"
	"github.com/genbridge/gateway/internal/upstream"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:    "serve",
	Short:  "Start the gateway server",
	Long:   `Start the genbridge HTTP server with the frontend and all /api routes`,
	PreRun: bindServerFlags,
	RunE:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServerFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if configErr != nil {
		return configErr
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 初始化日志，debug 模式下使用彩色控制台输出
	var log *zap.Logger
	if cfg.Server.Mode == gin.DebugMode {
		log, err = logger.NewDevelopment()
	} else {
		log, err = logger.New(cfg.Logging)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting genbridge",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	// Log provider configuration status
	log.Info("AI provider configured",
		zap.String("api_url", cfg.AI.APIURL),
		zap.String("default_model", cfg.AI.DefaultModel),
		zap.String("api_key", maskAPIKey(cfg.AI.APIKey)))
	log.Info("Image provider configured",
		zap.String("api_url", cfg.Image.APIURL),
		zap.String("default_model", cfg.Image.DefaultModel),
		zap.String("api_key", maskAPIKey(cfg.Image.APIKey)))
	if !cfg.AI.HasAPIKey() {
		log.Warn("AI_API_KEY is not set, /api/chat will be rejected")
	}

	srv, err := server.New(cfg, log, upstream.NewRestyClient(log))
	if err != nil {
		log.Error("Failed to create server", zap.Error(err))
		return err
	}

	// 启动HTTP服务器
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 优雅关闭
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("Server started", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-stop
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	log.Info("Server stopped gracefully")
	return nil
}

// maskAPIKey returns a masked version of the API key for logging
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
