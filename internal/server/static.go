package server

import (
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/genbridge/gateway/internal/embed"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// setupStaticFiles 设置前端静态文件
// 优先使用嵌入的文件，如果不存在则使用外部 static 目录
func (s *Server) setupStaticFiles() {
	if embed.HasEmbeddedFiles() {
		publicFS, err := embed.GetPublicFS()
		if err == nil {
			s.logger.Debug("Using embedded public files")
			s.serveFrontend(publicFS)
			return
		}
		s.logger.Warn("Failed to load embedded files", zap.Error(err))
	}

	// 回退到外部目录
	dir := s.cfg.Server.StaticDir
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err == nil {
		s.logger.Info("Using external static directory", zap.String("dir", dir))
		s.serveFrontend(os.DirFS(dir))
		return
	}

	s.logger.Warn("No frontend files found (embedded or external)")
	s.router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
}

func (s *Server) serveFrontend(files fs.FS) {
	s.router.GET("/", func(c *gin.Context) {
		// 直接读取，避免 http.FileServer 对 /index.html 的重定向
		data, err := fs.ReadFile(files, "index.html")
		if err != nil {
			s.logger.Error("Failed to read index.html", zap.Error(err))
			c.String(http.StatusInternalServerError, "frontend unavailable")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	})
	s.router.StaticFS("/static", http.FS(files))
}
