package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/genbridge/gateway/internal/models"
	"github.com/genbridge/gateway/internal/provider"
	"github.com/genbridge/gateway/internal/upstream"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error labels returned in the "error" field
const (
	errConfig           = "Failed to get config"
	errFetchModels      = "Failed to fetch models"
	errInternal         = "Internal server error"
	errPromptRequired   = "Prompt is required"
	errKeyNotConfigured = "API key not configured"
	errInvalidBody      = "Invalid request body"
	errBodyTooLarge     = "Request body too large"
)

// Messages used when an upstream call times out
const (
	timeoutModels = "Request timeout"
	timeoutChat   = "Request timeout - AI API took too long to respond"
	timeoutImage  = "Request timeout - Image generation took too long"
)

const jsonContentType = "application/json; charset=utf-8"

// ==================== 配置 ====================

func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, models.ConfigResponse{
		DefaultModel: s.cfg.AI.DefaultModel,
		APIURL:       s.cfg.AI.APIURL,
		HasAPIKey:    s.cfg.AI.HasAPIKey(),
	})
}

// ==================== 模型列表 ====================

func (s *Server) listModels(c *gin.Context) {
	ai := s.cfg.AI

	// Pollinations 没有模型列表接口，直接返回固定列表
	if provider.IsPollinations(ai.APIURL) {
		c.JSON(http.StatusOK, provider.FixedModels())
		return
	}

	if !ai.HasAPIKey() {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: errKeyNotConfigured})
		return
	}

	resp, err := s.upstream.Do(provider.ModelsRequest(ai, s.cfg.Upstream.ModelsTimeout))
	if err == nil {
		err = resp.ValidJSON()
	}
	if err != nil {
		s.upstreamFailure(c, "models", errFetchModels, timeoutModels, err)
		return
	}

	c.Data(resp.StatusCode, jsonContentType, resp.Body)
}

// ==================== 对话 ====================

func (s *Server) chatCompletion(c *gin.Context) {
	var req models.ChatRequest
	if !s.bindJSON(c, &req) {
		return
	}

	if req.Prompt == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: errPromptRequired})
		return
	}

	ai := s.cfg.AI
	if !ai.HasAPIKey() {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: errKeyNotConfigured})
		return
	}

	model := provider.ResolveModel(req.Model, ai.DefaultModel)
	builder := provider.NewChatBuilder(ai, s.cfg.Upstream.ChatTimeout)

	s.logger.Debug("Forwarding chat request",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("model", model),
		zap.Bool("pollinations", provider.IsPollinations(ai.APIURL)),
		zap.Int("prompt_length", len(req.Prompt)))

	resp, err := s.upstream.Do(builder.Build(req.Prompt, model))
	if err == nil {
		err = resp.ValidJSON()
	}
	if err != nil {
		s.upstreamFailure(c, "chat", errInternal, timeoutChat, err)
		return
	}

	c.Data(http.StatusOK, jsonContentType, resp.Body)
}

// ==================== 图片 ====================

func (s *Server) generateImage(c *gin.Context) {
	var req models.ImageRequest
	if !s.bindJSON(c, &req) {
		return
	}

	if req.Prompt == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: errPromptRequired})
		return
	}

	job := provider.BuildImage(s.cfg.Image, req, s.cfg.Upstream.ImageTimeout)

	resp, err := s.upstream.Do(job.Request)
	if err == nil {
		err = provider.CheckImage(resp)
	}
	if err != nil {
		s.upstreamFailure(c, "image", errInternal, timeoutImage, err)
		return
	}

	s.logger.Info("Image generated",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("model", job.Model))

	// 不转发图片数据，返回图片URL由前端自行加载
	c.JSON(http.StatusOK, models.ImageResponse{
		Success:    true,
		ImageURL:   resp.URL,
		Model:      job.Model,
		Prompt:     job.Prompt,
		Parameters: job.Parameters,
	})
}

// ==================== 工具函数 ====================

// bindJSON decodes the body into obj. An empty body decodes as an empty object.
func (s *Server) bindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: errBodyTooLarge})
		return false
	}

	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: errInvalidBody, Message: err.Error()})
	return false
}

// upstreamFailure reports a failed upstream call as a 500. Non-2xx answers are not told apart
// from transport errors.
func (s *Server) upstreamFailure(c *gin.Context, endpoint, label, timeoutMessage string, err error) {
	message := err.Error()
	if errors.Is(err, upstream.ErrTimeout) {
		message = timeoutMessage
	}

	s.logger.Error("Upstream call failed",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("endpoint", endpoint),
		zap.Error(err))

	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: label, Message: message})
}
