package provider

import (
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/genbridge/gateway/internal/config"
	"github.com/genbridge/gateway/internal/models"
	"github.com/genbridge/gateway/internal/upstream"
	"github.com/sashabaranov/go-openai"
)

const (
	// keyNotRequired is the placeholder some deployments set for keyless Pollinations access.
	keyNotRequired = "not-required"

	pollinationsFallbackModel = "openai"
	jsonOnlyInstruction       = "You must respond with valid JSON format only. Do not include any text outside the JSON structure."

	chatMaxTokens   = 4000
	chatTemperature = 0.7

	// seeds are drawn from [0, maxSeed]
	maxSeed = 999
)

// ChatBuilder shapes a chat prompt into one upstream request.
type ChatBuilder interface {
	Build(prompt, model string) *upstream.Request
}

// NewChatBuilder picks the request shape for the configured API URL.
func NewChatBuilder(cfg config.AIConfig, timeout time.Duration) ChatBuilder {
	if IsPollinations(cfg.APIURL) {
		return &PollinationsChat{cfg: cfg, timeout: timeout, seed: randomSeed}
	}
	return &OpenAIChat{cfg: cfg, timeout: timeout}
}

func randomSeed() int {
	return rand.Intn(maxSeed + 1)
}

// PollinationsChat posts to the API URL as-is with a JSON-only system prompt and a random seed.
type PollinationsChat struct {
	cfg     config.AIConfig
	timeout time.Duration
	seed    func() int
}

func (b *PollinationsChat) Build(prompt, model string) *upstream.Request {
	if model == "" {
		model = pollinationsFallbackModel
	}

	req := &upstream.Request{
		Method: http.MethodPost,
		URL:    strings.TrimSpace(b.cfg.APIURL),
		Header: map[string]string{"Content-Type": "application/json"},
		Body: &models.PollinationsChatPayload{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: jsonOnlyInstruction},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Seed: b.seed(),
		},
		Timeout: b.timeout,
	}
	if b.cfg.APIKey != keyNotRequired {
		req.Credentials = upstream.StaticBearer(b.cfg.APIKey)
	}
	return req
}

// OpenAIChat posts an OpenAI-compatible body to {apiUrl}/chat/completions.
type OpenAIChat struct {
	cfg     config.AIConfig
	timeout time.Duration
}

func (b *OpenAIChat) Build(prompt, model string) *upstream.Request {
	return &upstream.Request{
		Method: http.MethodPost,
		URL:    strings.TrimSpace(b.cfg.APIURL) + "/chat/completions",
		Header: map[string]string{"Content-Type": "application/json"},
		Body: &models.ChatCompletionPayload{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			ResponseFormat: models.ResponseFormat{Type: "json_object"},
			MaxTokens:      chatMaxTokens,
			Temperature:    chatTemperature,
			Stream:         false,
		},
		Credentials: upstream.StaticBearer(b.cfg.APIKey),
		Timeout:     b.timeout,
	}
}
