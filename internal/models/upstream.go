package models

import "github.com/sashabaranov/go-openai"

// Upstream chat payloads

// PollinationsChatPayload is sent to providers that take the chat body on the bare API URL
type PollinationsChatPayload struct {
	Model    string                         `json:"model"`
	Messages []openai.ChatCompletionMessage `json:"messages"`
	Seed     int                            `json:"seed"`
}

// ChatCompletionPayload is an OpenAI-compatible /chat/completions request
type ChatCompletionPayload struct {
	Model          string                         `json:"model"`
	Messages       []openai.ChatCompletionMessage `json:"messages"`
	ResponseFormat ResponseFormat                 `json:"response_format"`
	MaxTokens      int                            `json:"max_tokens"`
	Temperature    float64                        `json:"temperature"`
	Stream         bool                           `json:"stream"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}
