package models

// Browser-facing request/response models

// ConfigResponse is the public view of the text provider settings
type ConfigResponse struct {
	DefaultModel string `json:"defaultModel"`
	APIURL       string `json:"apiUrl"`
	HasAPIKey    bool   `json:"hasApiKey"`
}

// ModelsResponse mirrors the OpenAI models list response
type ModelsResponse struct {
	Data []ModelObject `json:"data"`
}

// ModelObject represents a single model in the list
type ModelObject struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

// ImageRequest is the body of POST /api/image.
// Width, height, seed and the flags keep whatever JSON type the browser sent.
type ImageRequest struct {
	Prompt  string      `json:"prompt"`
	Model   string      `json:"model"`
	Width   interface{} `json:"width"`
	Height  interface{} `json:"height"`
	Seed    interface{} `json:"seed"`
	Nologo  interface{} `json:"nologo"`
	Enhance interface{} `json:"enhance"`
	Safe    interface{} `json:"safe"`
}

// ImageResponse is returned instead of the image bytes
type ImageResponse struct {
	Success    bool            `json:"success"`
	ImageURL   string          `json:"imageUrl"`
	Model      string          `json:"model"`
	Prompt     string          `json:"prompt"`
	Parameters ImageParameters `json:"parameters"`
}

// ImageParameters echoes the normalized generation parameters
type ImageParameters struct {
	Width   interface{} `json:"width"`
	Height  interface{} `json:"height"`
	Seed    interface{} `json:"seed"`
	Nologo  bool        `json:"nologo"`
	Enhance bool        `json:"enhance"`
	Safe    bool        `json:"safe"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
