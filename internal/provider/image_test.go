package provider

import (
	"net/http"
	"testing"
	"time"

	"github.com/genbridge/gateway/internal/config"
	"github.com/genbridge/gateway/internal/models"
	"github.com/genbridge/gateway/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultImageConfig = config.ImageConfig{
	APIURL:       "https://image.pollinations.ai",
	DefaultModel: "flux",
}

func TestBuildImage_Defaults(t *testing.T) {
	job := BuildImage(defaultImageConfig, models.ImageRequest{Prompt: "a cat"}, 60*time.Second)

	req := job.Request
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "https://image.pollinations.ai/prompt/a%20cat", req.URL)
	assert.Equal(t, "flux", req.Query.Get("model"))
	assert.Equal(t, "800", req.Query.Get("width"))
	assert.Equal(t, "600", req.Query.Get("height"))
	for _, key := range []string{"seed", "nologo", "enhance", "safe", "referrer"} {
		assert.False(t, req.Query.Has(key), "unexpected %s", key)
	}
	assert.Nil(t, req.Credentials)
	assert.Empty(t, req.Header)
	assert.True(t, req.SkipBody)
	assert.Equal(t, 60*time.Second, req.Timeout)

	assert.Equal(t, "flux", job.Model)
	assert.Equal(t, "a cat", job.Prompt)
	assert.Equal(t, models.ImageParameters{Width: "800", Height: "600"}, job.Parameters)
}

func TestBuildImage_PassThroughDimensions(t *testing.T) {
	job := BuildImage(defaultImageConfig, models.ImageRequest{
		Prompt: "a cat",
		Width:  float64(1024),
		Height: "768",
	}, time.Second)

	assert.Equal(t, "1024", job.Request.Query.Get("width"))
	assert.Equal(t, "768", job.Request.Query.Get("height"))
	assert.Equal(t, float64(1024), job.Parameters.Width)
	assert.Equal(t, "768", job.Parameters.Height)
}

func TestBuildImage_FlagNormalization(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  bool
	}{
		{"bool true", true, true},
		{"string true", "true", true},
		{"bool false", false, false},
		{"absent", nil, false},
		{"string false", "false", false},
		{"string TRUE", "TRUE", false},
		{"number one", float64(1), false},
		{"string yes", "yes", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := BuildImage(defaultImageConfig, models.ImageRequest{
				Prompt:  "a cat",
				Nologo:  tt.value,
				Enhance: tt.value,
				Safe:    tt.value,
			}, time.Second)

			for _, key := range []string{"nologo", "enhance", "safe"} {
				if tt.want {
					assert.Equal(t, "true", job.Request.Query.Get(key), key)
				} else {
					assert.False(t, job.Request.Query.Has(key), key)
				}
			}
			assert.Equal(t, tt.want, job.Parameters.Nologo)
			assert.Equal(t, tt.want, job.Parameters.Enhance)
			assert.Equal(t, tt.want, job.Parameters.Safe)
		})
	}
}

func TestBuildImage_Seed(t *testing.T) {
	job := BuildImage(defaultImageConfig, models.ImageRequest{Prompt: "a cat", Seed: float64(42)}, time.Second)
	assert.Equal(t, "42", job.Request.Query.Get("seed"))
	assert.Equal(t, float64(42), job.Parameters.Seed)

	job = BuildImage(defaultImageConfig, models.ImageRequest{Prompt: "a cat", Seed: float64(0)}, time.Second)
	assert.False(t, job.Request.Query.Has("seed"))
	assert.Equal(t, float64(0), job.Parameters.Seed)

	job = BuildImage(defaultImageConfig, models.ImageRequest{Prompt: "a cat"}, time.Second)
	assert.Nil(t, job.Parameters.Seed)
}

func TestBuildImage_ModelResolution(t *testing.T) {
	job := BuildImage(defaultImageConfig, models.ImageRequest{Prompt: "a cat", Model: "  turbo "}, time.Second)
	assert.Equal(t, "turbo", job.Model)
	assert.Equal(t, "turbo", job.Request.Query.Get("model"))

	job = BuildImage(defaultImageConfig, models.ImageRequest{Prompt: "a cat", Model: "   "}, time.Second)
	assert.Equal(t, "flux", job.Model)
}

func TestBuildImage_CredentialsAndReferrer(t *testing.T) {
	cfg := config.ImageConfig{
		APIURL:       "https://img.example.com ",
		APIKey:       "img-key",
		Referrer:     "genbridge.example",
		DefaultModel: "flux",
	}

	job := BuildImage(cfg, models.ImageRequest{Prompt: "a cat"}, time.Second)

	assert.Equal(t, "https://img.example.com/prompt/a%20cat", job.Request.URL)
	assert.Equal(t, "genbridge.example", job.Request.Query.Get("referrer"))
	assert.Equal(t, "genbridge.example", job.Request.Header["Referer"])
	assertBearer(t, job.Request, "img-key")
}

func TestEscapePrompt(t *testing.T) {
	assert.Equal(t, "a%20cat", escapePrompt("a cat"))
	assert.Equal(t, "cats/dogs", escapePrompt("cats/dogs"))
	assert.Equal(t, "a%2Cb%3F%26c%3Dd", escapePrompt("a,b?&c=d"))
	assert.Equal(t, "%E7%8C%AB", escapePrompt("猫"))
	assert.Equal(t, "A-Z_0.9~", escapePrompt("A-Z_0.9~"))
}

func TestCheckImage(t *testing.T) {
	ok := &upstream.Response{Header: http.Header{"Content-Type": {"image/jpeg"}}}
	assert.NoError(t, CheckImage(ok))

	html := &upstream.Response{Header: http.Header{"Content-Type": {"text/html; charset=utf-8"}}}
	err := CheckImage(html)
	require.Error(t, err)
	assert.Equal(t, "Invalid response: Expected image data", err.Error())

	assert.ErrorIs(t, CheckImage(&upstream.Response{Header: http.Header{}}), ErrNotImage)
}
