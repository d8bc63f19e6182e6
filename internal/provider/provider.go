// Package provider turns browser requests into upstream calls. It knows the URL and payload
// conventions of each supported provider family and nothing about HTTP serving.
package provider

import (
	"net/http"
	"strings"
	"time"

	"github.com/genbridge/gateway/internal/config"
	"github.com/genbridge/gateway/internal/models"
	"github.com/genbridge/gateway/internal/upstream"
)

// PollinationsMarker identifies Pollinations endpoints inside a configured API URL.
const PollinationsMarker = "pollinations.ai"

// IsPollinations reports whether apiURL points at Pollinations.
func IsPollinations(apiURL string) bool {
	return strings.Contains(apiURL, PollinationsMarker)
}

// ResolveModel returns the trimmed requested model, or fallback when that is empty.
func ResolveModel(requested, fallback string) string {
	if m := strings.TrimSpace(requested); m != "" {
		return m
	}
	return fallback
}

// Pollinations has no models endpoint, so its list is fixed.
var pollinationsModels = []string{"openai", "mistral", "claude"}

// FixedModels returns the static Pollinations model list.
func FixedModels() models.ModelsResponse {
	list := make([]models.ModelObject, 0, len(pollinationsModels))
	for _, id := range pollinationsModels {
		list = append(list, models.ModelObject{
			ID:      id,
			Object:  "model",
			Created: 0,
			OwnedBy: "pollinations",
		})
	}
	return models.ModelsResponse{Data: list}
}

// ModelsRequest builds GET {apiUrl}/models.
func ModelsRequest(cfg config.AIConfig, timeout time.Duration) *upstream.Request {
	return &upstream.Request{
		Method:      http.MethodGet,
		URL:         strings.TrimSpace(cfg.APIURL) + "/models",
		Credentials: upstream.StaticBearer(cfg.APIKey),
		Timeout:     timeout,
	}
}
