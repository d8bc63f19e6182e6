package provider

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/genbridge/gateway/internal/config"
	"github.com/genbridge/gateway/internal/models"
	"github.com/genbridge/gateway/internal/upstream"
)

const (
	defaultWidth  = "800"
	defaultHeight = "600"
)

// ErrNotImage is returned when the image endpoint answers with something other than an image.
var ErrNotImage = errors.New("Invalid response: Expected image data")

// ImageJob is a ready-to-send image request plus the values echoed back to the browser.
type ImageJob struct {
	Request    *upstream.Request
	Model      string
	Prompt     string
	Parameters models.ImageParameters
}

// BuildImage normalizes req into GET {imageApiUrl}/prompt/{prompt}?model=...
func BuildImage(cfg config.ImageConfig, req models.ImageRequest, timeout time.Duration) *ImageJob {
	model := ResolveModel(req.Model, cfg.DefaultModel)

	params := models.ImageParameters{
		Width:   orDefault(req.Width, defaultWidth),
		Height:  orDefault(req.Height, defaultHeight),
		Seed:    req.Seed,
		Nologo:  isTrue(req.Nologo),
		Enhance: isTrue(req.Enhance),
		Safe:    isTrue(req.Safe),
	}

	query := url.Values{}
	query.Set("model", model)
	query.Set("width", formatParam(params.Width))
	query.Set("height", formatParam(params.Height))
	if truthy(req.Seed) {
		query.Set("seed", formatParam(req.Seed))
	}
	if params.Nologo {
		query.Set("nologo", "true")
	}
	if params.Enhance {
		query.Set("enhance", "true")
	}
	if params.Safe {
		query.Set("safe", "true")
	}

	header := map[string]string{}
	if cfg.Referrer != "" {
		query.Set("referrer", cfg.Referrer)
		header["Referer"] = cfg.Referrer
	}

	return &ImageJob{
		Request: &upstream.Request{
			Method:      http.MethodGet,
			URL:         strings.TrimSpace(cfg.APIURL) + "/prompt/" + escapePrompt(req.Prompt),
			Query:       query,
			Header:      header,
			Credentials: upstream.StaticBearer(cfg.APIKey),
			Timeout:     timeout,
			SkipBody:    true,
		},
		Model:      model,
		Prompt:     req.Prompt,
		Parameters: params,
	}
}

// CheckImage verifies the upstream answered with image content.
func CheckImage(resp *upstream.Response) error {
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		return ErrNotImage
	}
	return nil
}

// isTrue accepts boolean true or the string "true"; anything else is false.
func isTrue(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	}
	return false
}

// truthy follows JSON-ish truthiness: null, false, "", and 0 are false.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	}
	return true
}

func orDefault(v interface{}, def string) interface{} {
	if truthy(v) {
		return v
	}
	return def
}

func formatParam(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	return fmt.Sprint(v)
}

// escapePrompt percent-encodes everything except unreserved characters and '/'.
func escapePrompt(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || c == '/' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}
