package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrTimeout is returned (wrapped) when an upstream call exceeds its deadline.
var ErrTimeout = errors.New("upstream request timed out")

// ErrInvalidJSON is returned when a relayed upstream body is not JSON.
var ErrInvalidJSON = errors.New("upstream returned invalid JSON")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %s for url: %s", e.Status, e.URL)
}

// Request describes one outbound call.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Header map[string]string
	Body   interface{}

	// Credentials, when set, supplies the Authorization header.
	Credentials oauth2.TokenSource

	Timeout time.Duration

	// SkipBody leaves the response body unread; only status and headers are returned.
	SkipBody bool
}

// Response is the buffered result of an outbound call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// URL is the final request URL, query included, after redirects.
	URL string
}

// ValidJSON checks that the body can be relayed as JSON.
func (r *Response) ValidJSON() error {
	if !sonic.Valid(r.Body) {
		return ErrInvalidJSON
	}
	return nil
}

// Client performs a single outbound request bounded by the request's timeout.
type Client interface {
	Do(req *Request) (*Response, error)
}

// StaticBearer wraps a secret key as a bearer token source. An empty key yields nil.
func StaticBearer(key string) oauth2.TokenSource {
	if key == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: key, TokenType: "Bearer"})
}

// RestyClient is the production Client.
type RestyClient struct {
	rc     *resty.Client
	logger *zap.Logger
}

// NewRestyClient creates a client sharing one connection pool across all providers
func NewRestyClient(logger *zap.Logger) *RestyClient {
	rc := resty.New()
	rc.JSONMarshal = sonic.Marshal
	rc.JSONUnmarshal = sonic.Unmarshal
	rc.SetLogger(logger.Sugar())

	return &RestyClient{rc: rc, logger: logger}
}

// Do executes req. The call is not tied to the inbound request's lifetime.
func (c *RestyClient) Do(req *Request) (*Response, error) {
	ctx := context.Background()
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	r := c.rc.R().
		SetContext(ctx).
		SetDoNotParseResponse(req.SkipBody)

	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if len(req.Header) > 0 {
		r.SetHeaders(req.Header)
	}
	if req.Credentials != nil {
		tok, err := req.Credentials.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to obtain upstream credentials: %w", err)
		}
		r.SetHeader("Authorization", tok.Type()+" "+tok.AccessToken)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	if req.SkipBody && resp.RawBody() != nil {
		defer resp.RawBody().Close()
	}

	out := &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		URL:        req.URL,
	}
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		out.URL = resp.RawResponse.Request.URL.String()
	}
	if !req.SkipBody {
		out.Body = resp.Body()
	}

	c.logger.Debug("Upstream call finished",
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Int("status", out.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if !resp.IsSuccess() {
		return nil, &StatusError{
			StatusCode: out.StatusCode,
			Status:     resp.Status(),
			URL:        out.URL,
		}
	}

	return out, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
