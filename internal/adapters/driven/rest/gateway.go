package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/logger"
)

// Ensure Gateway implements the interface.
var _ driven.Gateway = (*Gateway)(nil)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 4 << 10

// maxErrorMessage bounds, in bytes, a message taken from a plain-text body.
const maxErrorMessage = 200

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit is requests per second; zero disables throttling.
	RateLimit float64
	// Tokens supplies the bearer token. Nil sends requests without one.
	Tokens oauth2.TokenSource
	// Notifier is told about 401 and 403 responses.
	Notifier driven.UnauthorizedNotifier
}

// Gateway is the HTTP client for the inventory API.
type Gateway struct {
	baseURL  string
	http     *http.Client
	limiter  *RateLimiter
	tokens   oauth2.TokenSource
	notifier driven.UnauthorizedNotifier
}

// NewGateway creates a gateway.
func NewGateway(cfg GatewayConfig) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultRequestTimeout
	}
	return &Gateway{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		limiter:  NewRateLimiter(cfg.RateLimit),
		tokens:   cfg.Tokens,
		notifier: cfg.Notifier,
	}
}

// HTTPClient returns the underlying client.
func (g *Gateway) HTTPClient() *http.Client {
	return g.http
}

// BaseURL returns the API root the gateway sends to.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Send performs one request. Non-2xx responses and transport failures are
// returned as *domain.RemoteError.
func (g *Gateway) Send(
	ctx context.Context,
	method, path string,
	body any,
	opts *driven.RequestOptions,
) (*driven.Response, error) {
	req, err := g.newRequest(ctx, method, path, body, opts)
	if err != nil {
		return nil, err
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, &domain.RemoteError{Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	logger.Debug("http: %s %s", method, req.URL.Path)
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, &domain.RemoteError{Err: err}
	}
	defer resp.Body.Close()
	g.limiter.Observe(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, g.failure(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.RemoteError{Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return &driven.Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (g *Gateway) newRequest(
	ctx context.Context,
	method, path string,
	body any,
	opts *driven.RequestOptions,
) (*http.Request, error) {
	url := g.baseURL + "/" + strings.TrimLeft(path, "/")

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &domain.RemoteError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts != nil {
		if len(opts.Query) > 0 {
			req.URL.RawQuery = opts.Query.Encode()
		}
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}
	}

	if g.tokens != nil {
		tok, err := g.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("load token: %w", err)
		}
		if tok != nil && tok.AccessToken != "" {
			tok.SetAuthHeader(req)
		}
	}
	return req, nil
}

// failure builds the error for a non-2xx response and raises the
// unauthorized signal before returning it.
func (g *Gateway) failure(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	rerr := &domain.RemoteError{Status: resp.StatusCode, Message: errorMessage(raw)}
	if resp.StatusCode == http.StatusTooManyRequests {
		rerr.Err = domain.ErrRateLimited
	}
	if rerr.Kind() == domain.RemoteUnauthorized && g.notifier != nil {
		g.notifier.NotifyUnauthorized()
	}
	return rerr
}

// errorMessage extracts a message from a JSON error body, falling back to
// the trimmed body text.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	msg := strings.ToValidUTF8(strings.TrimSpace(string(raw)), "")
	if len(msg) > maxErrorMessage {
		cut := maxErrorMessage
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}

// decode unmarshals a response body into out. An empty body leaves out
// untouched.
func decode(resp *driven.Response, out any) error {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &domain.RemoteError{Status: resp.Status, Message: "invalid response body", Err: err}
	}
	return nil
}
