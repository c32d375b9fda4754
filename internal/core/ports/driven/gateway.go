package driven

import (
	"context"
	"net/http"
	"net/url"
)

// RequestOptions carries optional request parameters.
type RequestOptions struct {
	Query   url.Values
	Headers map[string]string
}

// Response is a successful (2xx) HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Gateway sends requests to the inventory API. It attaches the stored bearer
// token and signals UnauthorizedNotifier on 401/403. Every failure, transport
// or non-2xx, is returned as *domain.RemoteError.
type Gateway interface {
	// Send encodes body as JSON when non-nil and returns the raw response.
	Send(ctx context.Context, method, path string, body any, opts *RequestOptions) (*Response, error)
}

// UnauthorizedNotifier receives the process-wide "unauthorized" signal.
// NotifyUnauthorized must not block.
type UnauthorizedNotifier interface {
	NotifyUnauthorized()
}
