// Package network reports whether the inventory API host can be reached.
package network

import (
	"context"
	"net/http"
	"time"

	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/logger"
)

// Ensure HTTPProbe implements the interface.
var _ driven.NetworkProbe = (*HTTPProbe)(nil)

// DefaultProbeTimeout bounds a single probe.
const DefaultProbeTimeout = 3 * time.Second

// HTTPProbe sends a HEAD request to a URL. Any HTTP response counts as
// reachable, whatever its status; only transport failures count as offline.
type HTTPProbe struct {
	url    string
	client *http.Client
}

// NewHTTPProbe creates a probe for url.
func NewHTTPProbe(url string, timeout time.Duration) *HTTPProbe {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &HTTPProbe{url: url, client: &http.Client{Timeout: timeout}}
}

// Reachable implements driven.NetworkProbe.
func (p *HTTPProbe) Reachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		logger.Warn("network: bad probe url %q: %v", p.url, err)
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		logger.Debug("network: probe failed: %v", err)
		return false
	}
	resp.Body.Close()
	return true
}

// Static is a probe with a fixed answer.
type Static bool

// Reachable implements driven.NetworkProbe.
func (s Static) Reachable(context.Context) bool { return bool(s) }
