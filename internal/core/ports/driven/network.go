package driven

import "context"

// NetworkProbe reports whether the API host is reachable.
type NetworkProbe interface {
	Reachable(ctx context.Context) bool
}
