// Package component holds thin clients for the external services EvoRAG depends on.
package component

import "context"

// Checker is implemented by every component client that can report liveness.
type Checker interface {
	// Name identifies the component in health reports.
	Name() string
	// Ping checks connectivity.
	Ping(ctx context.Context) error
}

// CheckAll pings every checker and returns a per-component result.
// A nil entry means the component is healthy.
func CheckAll(ctx context.Context, checkers ...Checker) map[string]error {
	out := make(map[string]error, len(checkers))
	for _, c := range checkers {
		if c == nil {
			continue
		}
		out[c.Name()] = c.Ping(ctx)
	}
	return out
}
