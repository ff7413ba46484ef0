// Package embed defines the embedding collaborator's consumption
// interface: an external service that turns text into vectors for
// SIMSEARCH. It is an optional, out-of-core collaborator — when disabled
// or unconfigured, Noop satisfies the interface and SIMSEARCH degrades to
// empty results.
package embed

import "context"

// Embedder is invoked synchronously by the executor on SIMSEARCH; callers
// should route it through the same goroutine pool used for session work
// since it may block on network I/O.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Similarity(a, b []float32) float32
	Enabled() bool
}

// Noop is the disabled-state default: Enabled reports false and Embed
// always fails with CollaboratorUnavailable-classed behavior left to the
// caller (the executor checks Enabled() before calling Embed at all).
type Noop struct{}

func (Noop) Embed(context.Context, string) ([]float32, error) { return nil, errUnavailable }
func (Noop) Similarity(a, b []float32) float32                { return 0 }
func (Noop) Enabled() bool                                    { return false }

var errUnavailable = embedUnavailableError{}

type embedUnavailableError struct{}

func (embedUnavailableError) Error() string { return "embedding collaborator disabled" }
