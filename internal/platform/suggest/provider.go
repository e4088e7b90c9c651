// Package suggest provides AI-backed concept-mapping suggestions for
// terminology codes that have no curated mapping yet. The provider is a
// best-effort collaborator: callers must treat any error as "no
// suggestions" and may fall back to the keyword heuristics in Fallback.
package suggest

import (
	"context"
	"errors"
)

// Typed provider failures. Both mean the same thing to callers: degrade
// to fallback or empty suggestions, never fail the surrounding request.
var (
	ErrUnavailable = errors.New("suggestion provider unavailable")
	ErrMalformed   = errors.New("suggestion provider returned a malformed response")
)

// Suggestion is one candidate target mapping proposed for a source code.
type Suggestion struct {
	TargetCode    string `json:"targetCode"`
	TargetSystem  string `json:"targetSystem"`
	TargetDisplay string `json:"targetDisplay"`
	Equivalence   string `json:"equivalence"`
	Confidence    int    `json:"confidence"`
	Rationale     string `json:"rationale,omitempty"`
}

// Provider proposes target-code mappings for a source code.
type Provider interface {
	Suggest(ctx context.Context, code, display, definition string) ([]Suggestion, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, code, display, definition string) ([]Suggestion, error)

func (f ProviderFunc) Suggest(ctx context.Context, code, display, definition string) ([]Suggestion, error) {
	return f(ctx, code, display, definition)
}
