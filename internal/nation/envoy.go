// Package nation provides the collaborators the engine consumes: LLM-backed
// and scripted nation responders, the world-model summarizer, and the
// backend registry that builds them from configuration.
package nation

import (
	"fmt"

	"github.com/talgya/statecraft/internal/llm"
	"github.com/talgya/statecraft/internal/sim"
)

// Envoy is an LLM-backed nation responder. All parsing and validation of
// model output happens here; the engine only ever sees a validated Response.
type Envoy struct {
	name    string
	backend llm.Backend
}

// NewEnvoy binds a nation name to a completion backend.
func NewEnvoy(name string, backend llm.Backend) *Envoy {
	return &Envoy{name: name, backend: backend}
}

// Respond prompts the backend for the nation's daily orders.
func (e *Envoy) Respond(view sim.WorldView) (*sim.Response, error) {
	orders, res, err := llm.GenerateOrders(e.backend, e.name, view)
	if err != nil {
		return nil, fmt.Errorf("nation %s: %w", e.name, err)
	}
	return &sim.Response{
		Reasoning: orders.Reasoning,
		Actions:   orders.Actions,
		Messages:  orders.Messages,
		Usage: sim.Usage{
			PromptTokens:     res.PromptTokens,
			CompletionTokens: res.CompletionTokens,
			TotalTokens:      res.TotalTokens,
			CompletionSec:    res.CompletionSec,
		},
	}, nil
}
