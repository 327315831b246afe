package nation

import (
	"log/slog"

	"github.com/talgya/statecraft/internal/llm"
	"github.com/talgya/statecraft/internal/sim"
)

// WorldModel summarizes each day's consequences. With a nil backend it
// produces the deterministic fallback narrative, so it never leaves a day
// without a record.
type WorldModel struct {
	backend llm.Backend
}

// NewWorldModel wraps a backend; backend may be nil.
func NewWorldModel(backend llm.Backend) *WorldModel {
	return &WorldModel{backend: backend}
}

// Summarize narrates the day described by the view.
func (w *WorldModel) Summarize(view sim.WorldView) (*sim.Consequence, error) {
	text, res, err := llm.GenerateConsequences(w.backend, view)
	if err != nil {
		slog.Warn("world model narration failed, using fallback", "error", err)
	}
	c := &sim.Consequence{Text: text}
	if res != nil {
		c.Usage = sim.Usage{
			PromptTokens:     res.PromptTokens,
			CompletionTokens: res.CompletionTokens,
			TotalTokens:      res.TotalTokens,
			CompletionSec:    res.CompletionSec,
		}
	}
	return c, nil
}
