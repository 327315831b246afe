package nation

import (
	"fmt"

	"github.com/talgya/statecraft/internal/llm"
	"github.com/talgya/statecraft/internal/sim"
)

// BackendKind is an explicit, enumerated backend discriminant. Unknown
// kinds are a startup-time configuration error, never a runtime surprise.
type BackendKind string

const (
	BackendAnthropic BackendKind = "anthropic"
	BackendOpenAI    BackendKind = "openai"
	BackendScripted  BackendKind = "scripted"
)

// ParseBackendKind validates a configured backend name.
func ParseBackendKind(s string) (BackendKind, error) {
	switch BackendKind(s) {
	case BackendAnthropic, BackendOpenAI, BackendScripted:
		return BackendKind(s), nil
	}
	return "", fmt.Errorf("unknown backend kind %q (want anthropic, openai, or scripted)", s)
}

// Factory builds responders and summarizers for one configured backend.
type Factory struct {
	Kind        BackendKind
	Model       string
	Temperature float64
	APIKey      string
	BaseURL     string // openai only
	Seed        int64  // scripted only
}

// newBackend builds the completion backend, or an error if it cannot be
// configured (missing key, unknown kind).
func (f Factory) newBackend() (llm.Backend, error) {
	switch f.Kind {
	case BackendAnthropic:
		c := llm.NewClient(f.APIKey, f.Model, f.Temperature)
		if c == nil {
			return nil, fmt.Errorf("anthropic backend: API key not set")
		}
		return c, nil
	case BackendOpenAI:
		c := llm.NewOpenAIClient(f.APIKey, f.BaseURL, f.Model, f.Temperature)
		if c == nil {
			return nil, fmt.Errorf("openai backend: API key not set")
		}
		return c, nil
	}
	return nil, fmt.Errorf("backend kind %q has no completion backend", f.Kind)
}

// NewResponder builds the responder for one nation. The roster and catalog
// feed the scripted policy; LLM backends ignore them (their view of the
// world arrives with every query).
func (f Factory) NewResponder(name string, table sim.EffectTable, roster []string, index int) (sim.Responder, error) {
	if f.Kind == BackendScripted {
		// Offset per nation so scripted runs are deterministic but the
		// nations do not mirror each other.
		return NewScripted(name, f.Seed+int64(index), table, roster), nil
	}
	b, err := f.newBackend()
	if err != nil {
		return nil, fmt.Errorf("nation %s: %w", name, err)
	}
	return NewEnvoy(name, b), nil
}

// NewSummarizer builds the world-model summarizer. The scripted kind (and
// a missing key for LLM kinds) yields the fallback-only world model.
func (f Factory) NewSummarizer() (sim.Summarizer, error) {
	if f.Kind == BackendScripted {
		return NewWorldModel(nil), nil
	}
	b, err := f.newBackend()
	if err != nil {
		return nil, fmt.Errorf("world model: %w", err)
	}
	return NewWorldModel(b), nil
}
