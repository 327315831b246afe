package nation

import (
	"errors"
	"reflect"
	"testing"

	"github.com/talgya/statecraft/internal/llm"
	"github.com/talgya/statecraft/internal/sim"
)

func testTable(t *testing.T) sim.EffectTable {
	t.Helper()
	return sim.NewEffectTable([]sim.EffectSpec{
		{Kind: "attack", Tags: []string{"aggressive"}},
		{Kind: "trade", Tags: []string{"peaceful"}},
		{Kind: "wait", Tags: []string{"neutral"}},
	})
}

func TestScriptedIsDeterministic(t *testing.T) {
	roster := []string{"A", "B", "C"}
	table := testTable(t)
	view := sim.WorldView{Day: 0, MaxDays: 3}

	run := func() []sim.Action {
		s := NewScripted("A", 42, table, roster)
		var actions []sim.Action
		for day := 0; day <= 3; day++ {
			view.Day = day
			r, err := s.Respond(view)
			if err != nil {
				t.Fatalf("Respond: %v", err)
			}
			actions = append(actions, r.Actions...)
		}
		return actions
	}

	first, second := run(), run()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("equal seeds diverged:\n%v\n%v", first, second)
	}
	for _, a := range first {
		if a.Actor != "A" {
			t.Errorf("scripted actor = %q, want A", a.Actor)
		}
		if a.Target == "A" {
			t.Error("scripted responder targeted itself")
		}
		if _, ok := table.Lookup(a.Kind); !ok {
			t.Errorf("scripted action %q is not in the catalog", a.Kind)
		}
	}
}

func TestScriptedEmptyCatalog(t *testing.T) {
	s := NewScripted("A", 1, sim.NewEffectTable(nil), []string{"A", "B"})
	r, err := s.Respond(sim.WorldView{})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if len(r.Actions) != 0 {
		t.Errorf("actions = %v, want none", r.Actions)
	}
}

func TestParseBackendKind(t *testing.T) {
	for _, s := range []string{"anthropic", "openai", "scripted"} {
		if _, err := ParseBackendKind(s); err != nil {
			t.Errorf("ParseBackendKind(%q): %v", s, err)
		}
	}
	if _, err := ParseBackendKind("wandb"); err == nil {
		t.Error("ParseBackendKind accepted an unknown kind")
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	f := Factory{Kind: BackendAnthropic, Model: "claude-haiku-4-5-20251001"}
	if _, err := f.NewResponder("A", testTable(t), []string{"A", "B"}, 0); err == nil {
		t.Error("anthropic responder built without an API key")
	}
	if _, err := f.NewSummarizer(); err == nil {
		t.Error("anthropic summarizer built without an API key")
	}
}

func TestScriptedFactory(t *testing.T) {
	f := Factory{Kind: BackendScripted, Seed: 7}
	r, err := f.NewResponder("A", testTable(t), []string{"A", "B"}, 0)
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}
	if _, ok := r.(*Scripted); !ok {
		t.Errorf("responder type = %T, want *Scripted", r)
	}
	if _, err := f.NewSummarizer(); err != nil {
		t.Errorf("NewSummarizer: %v", err)
	}
}

func TestWorldModelFallsBack(t *testing.T) {
	wm := NewWorldModel(nil)
	view := sim.WorldView{
		Day:     1,
		MaxDays: 3,
		Schema:  sim.Schema{Fields: []string{"power"}},
		Nations: []sim.NationState{{Name: "A", Dynamic: map[string]float64{"power": 50}}},
		ActionsToday: []sim.Action{
			{Actor: "A", Target: "B", Kind: "attack"},
		},
	}
	c, err := wm.Summarize(view)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if c.Text == "" {
		t.Error("fallback consequence text is empty")
	}
	if c.Usage.TotalTokens != 0 {
		t.Errorf("fallback usage = %+v, want zero", c.Usage)
	}
}

type failingBackend struct{}

func (failingBackend) Complete(system, user string, maxTokens int) (*llm.Result, error) {
	return nil, errors.New("upstream unavailable")
}

func TestWorldModelSurvivesBackendFailure(t *testing.T) {
	wm := NewWorldModel(failingBackend{})
	c, err := wm.Summarize(sim.WorldView{Day: 1, MaxDays: 3})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if c == nil || c.Text == "" {
		t.Error("failing backend left the day without a consequence record")
	}
}
