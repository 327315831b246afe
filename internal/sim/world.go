package sim

import (
	"fmt"
	"log/slog"
	"sort"
)

// Phase is the scheduler's position in the day state machine.
type Phase uint8

const (
	PhaseInitialized Phase = iota
	PhaseCollecting        // querying nations for this day's responses
	PhaseResolving         // applying the collected actions
	PhaseSummarizing       // world model narrating consequences
	PhaseAdvanced          // metrics updated, day complete
	PhaseCompleted         // all configured days simulated
	PhaseAborted           // fatal blackout, no further turns
)

func (p Phase) String() string {
	switch p {
	case PhaseInitialized:
		return "initialized"
	case PhaseCollecting:
		return "collecting_responses"
	case PhaseResolving:
		return "resolving_actions"
	case PhaseSummarizing:
		return "summarizing"
	case PhaseAdvanced:
		return "advanced"
	case PhaseCompleted:
		return "completed"
	case PhaseAborted:
		return "aborted"
	}
	return "unknown"
}

// Responder is the external nation-query collaborator. Respond may block
// for the duration of a backend call; any failure is reported as an error
// regardless of cause.
type Responder interface {
	Respond(view WorldView) (*Response, error)
}

// Summarizer is the external consequence-narration collaborator, invoked
// exactly once per completed day after resolution.
type Summarizer interface {
	Summarize(view WorldView) (*Consequence, error)
}

// Response is one nation's validated answer for one day.
type Response struct {
	Reasoning string
	Actions   []Action
	Messages  map[string]string // recipient nation → message text
	Usage     Usage
}

// Consequence is the world model's narrative record for one completed day.
type Consequence struct {
	Day   int
	Text  string
	Usage Usage
}

// WorldView is the read-only snapshot handed to collaborators. Everything
// in it is a copy; collaborators never see live engine state.
type WorldView struct {
	Day      int
	MaxDays  int
	Scenario string // optional day-0 framing text

	Schema  Schema
	Nations []NationState // roster order
	Catalog []EffectSpec  // catalog order

	History []Consequence // completed days, ascending

	// ActionsToday is set only on the view given to the Summarizer: the
	// actions just applied for the day being narrated.
	ActionsToday []Action
}

// Nation finds a nation state in the view by name.
func (v WorldView) Nation(name string) (NationState, bool) {
	for _, n := range v.Nations {
		if n.Name == name {
			return n, true
		}
	}
	return NationState{}, false
}

// DayReport is emitted after each completed day for observers such as the
// run archive. All fields are copies.
type DayReport struct {
	Day         int
	States      Snapshot
	Actions     []Action // applied
	Dropped     []Action
	Responses   map[string]*Response // by nation; silent nations absent
	Consequence Consequence
}

// Roster binds one nation's initial state to its responder.
type Roster struct {
	State NationState
	Agent Responder
}

// Config carries the run-level parameters for a World.
type Config struct {
	Schema                Schema
	Table                 EffectTable
	MaxDays               int
	ClampValues           bool
	SelfAppliesOtherDelta bool
	Scenario              string
	Retry                 Retry
}

// BlackoutError is the fatal condition where every nation exhausted its
// retry budget in the same turn.
type BlackoutError struct {
	Day     int
	Retries int
}

func (e *BlackoutError) Error() string {
	return fmt.Sprintf("all nations exceeded max retries (%d) on day %d", e.Retries, e.Day)
}

// World owns the complete simulation state and drives it one day at a time:
// query every nation, resolve the collected actions, narrate consequences,
// advance the day. Only World mutates the state snapshot, the day counter,
// and the consequence history.
type World struct {
	schema   Schema
	table    EffectTable
	resolver Resolver
	retry    Retry
	scenario string

	order  []string // roster order
	states Snapshot
	agents map[string]Responder

	day     int
	maxDays int
	phase   Phase

	history map[int]Consequence
	metrics *Metrics

	worldModel Summarizer

	// OnDay, when set, observes each completed day. Errors in the observer
	// are the observer's problem; it is called after the day is final.
	OnDay func(DayReport)
}

// NewWorld validates the configuration and builds a world at day 0.
// A dynamic-field mismatch between roster and catalog is fatal here,
// before any turn runs.
func NewWorld(cfg Config, roster []Roster, worldModel Summarizer) (*World, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("empty nation roster")
	}
	if cfg.MaxDays < 0 {
		return nil, fmt.Errorf("max days must be >= 0, got %d", cfg.MaxDays)
	}
	if worldModel == nil {
		return nil, fmt.Errorf("world model summarizer is required")
	}

	w := &World{
		schema: cfg.Schema,
		table:  cfg.Table,
		resolver: Resolver{
			Table:                 cfg.Table,
			Schema:                cfg.Schema,
			Clamp:                 cfg.ClampValues,
			SelfAppliesOtherDelta: cfg.SelfAppliesOtherDelta,
		},
		retry:      cfg.Retry,
		scenario:   cfg.Scenario,
		states:     make(Snapshot, len(roster)),
		agents:     make(map[string]Responder, len(roster)),
		maxDays:    cfg.MaxDays,
		phase:      PhaseInitialized,
		history:    make(map[int]Consequence),
		metrics:    NewMetrics(cfg.Table),
		worldModel: worldModel,
	}

	for _, r := range roster {
		name := r.State.Name
		if name == "" {
			return nil, fmt.Errorf("nation with empty name in roster")
		}
		if name == TargetWorld {
			return nil, fmt.Errorf("nation name %q collides with the untargeted sentinel", name)
		}
		if _, dup := w.states[name]; dup {
			return nil, fmt.Errorf("duplicate nation %q in roster", name)
		}
		if r.Agent == nil {
			return nil, fmt.Errorf("nation %q has no responder", name)
		}
		if err := checkFields(cfg.Schema, r.State); err != nil {
			return nil, err
		}
		w.order = append(w.order, name)
		w.states[name] = r.State.Clone()
		w.agents[name] = r.Agent
	}

	for _, spec := range cfg.Table.Specs() {
		for field := range spec.SelfDeltas {
			if !cfg.Schema.Has(field) {
				return nil, fmt.Errorf("action %q references unknown field %q", spec.Kind, field)
			}
		}
		for field := range spec.OtherDeltas {
			if !cfg.Schema.Has(field) {
				return nil, fmt.Errorf("action %q references unknown field %q", spec.Kind, field)
			}
		}
	}

	return w, nil
}

func checkFields(schema Schema, st NationState) error {
	if len(st.Dynamic) != len(schema.Fields) {
		return fmt.Errorf("nation %q has %d dynamic fields, schema has %d",
			st.Name, len(st.Dynamic), len(schema.Fields))
	}
	for _, f := range schema.Fields {
		if _, ok := st.Dynamic[f]; !ok {
			return fmt.Errorf("nation %q missing dynamic field %q", st.Name, f)
		}
	}
	return nil
}

// Day returns the current day counter.
func (w *World) Day() int { return w.day }

// MaxDays returns the last day the run will simulate.
func (w *World) MaxDays() int { return w.maxDays }

// Phase returns the scheduler's current phase.
func (w *World) Phase() Phase { return w.phase }

// Metrics returns the run's aggregator.
func (w *World) Metrics() *Metrics { return w.metrics }

// States returns a copy of the current state snapshot.
func (w *World) States() Snapshot { return w.states.Clone() }

// NationNames returns the roster order.
func (w *World) NationNames() []string {
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}

// History returns the consequence records for all completed days, ascending.
func (w *World) History() []Consequence {
	days := make([]int, 0, len(w.history))
	for d := range w.history {
		days = append(days, d)
	}
	sort.Ints(days)
	out := make([]Consequence, 0, len(days))
	for _, d := range days {
		out = append(out, w.history[d])
	}
	return out
}

// View builds the read-only world view for the current day.
func (w *World) View() WorldView {
	v := WorldView{
		Day:      w.day,
		MaxDays:  w.maxDays,
		Scenario: w.scenario,
		Schema:   w.schema,
		Catalog:  w.table.Specs(),
		History:  w.History(),
	}
	for _, name := range w.order {
		v.Nations = append(v.Nations, w.states[name].Clone())
	}
	return v
}

// Run simulates every configured day. It returns nil once day maxDays has
// been resolved and summarized, or the fatal error that aborted the run.
func (w *World) Run() error {
	if w.phase == PhaseCompleted || w.phase == PhaseAborted {
		return fmt.Errorf("world already finished in phase %s", w.phase)
	}
	for w.day <= w.maxDays {
		if err := w.Step(); err != nil {
			return err
		}
	}
	w.phase = PhaseCompleted
	slog.Info("simulation complete", "days", len(w.history))
	return nil
}

// Step runs exactly one day: collect, resolve, summarize, advance.
func (w *World) Step() error {
	slog.Info("beginning day", "day", w.day, "max_days", w.maxDays)

	// Collect responses nation by nation, in roster order.
	w.phase = PhaseCollecting
	view := w.View()
	responses := make(map[string]*Response, len(w.order))
	var queued []Action
	failed := 0
	for _, name := range w.order {
		resp := w.retry.Query(name, w.agents[name], view)
		if resp == nil {
			slog.Error("max retries exceeded, nation silent for the day",
				"nation", name, "day", w.day)
			failed++
			continue
		}
		slog.Info("nation responded",
			"nation", name,
			"day", w.day,
			"actions", len(resp.Actions),
			"total_tokens", resp.Usage.TotalTokens,
			"completion_sec", fmt.Sprintf("%.2f", resp.Usage.CompletionSec),
		)
		responses[name] = resp
		queued = append(queued, resp.Actions...)
	}

	if failed == len(w.order) {
		w.phase = PhaseAborted
		err := &BlackoutError{Day: w.day, Retries: w.retry.MaxAttempts}
		slog.Error("ending simulation", "error", err)
		return err
	}

	// Resolve the day's actions against the current snapshot.
	w.phase = PhaseResolving
	next, applied, dropped := w.resolver.Resolve(w.states, queued)
	for _, a := range dropped {
		slog.Warn("dropping unresolvable action",
			"day", w.day, "actor", a.Actor, "target", a.Target, "kind", a.Kind)
	}
	w.states = next

	// Advance the day and narrate what just happened.
	w.phase = PhaseSummarizing
	completed := w.day
	w.day++

	sumView := w.View()
	sumView.ActionsToday = append([]Action(nil), applied...)
	cons, err := w.worldModel.Summarize(sumView)
	if err != nil || cons == nil {
		slog.Warn("consequence summary failed", "day", completed, "error", err)
		cons = &Consequence{}
	}
	record := *cons
	record.Day = completed
	w.history[completed] = record

	// Derived metrics and observers.
	w.phase = PhaseAdvanced
	ordered := make([]*Response, 0, len(responses))
	for _, name := range w.order {
		if r, ok := responses[name]; ok {
			ordered = append(ordered, r)
		}
	}
	w.metrics.ObserveDay(completed, applied, ordered)

	if w.OnDay != nil {
		w.OnDay(DayReport{
			Day:         completed,
			States:      w.states.Clone(),
			Actions:     append([]Action(nil), applied...),
			Dropped:     append([]Action(nil), dropped...),
			Responses:   responses,
			Consequence: record,
		})
	}

	slog.Info("day concluded",
		"day", completed,
		"responded", len(responses),
		"silent", failed,
		"actions_applied", len(applied),
		"actions_dropped", len(dropped),
	)
	return nil
}
