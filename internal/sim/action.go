package sim

// TargetWorld is the sentinel target for untargeted actions.
const TargetWorld = "World"

// Action is a single typed interaction proposed by one nation during a turn.
// Actions live for one turn: collected from responses, consumed by the
// resolver, retained only in the run archive.
type Action struct {
	Actor   string `json:"self"`
	Target  string `json:"other"`
	Kind    string `json:"action"`
	Content string `json:"content"`
}

// Untargeted reports whether the action has no real target nation.
func (a Action) Untargeted() bool {
	return a.Target == "" || a.Target == TargetWorld
}

// SelfDirected reports whether the action targets its own actor.
func (a Action) SelfDirected() bool {
	return a.Target == a.Actor
}

// EffectSpec describes one action kind: the signed deltas applied to the
// actor and to the target, and the classification tags used for metrics.
type EffectSpec struct {
	Kind        string
	SelfDeltas  map[string]float64 // field → delta applied to the actor
	OtherDeltas map[string]float64 // field → delta applied to the target
	Tags        []string
}

// HasTag reports whether the spec carries the given classification tag.
func (e EffectSpec) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// EffectTable is the immutable catalog of action kinds for a run.
type EffectTable struct {
	specs map[string]EffectSpec
	kinds []string // catalog order
}

// NewEffectTable builds a table from catalog-ordered specs.
func NewEffectTable(specs []EffectSpec) EffectTable {
	t := EffectTable{specs: make(map[string]EffectSpec, len(specs))}
	for _, s := range specs {
		if _, dup := t.specs[s.Kind]; dup {
			continue
		}
		t.specs[s.Kind] = s
		t.kinds = append(t.kinds, s.Kind)
	}
	return t
}

// Lookup returns the spec for an action kind.
func (t EffectTable) Lookup(kind string) (EffectSpec, bool) {
	s, ok := t.specs[kind]
	return s, ok
}

// Kinds returns the action kinds in catalog order.
func (t EffectTable) Kinds() []string {
	out := make([]string, len(t.kinds))
	copy(out, t.kinds)
	return out
}

// Specs returns the effect specs in catalog order.
func (t EffectTable) Specs() []EffectSpec {
	out := make([]EffectSpec, 0, len(t.kinds))
	for _, k := range t.kinds {
		out = append(out, t.specs[k])
	}
	return out
}

// Tags returns the distinct classification tags in first-seen catalog order.
func (t EffectTable) Tags() []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range t.kinds {
		for _, tag := range t.specs[k].Tags {
			if !seen[tag] {
				seen[tag] = true
				out = append(out, tag)
			}
		}
	}
	return out
}

// Len returns the number of action kinds in the table.
func (t EffectTable) Len() int {
	return len(t.kinds)
}
