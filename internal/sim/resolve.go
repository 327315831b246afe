package sim

// Resolver applies a turn's worth of actions to a state snapshot. It is a
// pure value: identical inputs always produce identical outputs, and the
// input snapshot is never mutated.
type Resolver struct {
	Table  EffectTable
	Schema Schema

	// Clamp truncates every dynamic value to its bounds once, after the
	// whole batch has been accumulated. Deltas to the same field sum first,
	// so intra-turn action order never changes a clamped outcome.
	Clamp bool

	// SelfAppliesOtherDelta also applies the target delta to the actor for
	// self-directed and untargeted actions. Off, only the actor delta lands.
	SelfAppliesOtherDelta bool
}

// Resolve applies actions in input order against a copy of states and
// returns the new snapshot, the actions actually applied, and the actions
// dropped (unknown kind, unknown actor, or unknown target).
func (r Resolver) Resolve(states Snapshot, actions []Action) (next Snapshot, applied, dropped []Action) {
	next = states.Clone()

	// Accumulated deltas: nation → field → sum.
	acc := make(map[string]map[string]float64, len(states))
	add := func(nation, field string, delta float64) {
		fields, ok := acc[nation]
		if !ok {
			fields = make(map[string]float64, len(r.Schema.Fields))
			acc[nation] = fields
		}
		fields[field] += delta
	}

	for _, a := range actions {
		spec, ok := r.Table.Lookup(a.Kind)
		if !ok {
			dropped = append(dropped, a)
			continue
		}
		if _, ok := next[a.Actor]; !ok {
			dropped = append(dropped, a)
			continue
		}
		if !a.Untargeted() {
			if _, ok := next[a.Target]; !ok {
				dropped = append(dropped, a)
				continue
			}
		}

		for field, delta := range spec.SelfDeltas {
			add(a.Actor, field, delta)
		}
		switch {
		case a.Untargeted() || a.SelfDirected():
			if r.SelfAppliesOtherDelta {
				for field, delta := range spec.OtherDeltas {
					add(a.Actor, field, delta)
				}
			}
		default:
			for field, delta := range spec.OtherDeltas {
				add(a.Target, field, delta)
			}
		}
		applied = append(applied, a)
	}

	for nation, fields := range acc {
		st := next[nation]
		for field, delta := range fields {
			st.Dynamic[field] += delta
		}
	}

	if r.Clamp {
		for _, st := range next {
			for _, field := range r.Schema.Fields {
				st.Dynamic[field] = r.Schema.Clamp(field, st.Dynamic[field])
			}
		}
	}

	return next, applied, dropped
}
