// Package sim implements the turn-based nation simulation engine: nation
// state, batch action resolution, the day scheduler, the query retry policy,
// and run metrics.
package sim

// Bounds is the inclusive [Min, Max] range for a dynamic variable, enforced
// only when clamping is enabled.
type Bounds struct {
	Min float64
	Max float64
}

// Schema fixes the set of dynamic variables for a run. Every nation carries
// exactly these fields for the lifetime of the simulation.
type Schema struct {
	Fields []string          // catalog order, used for deterministic iteration
	Bounds map[string]Bounds // keyed by field name
}

// Clamp truncates v to the configured bounds for field. Fields without
// bounds pass through unchanged.
func (s Schema) Clamp(field string, v float64) float64 {
	b, ok := s.Bounds[field]
	if !ok {
		return v
	}
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Has reports whether field is part of the schema.
func (s Schema) Has(field string) bool {
	for _, f := range s.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// NationState is the per-nation record: an immutable identity and static
// attributes, plus the mutable dynamic variables the resolver updates.
type NationState struct {
	Name    string
	Static  map[string]string
	Dynamic map[string]float64
}

// Clone returns a deep copy; snapshots never alias each other's maps.
func (n NationState) Clone() NationState {
	st := make(map[string]string, len(n.Static))
	for k, v := range n.Static {
		st[k] = v
	}
	dy := make(map[string]float64, len(n.Dynamic))
	for k, v := range n.Dynamic {
		dy[k] = v
	}
	return NationState{Name: n.Name, Static: st, Dynamic: dy}
}

// Snapshot is the full world state at a point in time, keyed by nation name.
type Snapshot map[string]NationState

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for name, n := range s {
		out[name] = n.Clone()
	}
	return out
}
