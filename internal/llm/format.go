package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/talgya/statecraft/internal/sim"
)

// staticPairs returns static attributes as sorted key/value pairs for
// deterministic prompt text.
func staticPairs(static map[string]string) [][2]string {
	keys := make([]string, 0, len(static))
	for k := range static {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, static[k]})
	}
	return out
}

// FormatNationStates renders every nation's dynamic variables as a compact
// text table in schema field order.
func FormatNationStates(view sim.WorldView) string {
	var b strings.Builder
	for _, n := range view.Nations {
		fmt.Fprintf(&b, "%s:", n.Name)
		for _, field := range view.Schema.Fields {
			fmt.Fprintf(&b, " %s=%.1f", field, n.Dynamic[field])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatActions renders a day's actions one per line.
func FormatActions(actions []sim.Action) string {
	if len(actions) == 0 {
		return "(no actions)"
	}
	var b strings.Builder
	for _, a := range actions {
		if a.Content != "" {
			fmt.Fprintf(&b, "- %s → %s: %s (%s)\n", a.Actor, a.Target, a.Kind, a.Content)
		} else {
			fmt.Fprintf(&b, "- %s → %s: %s\n", a.Actor, a.Target, a.Kind)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
