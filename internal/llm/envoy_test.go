package llm

import (
	"testing"

	"github.com/talgya/statecraft/internal/sim"
)

func TestParseOrdersExtractsFromProse(t *testing.T) {
	completion := `Sure, here is my plan for the day.

{
  "reasoning": "Hold the line and open trade.",
  "actions": [
    {"action": "trade", "other": "B", "content": "grain for steel"},
    {"action": "wait"}
  ],
  "messages": {"B": "We propose a trade deal."}
}

Let me know if you need anything else.`

	orders, err := ParseOrders("A", completion)
	if err != nil {
		t.Fatalf("ParseOrders: %v", err)
	}
	if orders.Reasoning != "Hold the line and open trade." {
		t.Errorf("reasoning = %q", orders.Reasoning)
	}
	if len(orders.Actions) != 2 {
		t.Fatalf("actions = %d, want 2", len(orders.Actions))
	}
	first := orders.Actions[0]
	if first.Actor != "A" || first.Target != "B" || first.Kind != "trade" || first.Content != "grain for steel" {
		t.Errorf("first action = %+v", first)
	}
	// A missing target means the action is aimed at the world at large.
	if second := orders.Actions[1]; second.Target != sim.TargetWorld {
		t.Errorf("second action target = %q, want %q", second.Target, sim.TargetWorld)
	}
	if orders.Messages["B"] != "We propose a trade deal." {
		t.Errorf("messages = %v", orders.Messages)
	}
}

func TestParseOrdersDefaultsEmptyReasoning(t *testing.T) {
	orders, err := ParseOrders("A", `{"actions": []}`)
	if err != nil {
		t.Fatalf("ParseOrders: %v", err)
	}
	if orders.Reasoning != "*model outputted no reasoning*" {
		t.Errorf("reasoning = %q", orders.Reasoning)
	}
	if len(orders.Actions) != 0 {
		t.Errorf("actions = %v, want none", orders.Actions)
	}
}

func TestParseOrdersRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"no JSON at all":        "I refuse to answer in the requested format.",
		"actions missing":       `{"reasoning": "hmm"}`,
		"actions not an array":  `{"actions": "attack everyone"}`,
		"action item not typed": `{"actions": [{"action": 7}]}`,
		"item missing action":   `{"actions": [{"other": "B"}]}`,
	}
	for name, completion := range cases {
		if _, err := ParseOrders("A", completion); err == nil {
			t.Errorf("%s: ParseOrders accepted %q", name, completion)
		}
	}
}

func TestParseOrdersJoinsListMessages(t *testing.T) {
	orders, err := ParseOrders("A", `{"actions": [], "messages": {"B": ["first", "second"], "C": "  "}}`)
	if err != nil {
		t.Fatalf("ParseOrders: %v", err)
	}
	if orders.Messages["B"] != "first second" {
		t.Errorf("B message = %q", orders.Messages["B"])
	}
	if _, ok := orders.Messages["C"]; ok {
		t.Error("blank message to C was kept")
	}
}

func TestFormatNationStates(t *testing.T) {
	view := sim.WorldView{
		Schema: sim.Schema{Fields: []string{"power", "wealth"}},
		Nations: []sim.NationState{
			{Name: "A", Dynamic: map[string]float64{"power": 50, "wealth": 62.5}},
		},
	}
	got := FormatNationStates(view)
	want := "A: power=50.0 wealth=62.5\n"
	if got != want {
		t.Errorf("FormatNationStates = %q, want %q", got, want)
	}
}
