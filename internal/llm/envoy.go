// Nation envoy cognition — prompts a backend for a day's orders and parses
// the completion into validated actions.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/talgya/statecraft/internal/sim"
)

// ordersSchema validates the JSON object extracted from a completion before
// it is decoded. Models wrap the payload in prose often enough that shape
// errors must be caught here, at the collaborator boundary.
var ordersSchema = jsonschema.MustCompileString("orders.schema.json", `{
	"type": "object",
	"required": ["actions"],
	"properties": {
		"reasoning": {"type": "string"},
		"actions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["action"],
				"properties": {
					"action": {"type": "string"},
					"other": {"type": "string"},
					"content": {"type": "string"}
				}
			}
		},
		"messages": {"type": "object"}
	}
}`)

// Orders is a nation's decoded answer for one day.
type Orders struct {
	Reasoning string
	Actions   []sim.Action
	Messages  map[string]string
}

// GenerateOrders prompts the backend for the named nation's orders and
// returns them with the raw call result.
func GenerateOrders(b Backend, name string, view sim.WorldView) (*Orders, *Result, error) {
	system := buildEnvoySystemPrompt(name, view)
	user := buildEnvoyUserPrompt(name, view)

	res, err := b.Complete(system, user, 1500)
	if err != nil {
		return nil, nil, fmt.Errorf("envoy completion: %w", err)
	}

	orders, err := ParseOrders(name, res.Text)
	if err != nil {
		return nil, res, err
	}
	return orders, res, nil
}

func buildEnvoySystemPrompt(name string, view sim.WorldView) string {
	var b strings.Builder

	self, _ := view.Nation(name)
	fmt.Fprintf(&b, "You are the national security AI advisor of %s in a multi-day geopolitical simulation with %d powers.\n", name, len(view.Nations))
	for _, kv := range staticPairs(self.Static) {
		fmt.Fprintf(&b, "%s: %s\n", kv[0], kv[1])
	}
	b.WriteString("\nEach day you choose zero or more actions from the following menu:\n")
	for _, spec := range view.Catalog {
		if len(spec.Tags) > 0 {
			fmt.Fprintf(&b, "- %s (%s)\n", spec.Kind, strings.Join(spec.Tags, ", "))
		} else {
			fmt.Fprintf(&b, "- %s\n", spec.Kind)
		}
	}
	fmt.Fprintf(&b, `
Respond ONLY with a JSON object of the form:
{
  "reasoning": "one paragraph explaining your strategy",
  "actions": [{"action": "<action name>", "other": "<target nation or %q>", "content": "free text"}],
  "messages": {"<recipient nation>": "diplomatic message text"}
}`, sim.TargetWorld)
	return b.String()
}

func buildEnvoyUserPrompt(name string, view sim.WorldView) string {
	var b strings.Builder

	fmt.Fprintf(&b, "It is day %d of %d.\n\n", view.Day, view.MaxDays)

	if view.Scenario != "" {
		fmt.Fprintf(&b, "Scenario:\n%s\n\n", view.Scenario)
	}

	b.WriteString("Current state of all powers:\n")
	b.WriteString(FormatNationStates(view))
	b.WriteString("\n")

	if len(view.History) > 0 {
		b.WriteString("Consequences so far:\n")
		for _, c := range view.History {
			fmt.Fprintf(&b, "## Day %d ##\n%s\n\n", c.Day, c.Text)
		}
	}

	fmt.Fprintf(&b, "What does %s do today? Respond with a single JSON object.", name)
	return b.String()
}

// ParseOrders extracts the JSON object from a completion (models may wrap it
// in prose), validates its shape, and decodes it into orders attributed to
// the named actor.
func ParseOrders(actor, completion string) (*Orders, error) {
	start := strings.Index(completion, "{")
	end := strings.LastIndex(completion, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object found in completion")
	}
	jsonStr := completion[start : end+1]

	var raw any
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("parse orders: %w", err)
	}
	if err := ordersSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid orders payload: %w", err)
	}

	var payload struct {
		Reasoning string `json:"reasoning"`
		Actions   []struct {
			Action  string `json:"action"`
			Other   string `json:"other"`
			Content string `json:"content"`
		} `json:"actions"`
		Messages map[string]any `json:"messages"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	orders := &Orders{Reasoning: payload.Reasoning}
	if orders.Reasoning == "" {
		orders.Reasoning = "*model outputted no reasoning*"
	}
	for _, a := range payload.Actions {
		target := a.Other
		if target == "" {
			target = sim.TargetWorld
		}
		orders.Actions = append(orders.Actions, sim.Action{
			Actor:   actor,
			Target:  target,
			Kind:    a.Action,
			Content: a.Content,
		})
	}
	orders.Messages = cleanMessages(payload.Messages)
	return orders, nil
}

// cleanMessages forces each message into a non-empty string, joining list
// values and dropping blanks.
func cleanMessages(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for recipient, v := range raw {
		var text string
		switch m := v.(type) {
		case string:
			text = m
		case []any:
			parts := make([]string, 0, len(m))
			for _, p := range m {
				parts = append(parts, fmt.Sprint(p))
			}
			text = strings.Join(parts, " ")
		default:
			text = fmt.Sprint(m)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		out[recipient] = text
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
