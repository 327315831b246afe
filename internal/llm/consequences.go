// Consequence narration — the world model turns a resolved day into prose
// that feeds the next day's context.
package llm

import (
	"fmt"
	"strings"

	"github.com/talgya/statecraft/internal/sim"
)

// GenerateConsequences narrates the day described by view (its ActionsToday
// and post-resolution states). With a nil or failing backend it falls back
// to a deterministic plain-text summary, so a day always gets a record.
func GenerateConsequences(b Backend, view sim.WorldView) (string, *Result, error) {
	if b == nil {
		return fallbackConsequences(view), nil, nil
	}

	system := `You are the world model of a multi-nation geopolitical simulation. Each day, nations take actions toward one another and you narrate the consequences: how the situation develops, which tensions rise or ease, and how the public and international community react.

Write 2-4 paragraphs of neutral, factual narration. Refer to nations by name. Do not invent actions that did not occur. Do not break character or reference the simulation.`

	prompt := buildConsequencesPrompt(view)

	res, err := b.Complete(system, prompt, 800)
	if err != nil {
		return fallbackConsequences(view), nil, fmt.Errorf("consequence narration: %w", err)
	}
	return res.Text, res, nil
}

func buildConsequencesPrompt(view sim.WorldView) string {
	var b strings.Builder

	// view.Day has already advanced past the day being narrated.
	fmt.Fprintf(&b, "Day %d of %d has just concluded.\n\n", view.Day-1, view.MaxDays)

	if view.Scenario != "" {
		fmt.Fprintf(&b, "Scenario:\n%s\n\n", view.Scenario)
	}

	b.WriteString("Actions taken today:\n")
	b.WriteString(FormatActions(view.ActionsToday))
	b.WriteString("\n\n")

	b.WriteString("State of all powers after today's actions:\n")
	b.WriteString(FormatNationStates(view))
	b.WriteString("\n")

	if n := len(view.History); n > 0 {
		// Last few records only; prompts must not grow without bound.
		start := n - 3
		if start < 0 {
			start = 0
		}
		b.WriteString("Recent history:\n")
		for _, c := range view.History[start:] {
			fmt.Fprintf(&b, "## Day %d ##\n%s\n\n", c.Day, c.Text)
		}
	}

	b.WriteString("Narrate the consequences of today's actions.")
	return b.String()
}

func fallbackConsequences(view sim.WorldView) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Day %d concluded.\n", view.Day-1)
	if len(view.ActionsToday) == 0 {
		b.WriteString("No actions were taken; the situation holds steady.\n")
	} else {
		b.WriteString("Actions taken:\n")
		b.WriteString(FormatActions(view.ActionsToday))
		b.WriteString("\n")
	}
	b.WriteString("Resulting state:\n")
	b.WriteString(FormatNationStates(view))
	return strings.TrimRight(b.String(), "\n")
}
