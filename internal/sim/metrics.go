package sim

// Usage aggregates token and latency costs from collaborator calls.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CompletionSec    float64
}

// Add accumulates v into u.
func (u *Usage) Add(v Usage) {
	u.PromptTokens += v.PromptTokens
	u.CompletionTokens += v.CompletionTokens
	u.TotalTokens += v.TotalTokens
	u.CompletionSec += v.CompletionSec
}

// DayMetrics holds the per-day counts derived from one resolved turn.
type DayMetrics struct {
	Day       int
	Actions   int            // actions applied this day
	TagCounts map[string]int // classification tag → count
	Responses int            // nations that answered this day
	Usage     Usage          // summed response costs
}

// Metrics tracks rolling per-day and run-wide counts of action
// classifications and response costs. It observes resolved turns and never
// influences resolution or scheduling.
type Metrics struct {
	table  EffectTable
	days   []DayMetrics
	sums   map[string]int
	maxima map[string]int
	usage  Usage
}

// NewMetrics builds an aggregator over the run's effect table.
func NewMetrics(table EffectTable) *Metrics {
	return &Metrics{
		table:  table,
		sums:   make(map[string]int),
		maxima: make(map[string]int),
	}
}

// ObserveDay records the applied actions and collected responses for one
// completed day. Dropped actions never reach here.
func (m *Metrics) ObserveDay(day int, actions []Action, responses []*Response) {
	dm := DayMetrics{
		Day:       day,
		Actions:   len(actions),
		TagCounts: make(map[string]int),
	}

	for _, a := range actions {
		spec, ok := m.table.Lookup(a.Kind)
		if !ok {
			continue
		}
		for _, tag := range spec.Tags {
			dm.TagCounts[tag]++
		}
	}

	for _, r := range responses {
		if r == nil {
			continue
		}
		dm.Responses++
		dm.Usage.Add(r.Usage)
	}

	m.days = append(m.days, dm)
	m.usage.Add(dm.Usage)
	for tag, n := range dm.TagCounts {
		m.sums[tag] += n
		if n > m.maxima[tag] {
			m.maxima[tag] = n
		}
	}
}

// Days returns a copy of the per-day metrics in day order.
func (m *Metrics) Days() []DayMetrics {
	out := make([]DayMetrics, len(m.days))
	copy(out, m.days)
	return out
}

// Sum returns the cumulative count for a tag across all observed days.
func (m *Metrics) Sum(tag string) int {
	return m.sums[tag]
}

// Max returns the highest single-day count for a tag.
func (m *Metrics) Max(tag string) int {
	return m.maxima[tag]
}

// TotalUsage returns the run-wide summed response costs.
func (m *Metrics) TotalUsage() Usage {
	return m.usage
}
