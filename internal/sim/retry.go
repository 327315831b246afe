package sim

import (
	"log/slog"
	"time"
)

// DefaultBackoff is the pause between query attempts. It is a politeness
// measure toward the backend, not a correctness requirement.
const DefaultBackoff = time.Second

// Retry wraps a single nation query in a bounded-attempt loop. Each failure
// is logged as a warning and retried after a fixed backoff; exhaustion
// returns nil so the caller can treat the nation as silent for the turn.
type Retry struct {
	MaxAttempts int
	Backoff     time.Duration

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewRetry builds a policy with the given attempt budget and backoff.
func NewRetry(maxAttempts int, backoff time.Duration) Retry {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return Retry{MaxAttempts: maxAttempts, Backoff: backoff, sleep: time.Sleep}
}

// Query asks the responder for the nation's turn. It returns the first
// successful response, or nil once every attempt has failed.
func (r Retry) Query(name string, agent Responder, view WorldView) *Response {
	pause := r.sleep
	if pause == nil {
		pause = time.Sleep
	}

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		resp, err := agent.Respond(view)
		if err == nil && resp != nil {
			return resp
		}
		slog.Warn("nation query failed",
			"nation", name,
			"day", view.Day,
			"attempt", attempt,
			"max_attempts", r.MaxAttempts,
			"error", err,
		)
		if attempt < r.MaxAttempts {
			pause(r.Backoff)
		}
	}
	return nil
}
