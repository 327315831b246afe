package nation

import (
	"fmt"
	"math/rand"

	"github.com/talgya/statecraft/internal/sim"
)

// Scripted is a deterministic no-backend responder: each day it picks one
// catalog action and a target at random from a seeded source. Useful for dry
// runs and load-free testing of the full day loop.
type Scripted struct {
	name  string
	rng   *rand.Rand
	kinds []string
	peers []string // other nations plus the untargeted sentinel
}

// NewScripted builds a scripted responder for name over the given catalog
// and full roster. Equal seeds replay identical runs.
func NewScripted(name string, seed int64, table sim.EffectTable, roster []string) *Scripted {
	var peers []string
	for _, n := range roster {
		if n != name {
			peers = append(peers, n)
		}
	}
	peers = append(peers, sim.TargetWorld)
	return &Scripted{
		name:  name,
		rng:   rand.New(rand.NewSource(seed)),
		kinds: table.Kinds(),
		peers: peers,
	}
}

// Respond picks this day's action. Never fails.
func (s *Scripted) Respond(view sim.WorldView) (*sim.Response, error) {
	if len(s.kinds) == 0 {
		return &sim.Response{Reasoning: "No actions available."}, nil
	}
	kind := s.kinds[s.rng.Intn(len(s.kinds))]
	target := s.peers[s.rng.Intn(len(s.peers))]
	return &sim.Response{
		Reasoning: fmt.Sprintf("Scripted policy for %s on day %d.", s.name, view.Day),
		Actions: []sim.Action{{
			Actor:   s.name,
			Target:  target,
			Kind:    kind,
			Content: fmt.Sprintf("%s performs %s", s.name, kind),
		}},
	}, nil
}
