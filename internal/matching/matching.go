// Package matching computes the giver-to-receiver assignment for a gift
// exchange: a permutation of the participants with no fixed points and no
// pair sharing a group.
package matching

import (
	"errors"
	"math/rand"
)

// ErrInfeasible is returned when no valid assignment exists for the given
// participants, e.g. when a single group holds more than half of them.
var ErrInfeasible = errors.New("matching: no valid assignment exists")

// Member is one participant as seen by the engine.
type Member struct {
	ID      int
	GroupID int
}

// shuffleAttempts bounds the randomized fast path. The bound only limits how
// long we try for a *nice* random assignment; feasibility is decided by the
// deterministic fallback, never by exhausting this budget.
const shuffleAttempts = 100

// Engine computes assignments. The zero value is not usable; construct with
// New. An Engine is deterministic for a fixed seed and input order, which
// keeps draws reproducible in tests.
type Engine struct {
	rng *rand.Rand
}

// New returns an Engine seeded with the given value.
func New(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// Assign computes a mapping from giver id to receiver id such that nobody is
// assigned to themselves and nobody is assigned to a member of their own
// group. It first tries random permutations of the receiver order, then
// falls back to a deterministic bipartite matching; ErrInfeasible is
// returned only when the fallback proves that no assignment exists.
func (e *Engine) Assign(members []Member) (map[int]int, error) {
	for attempt := 0; attempt < shuffleAttempts; attempt++ {
		receivers := make([]Member, len(members))
		copy(receivers, members)
		e.rng.Shuffle(len(receivers), func(i, j int) {
			receivers[i], receivers[j] = receivers[j], receivers[i]
		})

		if assignment, ok := validate(members, receivers); ok {
			return assignment, nil
		}
	}
	return augmentingMatch(members)
}

// validate checks the pairing of members[i] -> receivers[i] pointwise and
// returns the id mapping if every pair satisfies both exclusion rules.
func validate(members, receivers []Member) (map[int]int, bool) {
	assignment := make(map[int]int, len(members))
	for i, giver := range members {
		receiver := receivers[i]
		if giver.ID == receiver.ID || giver.GroupID == receiver.GroupID {
			return nil, false
		}
		assignment[giver.ID] = receiver.ID
	}
	return assignment, true
}

// augmentingMatch solves the assignment as a bipartite perfect matching
// between givers and receivers, with edges forbidden on identity and shared
// group. A perfect matching exists iff a valid assignment exists, so a
// failed search is a proof of infeasibility.
func augmentingMatch(members []Member) (map[int]int, error) {
	n := len(members)

	allowed := func(giver, receiver int) bool {
		return giver != receiver && members[giver].GroupID != members[receiver].GroupID
	}

	// matchedGiver[r] is the giver index currently matched to receiver
	// index r, or -1.
	matchedGiver := make([]int, n)
	for i := range matchedGiver {
		matchedGiver[i] = -1
	}

	var extend func(giver int, visited []bool) bool
	extend = func(giver int, visited []bool) bool {
		for receiver := 0; receiver < n; receiver++ {
			if visited[receiver] || !allowed(giver, receiver) {
				continue
			}
			visited[receiver] = true
			if matchedGiver[receiver] == -1 || extend(matchedGiver[receiver], visited) {
				matchedGiver[receiver] = giver
				return true
			}
		}
		return false
	}

	for giver := 0; giver < n; giver++ {
		if !extend(giver, make([]bool, n)) {
			return nil, ErrInfeasible
		}
	}

	assignment := make(map[int]int, n)
	for receiver, giver := range matchedGiver {
		assignment[members[giver].ID] = members[receiver].ID
	}
	return assignment, nil
}
