package engine

import (
	"fmt"
	"strings"

	"cf_finder/internal/domain/model"
)

// SelectorPolicy decides which accepted submission represents a problem when
// one account solved it more than once.
type SelectorPolicy string

const (
	// PolicyEarliest keeps the first accepted submission.
	PolicyEarliest SelectorPolicy = "earliest"
	// PolicyMostRecent keeps the last accepted submission.
	PolicyMostRecent SelectorPolicy = "most_recent"
)

// Default policies per mode. Both modes use most-recent; they are separate
// names so a mode can change without touching the other.
const (
	DefaultFinderPolicy   = PolicyMostRecent
	DefaultRevisionPolicy = PolicyMostRecent
)

func (p SelectorPolicy) String() string { return string(p) }

func (p SelectorPolicy) Valid() bool {
	return p == PolicyEarliest || p == PolicyMostRecent
}

// ParseSelectorPolicy accepts "earliest", "most_recent" and "most-recent".
// An empty string yields fallback.
func ParseSelectorPolicy(s string, fallback SelectorPolicy) (SelectorPolicy, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return fallback, nil
	}
	p := SelectorPolicy(strings.ReplaceAll(s, "-", "_"))
	if !p.Valid() {
		return "", &ValidationError{Field: "policy", Reason: fmt.Sprintf("unknown selector policy %q", s)}
	}
	return p, nil
}

// prefers reports whether candidate should replace current. Equal solve
// times keep current, so the first one scanned wins.
func (p SelectorPolicy) prefers(candidate, current model.SolvedProblem) bool {
	if p == PolicyEarliest {
		return candidate.SolveTime.Before(current.SolveTime)
	}
	return candidate.SolveTime.After(current.SolveTime)
}

// Select returns the representative among candidates sharing one identity.
func (p SelectorPolicy) Select(candidates []model.SolvedProblem) (model.SolvedProblem, bool) {
	if len(candidates) == 0 {
		return model.SolvedProblem{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if p.prefers(c, best) {
			best = c
		}
	}
	return best, true
}
