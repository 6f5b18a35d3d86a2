package engine

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"cf_finder/internal/domain/model"
)

// SortKey selects the order of a flat problem list.
type SortKey string

const (
	SortMostRecentFirst SortKey = "most_recent"
	SortOldestFirst     SortKey = "oldest"
	SortContestDesc     SortKey = "contest_desc"
	SortContestAsc      SortKey = "contest_asc"
	SortNameAsc         SortKey = "name_asc"
	SortNameDesc        SortKey = "name_desc"
)

// SortKeys lists every supported key in display order.
var SortKeys = []SortKey{
	SortMostRecentFirst, SortOldestFirst,
	SortContestDesc, SortContestAsc,
	SortNameAsc, SortNameDesc,
}

func ParseSortKey(s string) (SortKey, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if s == "" {
		return SortMostRecentFirst, nil
	}
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", &ValidationError{Field: "sort", Reason: fmt.Sprintf("unknown sort key %q", s)}
}

// Sort returns a new slice ordered by key. The sort is stable, so items with
// equal keys keep their input order.
func Sort[T Record](items []T, key SortKey) []T {
	out := slices.Clone(items)
	compare := comparator(key)
	slices.SortStableFunc(out, func(a, b T) int {
		return compare(a.Record(), b.Record())
	})
	return out
}

func comparator(key SortKey) func(a, b model.SolvedProblem) int {
	switch key {
	case SortOldestFirst:
		return func(a, b model.SolvedProblem) int { return a.SolveTime.Compare(b.SolveTime) }
	case SortContestDesc:
		return func(a, b model.SolvedProblem) int { return compareContest(b, a) }
	case SortContestAsc:
		return compareContest
	case SortNameAsc:
		return compareName
	case SortNameDesc:
		return func(a, b model.SolvedProblem) int { return compareName(b, a) }
	default:
		return func(a, b model.SolvedProblem) int { return b.SolveTime.Compare(a.SolveTime) }
	}
}

func compareContest(a, b model.SolvedProblem) int {
	if c := cmp.Compare(a.ID.ContestID, b.ID.ContestID); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.Index, b.ID.Index)
}

func compareName(a, b model.SolvedProblem) int {
	return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
}
