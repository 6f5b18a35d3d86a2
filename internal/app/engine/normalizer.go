package engine

import "cf_finder/internal/domain/model"

// Normalize converts one account's raw submissions into its solved set.
// Only accepted submissions survive; repeated solves of a problem collapse to
// the one chosen by policy. An empty input yields an empty set.
func Normalize(handle string, subs []model.RawSubmission, policy SelectorPolicy) *model.UserSolvedSet {
	set := model.NewUserSolvedSet(handle)
	for _, sub := range subs {
		if !sub.Accepted() {
			continue
		}
		candidate := model.SolvedProblem{
			ID:        sub.ProblemID(),
			Rating:    sub.Rating,
			Name:      sub.Name,
			Tags:      sub.Tags,
			SolveTime: sub.CreationTime,
		}
		if current, ok := set.Get(candidate.ID); ok && !policy.prefers(candidate, current) {
			continue
		}
		set.Put(candidate)
	}
	return set
}
