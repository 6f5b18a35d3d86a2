package engine

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"cf_finder/internal/domain/model"
)

const dayMillis = int64(24 * time.Hour / time.Millisecond)

// RatingBounds restricts problems to an inclusive rating range. A nil bound is
// not enforced; an unrated problem fails any enforced bound.
type RatingBounds struct {
	Min *int
	Max *int
}

// Allows reports whether r satisfies every bound that is set.
func (b RatingBounds) Allows(r model.Rating) bool {
	if b.Min == nil && b.Max == nil {
		return true
	}
	v, ok := r.Value()
	if !ok {
		return false
	}
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v > *b.Max {
		return false
	}
	return true
}

// RevisionQuery selects the account to rank.
type RevisionQuery struct {
	Handle string
	Bounds RatingBounds
	Policy SelectorPolicy
}

// Ranker orders one account's solved problems by staleness.
type Ranker struct {
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

func NewRanker(fetcher Fetcher, logger *slog.Logger) *Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{fetcher: fetcher, logger: logger, now: time.Now}
}

// Rank fetches and normalizes the account and returns its problems stalest
// first. A fetch failure is returned as the upstream *FetchError.
func (r *Ranker) Rank(ctx context.Context, q RevisionQuery) (*model.RevisionResult, error) {
	policy := q.Policy
	if policy == "" {
		policy = DefaultRevisionPolicy
	}
	subs, ferr := fetchSubmissions(ctx, r.fetcher, q.Handle)
	if ferr != nil {
		r.logger.WarnContext(ctx, "revision fetch failed", "handle", q.Handle, "error", ferr)
		return nil, ferr
	}

	now := r.now()
	entries := RankByStaleness(Normalize(q.Handle, subs, policy), q.Bounds, now)
	return &model.RevisionResult{
		Handle:      q.Handle,
		MinRating:   q.Bounds.Min,
		MaxRating:   q.Bounds.Max,
		Entries:     entries,
		AllTags:     CollectTags(entries),
		GeneratedAt: now,
	}, nil
}

// RankByStaleness applies bounds and sorts by descending days since solve.
// Equal staleness keeps the set's order.
func RankByStaleness(set *model.UserSolvedSet, bounds RatingBounds, now time.Time) []model.RevisionEntry {
	entries := make([]model.RevisionEntry, 0, set.Len())
	for _, p := range set.Problems() {
		if !bounds.Allows(p.Rating) {
			continue
		}
		entries = append(entries, model.RevisionEntry{
			SolvedProblem:  p,
			DaysSinceSolve: DaysSince(p.SolveTime, now),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DaysSinceSolve > entries[j].DaysSinceSolve
	})
	return entries
}

// DaysSince returns whole days elapsed between t and now, never negative.
func DaysSince(t, now time.Time) int {
	elapsed := now.UnixMilli() - t.UnixMilli()
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / dayMillis)
}
