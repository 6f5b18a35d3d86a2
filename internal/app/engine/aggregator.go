// Package engine turns per-account submission histories into the deduplicated,
// filterable, groupable and sortable problem sets shown to users.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"cf_finder/internal/domain/model"

	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves submission histories and profiles from the judge.
type Fetcher interface {
	FetchSubmissions(ctx context.Context, handle string) ([]model.RawSubmission, error)
	FetchProfile(ctx context.Context, handle string) (model.Profile, error)
}

// FinderQuery selects the accounts to compare. Targets must be non-empty;
// callers validate that before aggregating.
type FinderQuery struct {
	Targets   []string
	Practices []string
	Policy    SelectorPolicy
}

type fetchOutcome struct {
	handle string
	subs   []model.RawSubmission
	err    *FetchError
}

// Aggregator fetches every handle of a query concurrently and combines the
// normalized results.
type Aggregator struct {
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

func NewAggregator(fetcher Fetcher, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{fetcher: fetcher, logger: logger, now: time.Now}
}

// Aggregate returns union(targets) minus union(practices). If any submission
// fetch fails the whole query fails with an *AggregateError listing every
// failing handle; no partial result is returned.
func (a *Aggregator) Aggregate(ctx context.Context, q FinderQuery) (*model.AggregateResult, error) {
	policy := q.Policy
	if policy == "" {
		policy = DefaultFinderPolicy
	}

	handles := make([]string, 0, len(q.Targets)+len(q.Practices))
	handles = append(handles, q.Targets...)
	handles = append(handles, q.Practices...)

	var profile *model.Profile
	var g errgroup.Group
	if len(q.Targets) == 1 {
		g.Go(func() error {
			p, err := a.fetcher.FetchProfile(ctx, q.Targets[0])
			if err != nil {
				a.logger.DebugContext(ctx, "profile enrichment skipped", "handle", q.Targets[0], "error", err)
				return nil
			}
			profile = &p
			return nil
		})
	}
	outcomes := a.fetchAll(ctx, &g, handles)

	var failures []*FetchError
	for _, o := range outcomes {
		if o.err != nil {
			failures = append(failures, o.err)
		}
	}
	if len(failures) > 0 {
		a.logger.WarnContext(ctx, "aggregation failed", "failed", len(failures), "requested", len(handles))
		return nil, &AggregateError{Failures: failures}
	}

	targetSets := make([]*model.UserSolvedSet, 0, len(q.Targets))
	for _, o := range outcomes[:len(q.Targets)] {
		targetSets = append(targetSets, Normalize(o.handle, o.subs, policy))
	}
	practiceSets := make([]*model.UserSolvedSet, 0, len(q.Practices))
	for _, o := range outcomes[len(q.Targets):] {
		practiceSets = append(practiceSets, Normalize(o.handle, o.subs, policy))
	}

	problems := Difference(Union(targetSets...), practiceSets...)
	return &model.AggregateResult{
		Targets:     append([]string(nil), q.Targets...),
		Practices:   append([]string(nil), q.Practices...),
		Policy:      policy.String(),
		Problems:    problems,
		AllTags:     CollectTags(problems),
		Profile:     profile,
		GeneratedAt: a.now(),
	}, nil
}

// fetchAll issues one fetch per handle and waits for every one to settle,
// including any work already scheduled on g. Goroutines never return an
// error, so a failure does not cancel the others.
func (a *Aggregator) fetchAll(ctx context.Context, g *errgroup.Group, handles []string) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(handles))
	for i, handle := range handles {
		g.Go(func() error {
			subs, err := a.fetcher.FetchSubmissions(ctx, handle)
			outcomes[i] = fetchOutcome{handle: handle, subs: subs, err: asFetchError(handle, err)}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// fetchSubmissions fetches a single handle, for single-account modes.
func fetchSubmissions(ctx context.Context, f Fetcher, handle string) ([]model.RawSubmission, *FetchError) {
	subs, err := f.FetchSubmissions(ctx, handle)
	return subs, asFetchError(handle, err)
}

func asFetchError(handle string, err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		out := *fe
		if out.Handle == "" {
			out.Handle = handle
		}
		if out.Comment == "" {
			out.Comment = UnknownHandleComment
		}
		return &out
	}
	network := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	return &FetchError{Handle: handle, Comment: err.Error(), Network: network}
}

// Union merges solved sets in order. When several sets contain the same
// problem, the record from the earliest set wins.
func Union(sets ...*model.UserSolvedSet) *model.UserSolvedSet {
	out := model.NewUserSolvedSet("")
	for _, s := range sets {
		for _, p := range s.Problems() {
			if !out.Has(p.ID) {
				out.Put(p)
			}
		}
	}
	return out
}

// Difference returns the problems of base whose identity appears in none of
// the excluded sets. Only membership of the excluded sets matters.
func Difference(base *model.UserSolvedSet, excluded ...*model.UserSolvedSet) []model.SolvedProblem {
	out := make([]model.SolvedProblem, 0, base.Len())
	for _, p := range base.Problems() {
		if containsID(excluded, p.ID) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func containsID(sets []*model.UserSolvedSet, id model.ProblemID) bool {
	for _, s := range sets {
		if s.Has(id) {
			return true
		}
	}
	return false
}

// CollectTags returns the sorted, de-duplicated union of every item's tags.
func CollectTags[T Record](items []T) []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, item := range items {
		for _, t := range item.Record().Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags
}
