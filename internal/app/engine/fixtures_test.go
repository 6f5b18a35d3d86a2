package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"cf_finder/internal/domain/model"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func accepted(contest int, index string, rating model.Rating, at time.Time, tags ...string) model.RawSubmission {
	return model.RawSubmission{
		ContestID:    contest,
		Index:        index,
		Verdict:      model.VerdictAccepted,
		Rating:       rating,
		Name:         "Problem " + index,
		Tags:         tags,
		CreationTime: at,
	}
}

func rejected(contest int, index string, at time.Time) model.RawSubmission {
	s := accepted(contest, index, model.Rated(800), at)
	s.Verdict = "WRONG_ANSWER"
	return s
}

func solved(contest int, index string, rating model.Rating, tags ...string) model.SolvedProblem {
	return model.SolvedProblem{
		ID:        model.ProblemID{ContestID: contest, Index: index},
		Rating:    rating,
		Name:      "Problem " + index,
		Tags:      tags,
		SolveTime: baseTime,
	}
}

func ids[T Record](items []T) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Record().ID.String())
	}
	return out
}

// fakeFetcher serves canned histories keyed by handle.
type fakeFetcher struct {
	subs        map[string][]model.RawSubmission
	errs        map[string]error
	profiles    map[string]model.Profile
	profileErr  error
	delay       time.Duration
	mu          sync.Mutex
	calls       []string
	profileHits atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeFetcher) FetchSubmissions(ctx context.Context, handle string) ([]model.RawSubmission, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, handle)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := f.errs[handle]; ok {
		return nil, err
	}
	return f.subs[handle], nil
}

func (f *fakeFetcher) FetchProfile(_ context.Context, handle string) (model.Profile, error) {
	f.profileHits.Add(1)
	if f.profileErr != nil {
		return model.Profile{}, f.profileErr
	}
	return f.profiles[handle], nil
}
