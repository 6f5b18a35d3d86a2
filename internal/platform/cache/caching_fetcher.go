package cache

import (
	"context"
	"errors"
	"strings"

	"cf_finder/internal/app/engine"
	"cf_finder/internal/domain/model"

	"golang.org/x/sync/singleflight"
)

// CachingFetcher wraps an engine.Fetcher so that concurrent requests for the
// same handle share one upstream fetch, and successful results are kept in
// the submission cache. Failures are never cached. Profiles pass through.
type CachingFetcher struct {
	next  engine.Fetcher
	cache *SubmissionCache
	sf    singleflight.Group
}

// NewCachingFetcher returns a fetcher deduplicating in-flight requests. cache
// may be nil, in which case only in-flight deduplication applies.
func NewCachingFetcher(next engine.Fetcher, cache *SubmissionCache) *CachingFetcher {
	return &CachingFetcher{next: next, cache: cache}
}

func (f *CachingFetcher) FetchSubmissions(ctx context.Context, handle string) ([]model.RawSubmission, error) {
	if f.cache != nil {
		if subs, ok := f.cache.Get(ctx, handle); ok {
			return subs, nil
		}
	}

	// The shared fetch is detached from any one caller's cancellation; each
	// caller stops waiting on its own context instead. The upstream client's
	// timeout bounds the fetch.
	fetchCtx := context.WithoutCancel(ctx)
	ch := f.sf.DoChan(strings.ToLower(handle), func() (any, error) {
		subs, err := f.next.FetchSubmissions(fetchCtx, handle)
		if err != nil {
			return nil, err
		}
		if f.cache != nil {
			f.cache.Set(fetchCtx, handle, subs)
		}
		return subs, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, withHandle(res.Err, handle)
		}
		return res.Val.([]model.RawSubmission), nil
	}
}

// withHandle reports a shared fetch failure under the caller's spelling of
// the handle.
func withHandle(err error, handle string) error {
	var fe *engine.FetchError
	if !errors.As(err, &fe) || fe.Handle == handle {
		return err
	}
	own := *fe
	own.Handle = handle
	return &own
}

func (f *CachingFetcher) FetchProfile(ctx context.Context, handle string) (model.Profile, error) {
	return f.next.FetchProfile(ctx, handle)
}
