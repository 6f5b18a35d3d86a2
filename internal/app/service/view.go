package service

import (
	"cf_finder/internal/app/engine"
	"cf_finder/internal/domain/model"
)

// ViewOptions are the interactive presentation choices. An empty GroupBy
// yields a flat list.
type ViewOptions struct {
	Tags    []string
	TagMode engine.TagMode
	SortKey engine.SortKey
	GroupBy engine.GroupKey
}

type FinderView struct {
	Targets   []string                              `json:"targets"`
	Practices []string                              `json:"practices"`
	Profile   *model.Profile                        `json:"profile,omitempty"`
	AllTags   []string                              `json:"allTags"`
	Total     int                                   `json:"total"`
	Problems  []model.SolvedProblem                 `json:"problems,omitempty"`
	Buckets   []engine.Bucket[model.SolvedProblem] `json:"buckets,omitempty"`
}

type RevisionView struct {
	Handle  string                                `json:"handle"`
	AllTags []string                              `json:"allTags"`
	Total   int                                   `json:"total"`
	Entries []model.RevisionEntry                 `json:"entries,omitempty"`
	Buckets []engine.Bucket[model.RevisionEntry] `json:"buckets,omitempty"`
}

// BuildFinderView filters, sorts and optionally groups a finder result.
// The tag vocabulary is always the unfiltered one so a UI can offer it.
func BuildFinderView(res *model.AggregateResult, opts ViewOptions) *FinderView {
	problems := engine.FilterByTags(res.Problems, opts.Tags, opts.TagMode)
	sortKey := opts.SortKey
	if sortKey == "" {
		sortKey = engine.SortMostRecentFirst
	}
	problems = engine.Sort(problems, sortKey)

	v := &FinderView{
		Targets:   res.Targets,
		Practices: res.Practices,
		Profile:   res.Profile,
		AllTags:   res.AllTags,
		Total:     len(problems),
	}
	if opts.GroupBy != "" {
		v.Buckets = engine.Group(problems, opts.GroupBy)
	} else {
		v.Problems = problems
	}
	return v
}

// BuildRevisionView filters and optionally groups a revision result. The
// sort key is ignored: revision lists keep their staleness order.
func BuildRevisionView(res *model.RevisionResult, opts ViewOptions) *RevisionView {
	entries := engine.FilterByTags(res.Entries, opts.Tags, opts.TagMode)
	v := &RevisionView{
		Handle:  res.Handle,
		AllTags: res.AllTags,
		Total:   len(entries),
	}
	if opts.GroupBy != "" {
		v.Buckets = engine.Group(entries, opts.GroupBy)
	} else {
		v.Entries = entries
	}
	return v
}
