package engine

import (
	"fmt"
	"sort"
	"strings"

	"cf_finder/internal/domain/model"

	"github.com/gosimple/slug"
)

// GroupKey selects how problems are bucketed for display.
type GroupKey string

const (
	GroupByRating GroupKey = "rating"
	GroupByTag    GroupKey = "tag"
)

// UntaggedBucket collects problems without any tag when grouping by tag.
const UntaggedBucket = "untagged"

func ParseGroupKey(s string) (GroupKey, error) {
	switch GroupKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", GroupByRating:
		return GroupByRating, nil
	case GroupByTag:
		return GroupByTag, nil
	default:
		return "", &ValidationError{Field: "groupBy", Reason: fmt.Sprintf("unknown group key %q", s)}
	}
}

// Bucket is one named group. Problems holds references to the caller's items;
// the same item may sit in several tag buckets.
type Bucket[T Record] struct {
	Key      string `json:"key"`
	Slug     string `json:"slug"`
	Problems []T    `json:"problems"`

	rating   model.Rating
	catchAll bool
}

// Group partitions items into display-ordered buckets. Rating buckets ascend
// numerically with Unrated last; tag buckets ascend lexicographically with
// the untagged bucket last. Each bucket holds a problem at most once.
func Group[T Record](items []T, by GroupKey) []Bucket[T] {
	index := make(map[string]int)
	seen := make(map[string]map[model.ProblemID]struct{})
	var buckets []Bucket[T]

	add := func(b Bucket[T], item T) {
		k := b.Key
		if b.catchAll {
			k = "\x00" + k
		}
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			seen[k] = make(map[model.ProblemID]struct{})
			buckets = append(buckets, b)
		}
		id := item.Record().ID
		if _, dup := seen[k][id]; dup {
			return
		}
		seen[k][id] = struct{}{}
		buckets[i].Problems = append(buckets[i].Problems, item)
	}

	for _, item := range items {
		p := item.Record()
		if by == GroupByTag {
			if len(p.Tags) == 0 {
				add(Bucket[T]{Key: UntaggedBucket, Slug: UntaggedBucket, catchAll: true}, item)
				continue
			}
			for _, tag := range p.Tags {
				add(Bucket[T]{Key: tag, Slug: slug.Make(tag)}, item)
			}
			continue
		}
		add(Bucket[T]{
			Key:      p.Rating.String(),
			Slug:     "rating-" + slug.Make(p.Rating.String()),
			rating:   p.Rating,
			catchAll: !p.Rating.IsRated(),
		}, item)
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		a, b := buckets[i], buckets[j]
		if a.catchAll != b.catchAll {
			return b.catchAll
		}
		if by == GroupByTag {
			return a.Key < b.Key
		}
		av, _ := a.rating.Value()
		bv, _ := b.rating.Value()
		return av < bv
	})
	return buckets
}

// BucketSizes returns the number of problems per bucket key.
func BucketSizes[T Record](buckets []Bucket[T]) map[string]int {
	out := make(map[string]int, len(buckets))
	for _, b := range buckets {
		out[b.Key] = len(b.Problems)
	}
	return out
}
