package engine

import (
	"fmt"
	"strings"

	"cf_finder/internal/domain/model"
)

// Record is anything backed by a solved problem: the plain problem itself or
// a wrapper that embeds one, such as a revision entry.
type Record interface {
	Record() model.SolvedProblem
}

// TagMode selects how a tag selection is matched.
type TagMode string

const (
	// TagModeAny keeps problems sharing at least one selected tag.
	TagModeAny TagMode = "any"
	// TagModeAll keeps problems carrying every selected tag.
	TagModeAll TagMode = "all"
)

func ParseTagMode(s string) (TagMode, error) {
	switch TagMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", TagModeAny:
		return TagModeAny, nil
	case TagModeAll:
		return TagModeAll, nil
	default:
		return "", &ValidationError{Field: "tagMode", Reason: fmt.Sprintf("unknown tag mode %q", s)}
	}
}

// FilterByTags keeps the items matching selected under mode. With no
// selection the input is returned unchanged. Untagged items never match a
// non-empty selection.
func FilterByTags[T Record](items []T, selected []string, mode TagMode) []T {
	if len(selected) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if matchesTags(item.Record(), selected, mode) {
			out = append(out, item)
		}
	}
	return out
}

func matchesTags(p model.SolvedProblem, selected []string, mode TagMode) bool {
	if len(p.Tags) == 0 {
		return false
	}
	if mode == TagModeAll {
		for _, tag := range selected {
			if !p.HasTag(tag) {
				return false
			}
		}
		return true
	}
	for _, tag := range selected {
		if p.HasTag(tag) {
			return true
		}
	}
	return false
}
