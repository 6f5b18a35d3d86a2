package engine

import (
	"fmt"
	"strings"

	"cf_finder/internal/common"
)

// UnknownHandleComment is reported when the judge fails a request without a comment.
const UnknownHandleComment = "Unknown Handle"

// FetchError reports that one handle's submission or profile request failed.
// Comment carries the upstream message verbatim.
type FetchError struct {
	Handle  string `json:"handle"`
	Comment string `json:"comment"`
	// Network is set when the request never produced a judge response.
	Network bool `json:"network"`
}

func (e *FetchError) Error() string {
	if e.Handle == "" {
		return e.Comment
	}
	return fmt.Sprintf("%s: %s", e.Handle, e.Comment)
}

func (e *FetchError) Unwrap() error { return common.ErrUpstream }

// AggregateError reports every fetch that failed within one query.
type AggregateError struct {
	Failures []*FetchError `json:"failures"`
}

func (e *AggregateError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return "error fetching data for one or more users: " + strings.Join(parts, ", ")
}

func (e *AggregateError) Unwrap() error { return common.ErrUpstream }

// Handles returns the failing handles in the order they were requested.
func (e *AggregateError) Handles() []string {
	out := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Handle)
	}
	return out
}

// ValidationError is a caller-side rejection raised before any fetch is issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return common.ErrValidation }
