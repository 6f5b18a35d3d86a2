package model

import "time"

// AggregateResult is the finder-mode outcome: problems solved by the target
// accounts but by none of the practice accounts.
type AggregateResult struct {
	Targets     []string        `json:"targets"`
	Practices   []string        `json:"practices"`
	Policy      string          `json:"policy"`
	Problems    []SolvedProblem `json:"problems"`
	AllTags     []string        `json:"allTags"`
	Profile     *Profile        `json:"profile,omitempty"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// RevisionEntry is a solved problem annotated with its staleness.
type RevisionEntry struct {
	SolvedProblem
	DaysSinceSolve int `json:"daysSinceSolve"`
}

// RevisionResult lists one account's solved problems, stalest first.
type RevisionResult struct {
	Handle      string          `json:"handle"`
	MinRating   *int            `json:"minRating,omitempty"`
	MaxRating   *int            `json:"maxRating,omitempty"`
	Entries     []RevisionEntry `json:"entries"`
	AllTags     []string        `json:"allTags"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// SavedQuery is a previously issued finder query.
type SavedQuery struct {
	ID        string    `json:"id"`
	Targets   []string  `json:"targets"`
	Practices []string  `json:"practices"`
	Timestamp time.Time `json:"timestamp"`
}
