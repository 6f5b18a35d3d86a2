package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const problemsetURL = "https://codeforces.com/problemset/problem/"

// ProblemID identifies a problem across the whole judge.
type ProblemID struct {
	ContestID int
	Index     string
}

// String returns the canonical "{contestId}/{index}" form.
func (id ProblemID) String() string {
	return strconv.Itoa(id.ContestID) + "/" + id.Index
}

func (id ProblemID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ProblemID) UnmarshalText(text []byte) error {
	parsed, err := ParseProblemID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseProblemID parses the canonical "{contestId}/{index}" form.
func ParseProblemID(s string) (ProblemID, error) {
	contest, index, ok := strings.Cut(s, "/")
	if !ok || index == "" {
		return ProblemID{}, fmt.Errorf("invalid problem id %q", s)
	}
	contestID, err := strconv.Atoi(contest)
	if err != nil {
		return ProblemID{}, fmt.Errorf("invalid contest id in %q: %w", s, err)
	}
	return ProblemID{ContestID: contestID, Index: index}, nil
}

// UnratedLabel is how an unrated problem's rating is displayed and serialized.
const UnratedLabel = "Unrated"

// Rating is a problem difficulty that may be absent. The zero value is Unrated.
type Rating struct {
	value int
	rated bool
}

// Unrated is the sentinel for problems without a difficulty rating.
var Unrated = Rating{}

// Rated returns a present rating.
func Rated(v int) Rating {
	return Rating{value: v, rated: true}
}

// Value returns the numeric rating and whether it is present.
func (r Rating) Value() (int, bool) {
	return r.value, r.rated
}

func (r Rating) IsRated() bool { return r.rated }

func (r Rating) String() string {
	if !r.rated {
		return UnratedLabel
	}
	return strconv.Itoa(r.value)
}

func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.rated {
		return json.Marshal(UnratedLabel)
	}
	return json.Marshal(r.value)
}

func (r *Rating) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*r = Unrated
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*r = Rated(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("rating must be a number or %q: %w", UnratedLabel, err)
	}
	if s != UnratedLabel && s != "" {
		return fmt.Errorf("rating must be a number or %q, got %q", UnratedLabel, s)
	}
	*r = Unrated
	return nil
}

// SolvedProblem is the representative accepted submission of one problem by one account.
type SolvedProblem struct {
	ID        ProblemID `json:"problemId"`
	Rating    Rating    `json:"rating"`
	Name      string    `json:"name"`
	Tags      []string  `json:"tags"`
	SolveTime time.Time `json:"solveTime"`
}

// Record returns the problem itself, so that wrappers embedding a SolvedProblem
// can be filtered, grouped and sorted through the same functions.
func (p SolvedProblem) Record() SolvedProblem { return p }

func (p SolvedProblem) URL() string {
	return problemsetURL + p.ID.String()
}

func (p SolvedProblem) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// UserSolvedSet maps problem identity to the stored record for one account.
// Iteration follows first-insertion order so that results are reproducible.
type UserSolvedSet struct {
	Handle string
	order  []ProblemID
	byID   map[ProblemID]SolvedProblem
}

func NewUserSolvedSet(handle string) *UserSolvedSet {
	return &UserSolvedSet{Handle: handle, byID: make(map[ProblemID]SolvedProblem)}
}

// Put stores p, replacing any record with the same identity in place.
func (s *UserSolvedSet) Put(p SolvedProblem) {
	if _, ok := s.byID[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	s.byID[p.ID] = p
}

func (s *UserSolvedSet) Get(id ProblemID) (SolvedProblem, bool) {
	p, ok := s.byID[id]
	return p, ok
}

func (s *UserSolvedSet) Has(id ProblemID) bool {
	_, ok := s.byID[id]
	return ok
}

func (s *UserSolvedSet) Len() int { return len(s.order) }

// Problems returns the stored records in insertion order.
func (s *UserSolvedSet) Problems() []SolvedProblem {
	out := make([]SolvedProblem, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// IDs returns the stored identities in insertion order.
func (s *UserSolvedSet) IDs() []ProblemID {
	return append([]ProblemID(nil), s.order...)
}
