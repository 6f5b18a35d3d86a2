package model

import "time"

// Verdict is the judge's verdict string. Only VerdictAccepted counts as solved;
// every other value is treated as not accepted.
type Verdict string

const VerdictAccepted Verdict = "OK"

// RawSubmission is one judge-reported submission attempt, as supplied by the fetcher.
type RawSubmission struct {
	ContestID    int       `json:"contestId"`
	Index        string    `json:"index"`
	Verdict      Verdict   `json:"verdict"`
	Rating       Rating    `json:"rating"`
	Name         string    `json:"name"`
	Tags         []string  `json:"tags"`
	CreationTime time.Time `json:"creationTime"`
}

func (s RawSubmission) Accepted() bool {
	return s.Verdict == VerdictAccepted
}

func (s RawSubmission) ProblemID() ProblemID {
	return ProblemID{ContestID: s.ContestID, Index: s.Index}
}

// Profile holds the display-name fields of an account.
type Profile struct {
	Handle    string `json:"handle"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// DisplayName joins the name fields, or returns "" if neither is set.
func (p Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.LastName
	}
}
