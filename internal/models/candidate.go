package models

import (
	"fmt"
	"time"
)

// Candidate is one discovered content opportunity. Candidates are owned
// by the candidate cache: immutable once cached, replaced wholesale on
// refresh.
type Candidate struct {
	ID         string   `json:"id"`
	Source     string   `json:"source"`
	URL        string   `json:"url"`
	Topic      string   `json:"topic"`
	Summary    string   `json:"summary"`
	Language   string   `json:"language"`
	Score      float64  `json:"score"`
	AgeMinutes int      `json:"age_minutes"`
	Reasons    []string `json:"reasons"`
}

// CandidateFilter narrows a candidate listing. Nil MinScore and Limit
// mean "use the active strategy's values".
type CandidateFilter struct {
	Channel  string
	Lang     string
	MinScore *float64
	Limit    *int
}

// Validate holds explicit filter values to the same bounds the
// strategy fields are held to.
func (f CandidateFilter) Validate() error {
	if f.MinScore != nil && (*f.MinScore < 0 || *f.MinScore > 1) {
		return fmt.Errorf("%w: min_score must be within [0,1]", ErrValidation)
	}
	if f.Limit != nil && (*f.Limit < MinStrategyLimit || *f.Limit > MaxStrategyLimit) {
		return fmt.Errorf("%w: limit must be within [%d,%d]", ErrValidation, MinStrategyLimit, MaxStrategyLimit)
	}
	return nil
}

// CandidatesResponse is the payload for GET /sources/candidates.
type CandidatesResponse struct {
	Status      string      `json:"status"`
	Count       int         `json:"count"`
	Items       []Candidate `json:"items"`
	RefreshedAt time.Time   `json:"refreshed_at"`
}
