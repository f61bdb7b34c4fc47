package entities

import "time"

// SourceRunRequest parameterises one extraction run against a single source
type SourceRunRequest struct {
	Query    string
	MinPrice int64
	MaxPrice int64
	Limit    int
}

// SourceRunReport summarises one extraction run
type SourceRunReport struct {
	Source   string        `json:"source"`
	Links    int           `json:"links"`
	Created  int           `json:"created"`
	Updated  int           `json:"updated"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// OK reports whether the run counts as a successful source for a search
func (r *SourceRunReport) OK() bool {
	return r != nil && r.Err == nil
}

// Stored is the number of listings written by the run
func (r *SourceRunReport) Stored() int {
	if r == nil {
		return 0
	}
	return r.Created + r.Updated
}
