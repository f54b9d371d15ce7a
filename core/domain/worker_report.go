package domain

import "time"

// ItemStatus is the outcome of one thread in a run.
type ItemStatus string

const (
	ItemDrafted   ItemStatus = "drafted"
	ItemDuplicate ItemStatus = "duplicate"
	ItemFailed    ItemStatus = "failed"
)

// ItemOutcome records what happened to one thread.
type ItemOutcome struct {
	ThreadID    string     `json:"thread_id" bson:"thread_id" yaml:"thread_id"`
	Subject     string     `json:"subject" bson:"subject" yaml:"subject"`
	Type        string     `json:"type,omitempty" bson:"type,omitempty" yaml:"type,omitempty"`
	Title       string     `json:"title,omitempty" bson:"title,omitempty" yaml:"title,omitempty"`
	Fingerprint string     `json:"fingerprint" bson:"fingerprint" yaml:"fingerprint"`
	Status      ItemStatus `json:"status" bson:"status" yaml:"status"`
	PackFolder  string     `json:"pack_folder,omitempty" bson:"pack_folder,omitempty" yaml:"pack_folder,omitempty"`
	Error       string     `json:"error,omitempty" bson:"error,omitempty" yaml:"error,omitempty"`
}

// RunReport summarises one triage run.
type RunReport struct {
	ID         string        `json:"id" bson:"id"`
	StartedAt  time.Time     `json:"started_at" bson:"started_at"`
	FinishedAt time.Time     `json:"finished_at" bson:"finished_at"`
	Query      string        `json:"query" bson:"query"`
	Found      int           `json:"found" bson:"found"`
	Drafted    int           `json:"drafted" bson:"drafted"`
	Skipped    int           `json:"skipped" bson:"skipped"`
	Failed     int           `json:"failed" bson:"failed"`
	Items      []ItemOutcome `json:"items" bson:"items"`
	Error      string        `json:"error,omitempty" bson:"error,omitempty"`
}

// Add appends an outcome and updates the counters.
func (r *RunReport) Add(o ItemOutcome) {
	r.Items = append(r.Items, o)
	switch o.Status {
	case ItemDrafted:
		r.Drafted++
	case ItemDuplicate:
		r.Skipped++
	case ItemFailed:
		r.Failed++
	}
}
