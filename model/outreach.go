package model

import "time"

// OutreachStatus is the outcome of the last attempt to contact a recipient.
type OutreachStatus string

const (
	StatusSent    OutreachStatus = "sent"
	StatusError   OutreachStatus = "error"
	StatusSkipped OutreachStatus = "skipped"
)

// OutreachRecord is the ledger entry kept for a single recipient.
// Once Confirmed is true it never flips back.
type OutreachRecord struct {
	ID                int64          `json:"-"`
	Email             string         `json:"email"`
	Status            OutreachStatus `json:"status"`
	Timestamp         time.Time      `json:"timestamp"`
	Error             string         `json:"error,omitempty"`
	Confirmed         bool           `json:"confirmed"`
	ConfirmationToken string         `json:"-"`
	ConfirmedAt       *time.Time     `json:"confirmed_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// OutreachOutcome is what a run learned about one candidate. Nil pointer
// fields were not reported and must not overwrite what the ledger holds.
type OutreachOutcome struct {
	Email             string         `json:"email"`
	Name              string         `json:"name,omitempty"`
	Index             int            `json:"index"`
	Status            OutreachStatus `json:"status"`
	Timestamp         time.Time      `json:"timestamp"`
	Error             *string        `json:"error,omitempty"`
	ConfirmationToken *string        `json:"-"`
}

// RunResult is returned to whoever triggered a run.
type RunResult struct {
	RunID    string            `json:"run_id"`
	Status   string            `json:"status"`
	Target   string            `json:"target"`
	Loaded   int               `json:"loaded"`
	Eligible int               `json:"eligible"`
	Sent     int               `json:"sent"`
	Failed   int               `json:"failed"`
	Skipped  int               `json:"skipped"`
	Outcomes []OutreachOutcome `json:"outcomes"`
}

// Count tallies the outcomes by status.
func (r *RunResult) Count() {
	r.Sent, r.Failed, r.Skipped = 0, 0, 0
	for _, outcome := range r.Outcomes {
		switch outcome.Status {
		case StatusSent:
			r.Sent++
		case StatusError:
			r.Failed++
		case StatusSkipped:
			r.Skipped++
		}
	}
}
