package model

// EventType names a message on the operator channel.
type EventType string

// Engine to operator.
const (
	EventPrepare   EventType = "outreach:prepare"
	EventPreview   EventType = "outreach:preview"
	EventSent      EventType = "outreach:sent"
	EventFailed    EventType = "outreach:failed"
	EventSkipped   EventType = "outreach:skipped"
	EventCompleted EventType = "outreach:completed"
	EventError     EventType = "outreach:error"
)

// Operator to engine.
const (
	EventApprove EventType = "outreach:approve"
	EventReject  EventType = "outreach:reject"
)

// OutreachEvent is the envelope every event travels in.
type OutreachEvent struct {
	Event EventType   `json:"event"`
	RunID string      `json:"run_id,omitempty"`
	Data  interface{} `json:"data"`
}

// CandidateEvent reports progress on one candidate.
type CandidateEvent struct {
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	Index  int            `json:"index"`
	Status OutreachStatus `json:"status,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Preview is the draft shown to the operator for approval.
type Preview struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    string `json:"html"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Index   int    `json:"index"`
}

// OperatorResponse is the payload of an approve or reject event. Email and
// Index must match the pending preview. Subject, Body and HTML are only
// meaningful on approve; nil means "keep the draft".
type OperatorResponse struct {
	Email   string  `json:"email"`
	Index   int     `json:"index"`
	Subject *string `json:"subject,omitempty"`
	Body    *string `json:"body,omitempty"`
	HTML    *string `json:"html,omitempty"`
}
