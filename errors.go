/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package reachout

import (
	"errors"
	"fmt"
)

var (
	// ErrRunInProgress is returned when another run holds the single-writer lock.
	ErrRunInProgress = errors.New("an outreach run is already in progress")
	// ErrNoPendingApproval is returned when an operator decision arrives while nothing awaits one.
	ErrNoPendingApproval = errors.New("no approval is pending")
	// ErrApprovalMismatch is returned for a decision that names a different candidate than the pending preview.
	ErrApprovalMismatch = errors.New("decision does not match the pending preview")
	// ErrApprovalPending is returned when a second preview is registered before the first is resolved.
	ErrApprovalPending = errors.New("another approval is already pending")
	// ErrRunLockLost is returned when the single-writer lock expired mid-run. The run's outcomes are not saved.
	ErrRunLockLost = errors.New("outreach run lost its lock")
	// ErrUnknownOperatorEvent is returned for operator events other than approve and reject.
	ErrUnknownOperatorEvent = errors.New("unknown operator event")
)

// ValidationError reports malformed prospect source data. It aborts a run
// before any candidate is processed.
type ValidationError struct {
	Source string
	Line   int
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid prospect source %s at line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("invalid prospect source %s: %v", e.Source, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

type CandidateStage string

const (
	StageCompose  CandidateStage = "compose"
	StageApprove  CandidateStage = "approve"
	StageDispatch CandidateStage = "dispatch"
	StagePanic    CandidateStage = "panic"
)

// CandidateError is a failure confined to one candidate. The run records it
// as an error outcome and moves on.
type CandidateError struct {
	Email string
	Index int
	Stage CandidateStage
	Err   error
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("%s failed for %s (#%d): %v", e.Stage, e.Email, e.Index, e.Err)
}

func (e *CandidateError) Unwrap() error {
	return e.Err
}
