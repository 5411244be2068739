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
	"context"
	"sync"
	"time"

	"github.com/blnkfinance/reachout/model"
)

// ApprovalDecision is the operator's answer to one preview.
type ApprovalDecision struct {
	Approved bool
	TimedOut bool
	Message  model.Draft
}

type pendingApproval struct {
	runID   string
	preview model.Preview
	result  chan ApprovalDecision
}

// ApprovalCoordinator holds at most one outstanding preview and matches
// operator decisions to it by address and index.
type ApprovalCoordinator struct {
	mu      sync.Mutex
	pending *pendingApproval
	hub     *EventHub
	timeout time.Duration
}

// NewApprovalCoordinator creates a coordinator. A zero timeout waits until the
// operator answers or the context ends.
func NewApprovalCoordinator(hub *EventHub, timeout time.Duration) *ApprovalCoordinator {
	return &ApprovalCoordinator{hub: hub, timeout: timeout}
}

// Await publishes preview and blocks until it is approved, rejected or the
// wait ends. An expired timeout is reported as a rejection with TimedOut set.
func (a *ApprovalCoordinator) Await(ctx context.Context, runID string, preview model.Preview) (ApprovalDecision, error) {
	p := &pendingApproval{runID: runID, preview: preview, result: make(chan ApprovalDecision, 1)}

	a.mu.Lock()
	if a.pending != nil {
		a.mu.Unlock()
		return ApprovalDecision{}, ErrApprovalPending
	}
	a.pending = p
	a.mu.Unlock()

	defer a.release(p)

	if a.hub != nil {
		a.hub.Publish(model.OutreachEvent{Event: model.EventPreview, RunID: runID, Data: preview})
	}

	var expired <-chan time.Time
	if a.timeout > 0 {
		timer := time.NewTimer(a.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case decision := <-p.result:
		return decision, nil
	case <-expired:
		return ApprovalDecision{Approved: false, TimedOut: true}, nil
	case <-ctx.Done():
		return ApprovalDecision{}, ctx.Err()
	}
}

func (a *ApprovalCoordinator) release(p *pendingApproval) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == p {
		a.pending = nil
	}
}

// Pending returns the preview currently awaiting a decision.
func (a *ApprovalCoordinator) Pending() (model.Preview, string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return model.Preview{}, "", false
	}
	return a.pending.preview, a.pending.runID, true
}

// Resolve delivers an operator decision. Decisions naming another candidate
// fail with ErrApprovalMismatch and leave the wait in place. The pending
// preview is cleared before the decision is delivered, so a second decision
// for it fails with ErrNoPendingApproval.
func (a *ApprovalCoordinator) Resolve(event model.EventType, resp model.OperatorResponse) error {
	if event != model.EventApprove && event != model.EventReject {
		return ErrUnknownOperatorEvent
	}

	a.mu.Lock()
	p := a.pending
	if p == nil {
		a.mu.Unlock()
		return ErrNoPendingApproval
	}
	if model.NormalizeEmail(resp.Email) != model.NormalizeEmail(p.preview.Email) || resp.Index != p.preview.Index {
		a.mu.Unlock()
		return ErrApprovalMismatch
	}
	a.pending = nil
	a.mu.Unlock()

	decision := ApprovalDecision{Approved: event == model.EventApprove}
	if decision.Approved {
		decision.Message = applyEdits(model.Draft{
			Subject: p.preview.Subject,
			Body:    p.preview.Body,
			HTML:    p.preview.HTML,
		}, resp)
	}
	p.result <- decision
	return nil
}

// applyEdits lets operator fields override the draft. An edited body without
// an edited html drops the html so the stale version is never sent.
func applyEdits(draft model.Draft, resp model.OperatorResponse) model.Draft {
	out := draft
	if resp.Subject != nil {
		out.Subject = *resp.Subject
	}
	if resp.Body != nil {
		out.Body = *resp.Body
		if resp.HTML == nil {
			out.HTML = ""
		}
	}
	if resp.HTML != nil {
		out.HTML = *resp.HTML
	}
	return out
}
