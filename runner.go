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
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/blnkfinance/reachout/model"
	"github.com/sirupsen/logrus"
	"github.com/wacul/ptr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	RunStatusCompleted = "completed"
	RunStatusCancelled = "cancelled"
	RunStatusFailed    = "failed"

	confirmationPath = "/api/confirm-interest"
)

var tracer = otel.Tracer("reachout.outreach")

type RunOptions struct {
	// Target limits the run to one recipient when set.
	Target string
}

// GenerateConfirmationToken returns 16 random bytes, hex encoded.
func GenerateConfirmationToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ConfirmationURL builds the public link a recipient follows to confirm interest.
func ConfirmationURL(base, email, token string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	return strings.TrimRight(base, "/") + confirmationPath + "?" + q.Encode()
}

// RunOutreach processes one batch. Candidates are composed, previewed and sent
// one at a time; a failure on one candidate becomes an error outcome and the
// batch continues. Outcomes are merged into the ledger and persisted once at
// the end, including when ctx is cancelled part way through.
func (r *Reachout) RunOutreach(ctx context.Context, opts RunOptions) (*model.RunResult, error) {
	if !r.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.runMu.Unlock()
	r.running.Store(true)
	defer r.running.Store(false)

	ctx, span := tracer.Start(ctx, "RunOutreach", trace.WithAttributes(attribute.String("target", opts.Target)))
	defer span.End()
	started := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lost, release, err := r.locker.Acquire(runCtx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer release()

	// lockLost is set before the run is cancelled, so runBatch sees it once
	// the loop stops.
	var lockLost atomic.Bool
	if lost != nil {
		go func() {
			if err, ok := <-lost; ok && err != nil {
				logrus.WithError(err).Error("run lock lost, stopping run")
				lockLost.Store(true)
				cancel()
			}
		}()
	}

	result, err := r.runBatch(runCtx, opts, &lockLost)
	if err != nil {
		outreachRunsCounter.WithLabelValues(RunStatusFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	outreachRunsCounter.WithLabelValues(result.Status).Inc()
	outreachRunDurationHist.Observe(time.Since(started).Seconds())
	span.SetAttributes(
		attribute.String("run_id", result.RunID),
		attribute.Int("sent", result.Sent),
		attribute.Int("failed", result.Failed),
		attribute.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (r *Reachout) runBatch(ctx context.Context, opts RunOptions, lockLost *atomic.Bool) (*model.RunResult, error) {
	candidates, err := r.prospects.LoadProspects(ctx)
	if err != nil {
		return nil, err
	}

	records, err := r.datasource.GetOutreachRecords(ctx)
	if err != nil {
		return nil, err
	}
	ledger := NewLedger(records)

	eligible := SelectEligible(candidates, ledger, EligibilityOptions{
		Now:      r.now(),
		Cooldown: r.cfg.Outreach.Cooldown(),
		Target:   opts.Target,
		Limit:    r.cfg.Outreach.BatchLimit,
	})

	result := &model.RunResult{
		RunID:    model.GenerateUUIDWithSuffix("run"),
		Status:   RunStatusCompleted,
		Target:   opts.Target,
		Loaded:   len(candidates),
		Eligible: len(eligible),
		Outcomes: make([]model.OutreachOutcome, 0, len(eligible)),
	}
	logger := logrus.WithField("run_id", result.RunID)
	logger.WithFields(logrus.Fields{"loaded": result.Loaded, "eligible": result.Eligible}).Info("outreach run started")

	for i, p := range eligible {
		if ctx.Err() != nil {
			result.Status = RunStatusCancelled
			break
		}
		outcome, attempted := r.processCandidate(ctx, result.RunID, i, p)
		if !attempted {
			result.Status = RunStatusCancelled
			break
		}
		result.Outcomes = append(result.Outcomes, outcome)
		outreachOutcomesCounter.WithLabelValues(string(outcome.Status)).Inc()
	}
	result.Count()

	// Another writer may own the table by now; our snapshot is stale.
	if lockLost.Load() {
		result.Status = RunStatusFailed
		logger.WithField("outcomes", len(result.Outcomes)).Error("run lock lost, outcomes not saved")
		r.notifier.NotifyError(ErrRunLockLost)
		return result, ErrRunLockLost
	}

	if err := r.persist(context.WithoutCancel(ctx), ledger, result); err != nil {
		return result, err
	}

	r.hub.Publish(model.OutreachEvent{Event: model.EventCompleted, RunID: result.RunID, Data: result})
	if err := r.SendWebhook(NewWebhook{Event: WebhookOutreachCompleted, Payload: result}); err != nil {
		logger.WithError(err).Warn("failed to enqueue completion webhook")
	}
	logger.WithFields(logrus.Fields{
		"status":  result.Status,
		"sent":    result.Sent,
		"failed":  result.Failed,
		"skipped": result.Skipped,
	}).Info("outreach run finished")
	return result, nil
}

// persist merges the run's outcomes into the ledger and writes the merged set.
// A run with no outcomes leaves storage untouched.
func (r *Reachout) persist(ctx context.Context, ledger *Ledger, result *model.RunResult) error {
	if len(result.Outcomes) == 0 {
		return nil
	}

	ledger.Merge(result.Outcomes)
	if err := r.datasource.SaveOutreachRecords(ctx, ledger.Records()); err != nil {
		r.notifier.NotifyError(err)
		return err
	}

	var sent []string
	for _, o := range result.Outcomes {
		if o.Status == model.StatusSent {
			sent = append(sent, o.Email)
		}
	}
	if len(sent) > 0 {
		if err := r.datasource.MarkReachedOut(ctx, sent); err != nil {
			logrus.WithError(err).Warn("failed to flag prospects as reached out")
		}
		r.evictProspect(ctx, sent...)
	}
	return nil
}

// processCandidate runs one candidate through compose, approval and dispatch.
// attempted is false when ctx ended before the candidate reached an outcome.
func (r *Reachout) processCandidate(ctx context.Context, runID string, index int, p model.Prospect) (outcome model.OutreachOutcome, attempted bool) {
	email := p.Identity()
	ctx, span := tracer.Start(ctx, "ProcessCandidate", trace.WithAttributes(
		attribute.String("email", email),
		attribute.Int("index", index),
	))
	defer span.End()

	outcome = model.OutreachOutcome{Email: email, Name: p.Name, Index: index}
	event := model.CandidateEvent{Name: p.Name, Email: email, Index: index}

	defer func() {
		if rec := recover(); rec != nil {
			cerr := &CandidateError{Email: email, Index: index, Stage: StagePanic, Err: fmt.Errorf("%v", rec)}
			outcome, attempted = r.failed(runID, outcome, event, cerr, nil), true
			span.RecordError(cerr)
		}
	}()

	r.hub.Publish(model.OutreachEvent{Event: model.EventPrepare, RunID: runID, Data: event})

	token, err := GenerateConfirmationToken()
	if err != nil {
		return r.failed(runID, outcome, event, &CandidateError{Email: email, Index: index, Stage: StageCompose, Err: err}, nil), true
	}

	draft, err := r.composer.Compose(ctx, model.ComposeRequest{
		Prospect:        p,
		ConfirmationURL: ConfirmationURL(r.cfg.Outreach.ConfirmationBaseURL, email, token),
	})
	if err != nil {
		if interrupted(ctx, err) {
			return outcome, false
		}
		span.RecordError(err)
		return r.failed(runID, outcome, event, &CandidateError{Email: email, Index: index, Stage: StageCompose, Err: err}, nil), true
	}

	waitStarted := time.Now()
	decision, err := r.approvals.Await(ctx, runID, model.Preview{
		Subject: draft.Subject,
		Body:    draft.Body,
		HTML:    draft.HTML,
		Email:   email,
		Name:    p.Name,
		Index:   index,
	})
	if err != nil {
		if interrupted(ctx, err) {
			return outcome, false
		}
		return r.failed(runID, outcome, event, &CandidateError{Email: email, Index: index, Stage: StageApprove, Err: err}, nil), true
	}
	approvalWaitHist.WithLabelValues(decisionLabel(decision)).Observe(time.Since(waitStarted).Seconds())

	if !decision.Approved {
		outcome.Status = model.StatusSkipped
		outcome.Timestamp = r.now()
		outcome.Error = ptr.String("")
		event.Status = model.StatusSkipped
		r.hub.Publish(model.OutreachEvent{Event: model.EventSkipped, RunID: runID, Data: event})
		return outcome, true
	}

	msg := model.Message{
		To:      email,
		Name:    p.Name,
		Subject: decision.Message.Subject,
		Body:    decision.Message.Body,
		HTML:    decision.Message.HTML,
	}
	if err := r.dispatcher.Send(ctx, msg); err != nil {
		if interrupted(ctx, err) {
			return outcome, false
		}
		span.RecordError(err)
		return r.failed(runID, outcome, event, &CandidateError{Email: email, Index: index, Stage: StageDispatch, Err: err}, &token), true
	}

	outcome.Status = model.StatusSent
	outcome.Timestamp = r.now()
	outcome.Error = ptr.String("")
	outcome.ConfirmationToken = ptr.String(token)

	event.Status = model.StatusSent
	r.hub.Publish(model.OutreachEvent{Event: model.EventSent, RunID: runID, Data: event})
	if err := r.SendWebhook(NewWebhook{Event: WebhookOutreachSent, Payload: event}); err != nil {
		logrus.WithError(err).Warn("failed to enqueue sent webhook")
	}
	return outcome, true
}

func (r *Reachout) failed(runID string, outcome model.OutreachOutcome, event model.CandidateEvent, cerr *CandidateError, token *string) model.OutreachOutcome {
	logrus.WithFields(logrus.Fields{
		"run_id": runID,
		"email":  cerr.Email,
		"index":  cerr.Index,
		"stage":  cerr.Stage,
	}).WithError(cerr.Err).Error("candidate failed")

	outcome.Status = model.StatusError
	outcome.Timestamp = r.now()
	outcome.Error = ptr.String(cerr.Error())
	outcome.ConfirmationToken = token

	event.Status = model.StatusError
	event.Error = cerr.Error()
	r.hub.Publish(model.OutreachEvent{Event: model.EventFailed, RunID: runID, Data: event})
	return outcome
}

func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func decisionLabel(d ApprovalDecision) string {
	switch {
	case d.TimedOut:
		return "expired"
	case d.Approved:
		return "approved"
	default:
		return "rejected"
	}
}
