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
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blnkfinance/reachout/config"
	"github.com/blnkfinance/reachout/database/mocks"
	"github.com/blnkfinance/reachout/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wacul/ptr"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type staticProspects []model.Prospect

func (s staticProspects) LoadProspects(context.Context) ([]model.Prospect, error) {
	return s, nil
}

type failingProspects struct{ err error }

func (f failingProspects) LoadProspects(context.Context) ([]model.Prospect, error) {
	return nil, f.err
}

type fakeComposer struct {
	compose func(req model.ComposeRequest) (model.Draft, error)
}

func (f fakeComposer) Compose(_ context.Context, req model.ComposeRequest) (model.Draft, error) {
	if f.compose != nil {
		return f.compose(req)
	}
	return model.Draft{
		Subject: "Hello " + req.Prospect.Name,
		Body:    "Body\n" + req.ConfirmationURL,
		HTML:    "<p>Body</p>",
	}, nil
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []model.Message
	fail map[string]error
}

func (f *fakeDispatcher) Send(_ context.Context, msg model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[msg.To]; err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testConfig() *config.Configuration {
	return &config.Configuration{
		Redis: config.RedisConfig{Dns: "localhost:6379"},
		Outreach: config.OutreachConfig{
			CooldownHours:       48,
			BatchLimit:          20,
			ConfirmationBaseURL: "https://reachout.example.com",
		},
		Queue: config.QueueConfig{WebhookQueue: config.DEFAULT_WEBHOOK_QUEUE},
	}
}

func newTestReachout(t *testing.T, ds *mocks.MockDataSource, prospects ProspectSource, d *fakeDispatcher, opts ...Option) *Reachout {
	t.Helper()
	config.MockConfig(testConfig())

	base := []Option{
		WithProspectSource(prospects),
		WithComposer(fakeComposer{}),
		WithDispatcher(d),
		WithLocker(NewLocalRunLocker()),
		WithClock(func() time.Time { return testNow }),
	}
	r, err := NewReachout(ds, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

type decideFunc func(preview model.Preview) (model.EventType, model.OperatorResponse)

func approveAll(p model.Preview) (model.EventType, model.OperatorResponse) {
	return model.EventApprove, model.OperatorResponse{Email: p.Email, Index: p.Index}
}

// startOperator answers previews as they arrive and records every event seen.
func startOperator(t *testing.T, r *Reachout, decide decideFunc) (stop func() []model.EventType) {
	t.Helper()
	_, events, cancel := r.Events().Subscribe()

	var seen []model.EventType
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			seen = append(seen, ev.Event)
			if ev.Event != model.EventPreview {
				continue
			}
			event, resp := decide(ev.Data.(model.Preview))
			if event == "" {
				continue
			}
			assert.NoError(t, r.Approvals().Resolve(event, resp))
		}
	}()

	return func() []model.EventType {
		cancel()
		<-done
		return seen
	}
}

func recordsFor(records []model.OutreachRecord) map[string]model.OutreachRecord {
	out := make(map[string]model.OutreachRecord, len(records))
	for _, r := range records {
		out[r.Email] = r
	}
	return out
}

func TestRunOutreach_ApproveAndSend(t *testing.T) {
	ds := new(mocks.MockDataSource)
	d := &fakeDispatcher{}
	r := newTestReachout(t, ds, staticProspects{{Name: "A", Email: "a@x.com"}}, d)

	var saved []model.OutreachRecord
	ds.On("GetOutreachRecords", mock.Anything).Return([]model.OutreachRecord{}, nil)
	ds.On("SaveOutreachRecords", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).([]model.OutreachRecord)
	}).Return(nil)
	ds.On("MarkReachedOut", mock.Anything, []string{"a@x.com"}).Return(nil)

	stop := startOperator(t, r, approveAll)
	result, err := r.RunOutreach(context.Background(), RunOptions{})
	events := stop()
	require.NoError(t, err)

	assert.Equal(t, RunStatusCompleted, result.Status)
	assert.Equal(t, 1, result.Eligible)
	assert.Equal(t, 1, result.Sent)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, model.StatusSent, result.Outcomes[0].Status)

	require.Len(t, saved, 1)
	assert.Equal(t, "a@x.com", saved[0].Email)
	assert.Equal(t, model.StatusSent, saved[0].Status)
	assert.False(t, saved[0].Confirmed)
	assert.Len(t, saved[0].ConfirmationToken, 32)
	assert.Equal(t, testNow, saved[0].Timestamp)

	require.Len(t, d.sent, 1)
	assert.Contains(t, d.sent[0].Body, "token="+saved[0].ConfirmationToken)
	assert.Equal(t, []model.EventType{model.EventPrepare, model.EventPreview, model.EventSent, model.EventCompleted}, events)
	ds.AssertExpectations(t)
}

func TestRunOutreach_ConfirmedRecipientIsNeverContacted(t *testing.T) {
	ds := new(mocks.MockDataSource)
	d := &fakeDispatcher{}
	r := newTestReachout(t, ds, staticProspects{{Name: "A", Email: "a@x.com"}}, d)

	ds.On("GetOutreachRecords", mock.Anything).Return([]model.OutreachRecord{
		{Email: "a@x.com", Status: model.StatusSent, Timestamp: testNow.AddDate(-1, 0, 0), Confirmed: true},
	}, nil)

	result, err := r.RunOutreach(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Eligible)
	assert.Empty(t, result.Outcomes)
	assert.Empty(t, d.sent)
	ds.AssertNotCalled(t, "SaveOutreachRecords", mock.Anything, mock.Anything)
}

func TestRunOutreach_PerCandidateIsolation(t *testing.T) {
	ds := new(mocks.MockDataSource)
	d := &fakeDispatcher{}
	prospects := staticProspects{
		{Name: "A", Email: "a@x.com"},
		{Name: "B", Email: "b@x.com"},
		{Name: "C", Email: "c@x.com"},
		{Name: "D", Email: "d@x.com"},
	}
	comp := fakeComposer{compose: func(req model.ComposeRequest) (model.Draft, error) {
		switch req.Prospect.Email {
		case "b@x.com":
			return model.Draft{}, errors.New("model overloaded")
		case "d@x.com":
			panic("template exploded")
		}
		return model.Draft{Subject: "Hi", Body: req.ConfirmationURL}, nil
	}}
	r := newTestReachout(t, ds, prospects, d, WithComposer(comp))

	var saved []model.OutreachRecord
	ds.On("GetOutreachRecords", mock.Anything).Return([]model.OutreachRecord{}, nil)
	ds.On("SaveOutreachRecords", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).([]model.OutreachRecord)
	}).Return(nil)
	ds.On("MarkReachedOut", mock.Anything, []string{"a@x.com", "c@x.com"}).Return(nil)

	stop := startOperator(t, r, approveAll)
	result, err := r.RunOutreach(context.Background(), RunOptions{})
	stop()
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 4)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 2, result.Failed)

	byEmail := recordsFor(saved)
	assert.Equal(t, model.StatusSent, byEmail["a@x.com"].Status)
	assert.Equal(t, model.StatusError, byEmail["b@x.com"].Status)
	assert.Contains(t, byEmail["b@x.com"].Error, "model overloaded")
	assert.Empty(t, byEmail["b@x.com"].ConfirmationToken)
	assert.Equal(t, model.StatusSent, byEmail["c@x.com"].Status)
	assert.Equal(t, model.StatusError, byEmail["d@x.com"].Status)
	assert.Contains(t, byEmail["d@x.com"].Error, "template exploded")
}

func TestRunOutreach_RejectRecordsSkipWithoutToken(t *testing.T) {
	ds := new(mocks.MockDataSource)
	d := &fakeDispatcher{}
	r := newTestReachout(t, ds, staticProspects{{Name: "A", Email: "a@x.com"}}, d)

	var saved []model.OutreachRecord
	ds.On("GetOutreachRecords", mock.Anything).Return([]model.OutreachRecord{
		{Email: "a@x.com", Status: model.StatusError, Error: "smtp down", Timestamp: testNow.AddDate(0, 0, -5), ConfirmationToken: "old"},
	}, nil)
	ds.On("SaveOutreachRecords", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).([]model.OutreachRecord)
	}).Return(nil)

	stop := startOperator(t, r, func(p model.Preview) (model.EventType, model.OperatorResponse) {
		return model.EventReject, model.OperatorResponse{Email: p.Email, Index: p.Index}
	})
	result, err := r.RunOutreach(context.Background(), RunOptions{})
	events := stop()
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Nil(t, result.Outcomes[0].ConfirmationToken)
	assert.Empty(t, d.sent)
	assert.Contains(t, events, model.EventSkipped)

	require.Len(t, saved, 1)
	assert.Equal(t, model.StatusSkipped, saved[0].Status)
	assert.Equal(t, "", saved[0].Error)
	assert.Equal(t, "old", saved[0].ConfirmationToken)
	ds.AssertNotCalled(t, "MarkReachedOut", mock.Anything, mock.Anything)
}

func TestRunOutreach_OperatorEditsAreAuthoritative(t *testing.T) {
	ds := new(mocks.MockDataSource)
	d := &fakeDispatcher{}
	r := newTestReachout(t, ds, staticProspects{{Name: "A", Email: "a@x.com"}}, d)

	ds.On("GetOutreachRecords", mock.Anything).Return([]model.OutreachRecord{}, nil)
	ds.On("SaveOutreachRecords", mock.Anything, mock.Anything).Return(nil)
	ds.On("MarkReachedOut", mock.Anything, mock.Anything).Return(nil)

	stop := startOperator(t, r, func(p model.Preview) (model.EventType, model.OperatorResponse) {
		return model.EventApprove, model.OperatorResponse{
			Email:   p.Email,
			Index:   p.Index,
			Subject: ptr.String("Edited subject"),
			Body:    ptr.String("Edited body"),
		}
	})
	_, err := r.RunOutreach(context.Background(), RunOptions{})
	stop()
	require.NoError(t, err)

	require.Len(t, d.sent, 1)
	assert.Equal(t, "Edited subject", d.sent[0].Subject)
	assert.Equal(t, "Edited body", d.sent[0].Body)
	assert.Empty(t, d.sent[0].HTML)
}

func TestRunOutreach_DispatchFailureKeepsToken(t *testing.T) {
	ds := new(mocks.MockDataSource)
	d := &fakeDispatcher{fail: map[string]error{"a@x.com": errors.New("550 mailbox unavailable")}}
	r := newTestReachout(t, ds, staticProspects{{Name: "A", Email: "a@x.com"}}, d)

	var saved []model.OutreachRecord
	ds.On("GetOutreachRecords", mock.Anything).Return([]model.OutreachRecord{}, nil)
	ds.On("SaveOutreachRecords", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).([]model.OutreachRecord)
	}).Return(nil)

	stop := startOperator(t, r, approveAll)
	result, err := r.RunOutreach(context.Background(), RunOptions{})
	events := stop()
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, events, model.EventFailed)
	require.Len(t, saved, 1)
	assert.Equal(t, model.StatusError, saved[0].Status)
	assert.Contains(t, saved[0].Error, "550 mailbox unavailable")
	assert.NotEmpty(t, saved[0].ConfirmationToken)
}

func TestRunOutreach_TargetedRun(t *testing.T) {
	ds := new(mocks.MockDataSource)
	d := &fakeDispatcher{}
	prospects := staticProspects{{Name: "A", Email: "a@x.com"}, {Name: "B", Email: "b@x.com"}}
	r := newTestReachout(t, ds, prospects, d)

	ds.On("GetOutreachRecords", mock.Anything).Return([]model.OutreachRecord{}, nil)
	ds.On("SaveOutreachRecords", mock.Anything, mock.Anything).Return(nil)
	ds.On("MarkReachedOut", mock.Anything, []string{"b@x.com"}).Return(nil)

	stop := startOperator(t, r, approveAll)
	result, err := r.RunOutreach(context.Background(), RunOptions{Target: " B@X.com "})
	stop()
	require.NoError(t, err)

	assert.Equal(t, 1, result.Eligible)
	require.Len(t, d.sent, 1)
	assert.Equal(t, "b@x.com", d.sent[0].To)
}

func TestRunOutreach_CancelledRunPersistsPartialOutcomes(t *testing.T) {
	ds := new(mocks.MockDataSource)
	d := &fakeDispatcher{}
	prospects := staticProspects{{Name: "A", Email: "a@x.com"}, {Name: "B", Email: "b@x.com"}}
	r := newTestReachout(t, ds, prospects, d)

	var saved []model.OutreachRecord
	ds.On("GetOutreachRecords", mock.Anything).Return([]model.OutreachRecord{}, nil)
	ds.On("SaveOutreachRecords", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).([]model.OutreachRecord)
	}).Return(nil)
	ds.On("MarkReachedOut", mock.Anything, []string{"a@x.com"}).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := startOperator(t, r, func(p model.Preview) (model.EventType, model.OperatorResponse) {
		if p.Index == 1 {
			cancel()
			return "", model.OperatorResponse{}
		}
		return approveAll(p)
	})
	result, err := r.RunOutreach(ctx, RunOptions{})
	stop()
	require.NoError(t, err)

	assert.Equal(t, RunStatusCancelled, result.Status)
	require.Len(t, result.Outcomes, 1)
	require.Len(t, saved, 1)
	assert.Equal(t, "a@x.com", saved[0].Email)
	_, _, pending := r.Approvals().Pending()
	assert.False(t, pending)
}

func TestRunOutreach_ValidationErrorAbortsRun(t *testing.T) {
	ds := new(mocks.MockDataSource)
	verr := &ValidationError{Source: "prospects.csv", Line: 3, Err: errors.New("wrong number of fields")}
	r := newTestReachout(t, ds, failingProspects{err: verr}, &fakeDispatcher{})

	_, err := r.RunOutreach(context.Background(), RunOptions{})
	var target *ValidationError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 3, target.Line)
	ds.AssertNotCalled(t, "GetOutreachRecords", mock.Anything)
	ds.AssertNotCalled(t, "SaveOutreachRecords", mock.Anything, mock.Anything)
}

func TestRunOutreach_SaveFailureIsReturned(t *testing.T) {
	ds := new(mocks.MockDataSource)
	r := newTestReachout(t, ds, staticProspects{{Name: "A", Email: "a@x.com"}}, &fakeDispatcher{})

	ds.On("GetOutreachRecords", mock.Anything).Return([]model.OutreachRecord{}, nil)
	ds.On("SaveOutreachRecords", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	stop := startOperator(t, r, approveAll)
	result, err := r.RunOutreach(context.Background(), RunOptions{})
	stop()
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Len(t, result.Outcomes, 1)
}

func TestRunOutreach_SecondRunIsRefused(t *testing.T) {
	ds := new(mocks.MockDataSource)
	locker := NewLocalRunLocker()
	r := newTestReachout(t, ds, staticProspects{}, &fakeDispatcher{}, WithLocker(locker))

	_, release, err := locker.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	_, err = r.RunOutreach(context.Background(), RunOptions{})
	assert.ErrorIs(t, err, ErrRunInProgress)
}

// losableLocker hands out a lock whose loss the test triggers.
type losableLocker struct {
	lost chan error
}

func (l *losableLocker) Acquire(context.Context) (<-chan error, func(), error) {
	return l.lost, func() {}, nil
}

func TestRunOutreach_LostLockSkipsSave(t *testing.T) {
	ds := new(mocks.MockDataSource)
	d := &fakeDispatcher{}
	locker := &losableLocker{lost: make(chan error, 1)}
	prospects := staticProspects{{Name: "A", Email: "a@x.com"}, {Name: "B", Email: "b@x.com"}}
	r := newTestReachout(t, ds, prospects, d, WithLocker(locker))

	untouched := model.OutreachRecord{
		Email:             "x@x.com",
		Status:            model.StatusSent,
		Timestamp:         testNow.Add(-10 * 24 * time.Hour),
		ConfirmationToken: "old-token",
	}
	ds.On("GetOutreachRecords", mock.Anything).Return([]model.OutreachRecord{untouched}, nil)

	stop := startOperator(t, r, func(p model.Preview) (model.EventType, model.OperatorResponse) {
		if p.Index == 1 {
			locker.lost <- errors.New("lock expired")
			return "", model.OperatorResponse{}
		}
		return approveAll(p)
	})
	result, err := r.RunOutreach(context.Background(), RunOptions{})
	stop()

	require.ErrorIs(t, err, ErrRunLockLost)
	require.NotNil(t, result)
	assert.Equal(t, RunStatusFailed, result.Status)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, model.StatusSent, result.Outcomes[0].Status)
	ds.AssertNotCalled(t, "SaveOutreachRecords", mock.Anything, mock.Anything)
	ds.AssertNotCalled(t, "MarkReachedOut", mock.Anything, mock.Anything)
}

func TestNewReachout_NotifierPerEngine(t *testing.T) {
	first := newTestReachout(t, new(mocks.MockDataSource), staticProspects{}, &fakeDispatcher{})
	second := newTestReachout(t, new(mocks.MockDataSource), staticProspects{}, &fakeDispatcher{})

	require.NotNil(t, first.notifier)
	assert.NotSame(t, first.notifier, second.notifier)
}

func TestConfirmationURL(t *testing.T) {
	link := ConfirmationURL("https://reachout.example.com/", "a+b@x.com", "abc")
	assert.Equal(t, "https://reachout.example.com/api/confirm-interest?email=a%2Bb%40x.com&token=abc", link)
}

func TestGenerateConfirmationToken(t *testing.T) {
	first, err := GenerateConfirmationToken()
	require.NoError(t, err)
	second, err := GenerateConfirmationToken()
	require.NoError(t, err)

	assert.Len(t, first, 32)
	assert.Equal(t, strings.ToLower(first), first)
	assert.NotEqual(t, first, second)
}
