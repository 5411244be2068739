package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/blnkfinance/reachout"
	"github.com/blnkfinance/reachout/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func awaitDecision(t *testing.T, input string, preview model.Preview) (reachout.ApprovalDecision, string) {
	t.Helper()

	hub := reachout.NewEventHub(0)
	approvals := reachout.NewApprovalCoordinator(hub, 0)
	_, events, cancel := hub.Subscribe()
	defer cancel()

	var out bytes.Buffer
	operator := newTerminalOperator(strings.NewReader(input), &out, approvals)
	done := make(chan struct{})
	go func() {
		defer close(done)
		operator.handle(events)
	}()

	ctx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	decision, err := approvals.Await(ctx, "run_1", preview)
	require.NoError(t, err)

	hub.Publish(model.OutreachEvent{Event: model.EventCompleted})
	<-done
	return decision, out.String()
}

func TestTerminalOperator_Approve(t *testing.T) {
	preview := model.Preview{Email: "ada@example.com", Name: "Ada", Index: 0, Subject: "Hello", Body: "Hi Ada"}

	decision, out := awaitDecision(t, "maybe\ny\n", preview)

	assert.True(t, decision.Approved)
	assert.Equal(t, "Hello", decision.Message.Subject)
	assert.Contains(t, out, "To: Ada <ada@example.com>")
	assert.Equal(t, 2, strings.Count(out, "Send this message?"))
}

func TestTerminalOperator_EditSubject(t *testing.T) {
	preview := model.Preview{Email: "ada@example.com", Name: "Ada", Index: 2, Subject: "Hello", Body: "Hi Ada"}

	decision, _ := awaitDecision(t, "e\nA better subject\n", preview)

	assert.True(t, decision.Approved)
	assert.Equal(t, "A better subject", decision.Message.Subject)
	assert.Equal(t, "Hi Ada", decision.Message.Body)
}

func TestTerminalOperator_RejectAndEndOfInput(t *testing.T) {
	preview := model.Preview{Email: "ada@example.com", Index: 1, Subject: "Hello"}

	decision, _ := awaitDecision(t, "n\n", preview)
	assert.False(t, decision.Approved)

	decision, _ = awaitDecision(t, "", preview)
	assert.False(t, decision.Approved)
}

func TestTerminalOperator_PrintsOutcomes(t *testing.T) {
	events := make(chan model.OutreachEvent, 3)
	events <- model.OutreachEvent{Event: model.EventSent, Data: model.CandidateEvent{Email: "ada@example.com", Status: model.StatusSent}}
	events <- model.OutreachEvent{Event: model.EventFailed, Data: model.CandidateEvent{Email: "bob@example.com", Status: model.StatusError, Error: "smtp down"}}
	close(events)

	var out bytes.Buffer
	newTerminalOperator(strings.NewReader(""), &out, nil).handle(events)

	assert.Contains(t, out.String(), "ada@example.com: sent")
	assert.Contains(t, out.String(), "bob@example.com: error (smtp down)")
}
