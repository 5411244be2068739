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
	"crypto/subtle"
	"strings"
	"time"

	"github.com/blnkfinance/reachout/internal/apierror"
	"github.com/blnkfinance/reachout/model"
	"github.com/sirupsen/logrus"
)

type ConfirmationStatus string

const (
	ConfirmationConfirmed        ConfirmationStatus = "confirmed"
	ConfirmationAlreadyConfirmed ConfirmationStatus = "already_confirmed"
)

type ConfirmationResult struct {
	Email       string             `json:"email"`
	Status      ConfirmationStatus `json:"status"`
	ConfirmedAt *time.Time         `json:"confirmed_at,omitempty"`
}

// ConfirmInterest accepts a recipient's confirmation link. An unknown address
// fails with NOT_FOUND and a wrong token with INVALID_TOKEN, neither touching
// the record. Confirming twice succeeds with ConfirmationAlreadyConfirmed.
func (r *Reachout) ConfirmInterest(ctx context.Context, email, token string) (*ConfirmationResult, error) {
	ctx, span := tracer.Start(ctx, "ConfirmInterest")
	defer span.End()

	email = model.NormalizeEmail(email)
	token = strings.TrimSpace(token)
	if email == "" || token == "" {
		confirmationsCounter.WithLabelValues("invalid_input").Inc()
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "email and token are required", nil)
	}

	record, err := r.datasource.GetOutreachRecordByEmail(ctx, email)
	if err != nil {
		if apierror.HasCode(err, apierror.ErrNotFound) {
			confirmationsCounter.WithLabelValues("not_found").Inc()
		}
		span.RecordError(err)
		return nil, err
	}

	if record.Confirmed {
		confirmationsCounter.WithLabelValues(string(ConfirmationAlreadyConfirmed)).Inc()
		return &ConfirmationResult{Email: email, Status: ConfirmationAlreadyConfirmed, ConfirmedAt: record.ConfirmedAt}, nil
	}

	if !tokensMatch(record.ConfirmationToken, token) {
		confirmationsCounter.WithLabelValues("invalid_token").Inc()
		return nil, apierror.NewAPIError(apierror.ErrInvalidToken, "invalid or expired confirmation link", nil)
	}

	at := r.now()
	updated, err := r.datasource.ConfirmOutreachRecord(ctx, email, token, at)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if !updated {
		// Lost a race with another confirmation or a run that replaced the token.
		current, err := r.datasource.GetOutreachRecordByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if current.Confirmed {
			confirmationsCounter.WithLabelValues(string(ConfirmationAlreadyConfirmed)).Inc()
			return &ConfirmationResult{Email: email, Status: ConfirmationAlreadyConfirmed, ConfirmedAt: current.ConfirmedAt}, nil
		}
		confirmationsCounter.WithLabelValues("invalid_token").Inc()
		return nil, apierror.NewAPIError(apierror.ErrInvalidToken, "invalid or expired confirmation link", nil)
	}

	confirmationsCounter.WithLabelValues(string(ConfirmationConfirmed)).Inc()
	logrus.WithField("email", email).Info("recipient confirmed interest")

	result := &ConfirmationResult{Email: email, Status: ConfirmationConfirmed, ConfirmedAt: &at}
	if err := r.SendWebhook(NewWebhook{Event: WebhookOutreachConfirmed, Payload: result}); err != nil {
		logrus.WithError(err).Warn("failed to enqueue confirmation webhook")
	}
	return result, nil
}

func tokensMatch(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
