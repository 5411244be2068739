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
	"encoding/json"
	"log"
	"net/http"

	"github.com/blnkfinance/reachout/config"
	"github.com/blnkfinance/reachout/internal/request"
	"github.com/hibiken/asynq"
)

const (
	WebhookOutreachSent      = "outreach.sent"
	WebhookOutreachCompleted = "outreach.completed"
	WebhookOutreachConfirmed = "outreach.confirmed"
	WebhookSystemError       = "system.error"
)

// NewWebhook is the envelope posted to the configured webhook URL.
type NewWebhook struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"data"`
}

// SendWebhook enqueues hook when a webhook URL is configured. Delivery happens
// in the workers process.
func (r *Reachout) SendWebhook(hook NewWebhook) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Notification.Webhook.Url == "" || r.queue == nil {
		return nil
	}
	return r.queue.EnqueueWebhook(hook)
}

func processHTTP(ctx context.Context, data NewWebhook) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}

	req, err := request.NewJSONRequest(ctx, http.MethodPost, conf.Notification.Webhook.Url, data, conf.Notification.Webhook.Headers)
	if err != nil {
		log.Println("Error creating request:", err)
		return err
	}

	_, err = request.Call(req, nil)
	if err != nil {
		log.Println("Error sending webhook:", err)
		return err
	}

	log.Printf("Webhook notification sent successfully: %s", data.Event)
	return nil
}

// ProcessWebhook delivers one queued webhook. A failed delivery is returned so
// the queue retries it.
func ProcessWebhook(ctx context.Context, task *asynq.Task) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Notification.Webhook.Url == "" {
		return nil
	}

	var payload NewWebhook
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Printf("Error unmarshaling task payload: %v", err)
		return err
	}
	log.Printf("Processing webhook: %+v\n", payload.Event)
	return processHTTP(ctx, payload)
}
