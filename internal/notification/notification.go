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

package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/blnkfinance/reachout/config"
	"github.com/blnkfinance/reachout/internal/request"
	"github.com/sirupsen/logrus"
)

// WebhookSender forwards an event to the configured webhook endpoint.
type WebhookSender func(event string, payload interface{}) error

// Notifier reports infrastructure failures for one engine. Its webhook
// sender is optional.
type Notifier struct {
	webhook WebhookSender
}

// NewNotifier returns a Notifier that also publishes system.error events
// through webhook when one is given.
func NewNotifier(webhook WebhookSender) *Notifier {
	return &Notifier{webhook: webhook}
}

// SlackNotification posts err to the configured Slack webhook.
func SlackNotification(err error) {
	data := json.RawMessage(fmt.Sprintf(`{
		"blocks": [
			{
				"type": "header",
				"text": {
					"type": "plain_text",
					"text": "Error From Reachout 🐞",
					"emoji": true
				}
			},
			{
				"type": "section",
				"fields": [
					{
						"type": "mrkdwn",
						"text": "*Error:*\n%v"
					}
				]
			},
			{
				"type": "section",
				"fields": [
					{
						"type": "mrkdwn",
						"text": "*Time:*\n%v"
					}
				]
			}
		]
	}`, jsonEscape(err.Error()), time.Now().Format(time.RFC822)))

	conf, err := config.Fetch()
	if err != nil {
		log.Println(err)
		return
	}

	req, err := request.NewJSONRequest(context.Background(), http.MethodPost, conf.Notification.Slack.WebhookUrl, &data, nil)
	if err != nil {
		log.Println(err)
		return
	}

	_, err = request.Call(req, nil)
	if err != nil {
		log.Println(err)
	}
}

// NotifyError logs systemError and posts it to Slack when configured. It is
// for callers that have no engine, such as startup failures.
func NotifyError(systemError error) {
	(&Notifier{}).NotifyError(systemError)
}

// NotifyError logs systemError and fans it out to Slack and the webhook
// endpoint when either is configured. It never blocks the caller.
func (n *Notifier) NotifyError(systemError error) {
	go n.notify(systemError)
}

func (n *Notifier) notify(systemError error) {
	logrus.Error(systemError)

	conf, err := config.Fetch()
	if err != nil {
		log.Println(err)
		return
	}

	if conf.Notification.Slack.WebhookUrl != "" {
		SlackNotification(systemError)
	}

	if n.webhook != nil && conf.Notification.Webhook.Url != "" {
		if err := n.webhook("system.error", map[string]string{"error": systemError.Error()}); err != nil {
			logrus.WithError(err).Warn("failed to forward system error to webhook")
		}
	}
}

func jsonEscape(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return s
	}
	return string(b[1 : len(b)-1])
}
