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

package dispatcher

import (
	"context"

	"github.com/blnkfinance/reachout/config"
	"github.com/blnkfinance/reachout/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPDispatcher struct {
	from   string
	sender mailSender
}

func NewSMTPDispatcher(cfg config.SMTPConfig) *SMTPDispatcher {
	return &SMTPDispatcher{
		from:   cfg.From,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (d *SMTPDispatcher) buildMessage(msg model.Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", d.from)
	if msg.Name != "" {
		m.SetAddressHeader("To", msg.To, msg.Name)
	} else {
		m.SetHeader("To", msg.To)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return m
}

func (d *SMTPDispatcher) Send(ctx context.Context, msg model.Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := d.sender.DialAndSend(d.buildMessage(msg)); err != nil {
		logrus.WithField("to", msg.To).WithError(err).Error("smtp dispatch failed")
		return errors.Wrapf(err, "sending to %s", msg.To)
	}
	logrus.WithField("to", msg.To).Info("email dispatched")
	return nil
}
