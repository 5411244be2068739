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

// Package dispatcher delivers approved outreach messages.
package dispatcher

import (
	"context"
	"strings"

	"github.com/blnkfinance/reachout/model"
	"github.com/pkg/errors"
)

// Channel names a delivery transport.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelLinkedIn Channel = "linkedin"
)

var (
	ErrChannelNotImplemented = errors.New("dispatch channel not implemented")
	ErrInvalidMessage        = errors.New("message has no recipient or content")
)

// Dispatcher sends one message and reports whether it was accepted.
// There is no delivery receipt.
type Dispatcher interface {
	Send(ctx context.Context, msg model.Message) error
}

func validate(msg model.Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.Wrap(ErrInvalidMessage, "missing recipient")
	}
	if strings.TrimSpace(msg.Body) == "" && strings.TrimSpace(msg.HTML) == "" {
		return errors.Wrap(ErrInvalidMessage, "missing body")
	}
	return nil
}

// ForChannel returns the dispatcher registered for channel. Only email
// actually delivers anything.
func ForChannel(channel Channel, email Dispatcher) (Dispatcher, error) {
	switch channel {
	case ChannelEmail, "":
		return email, nil
	case ChannelWhatsApp:
		return WhatsAppDispatcher{}, nil
	case ChannelLinkedIn:
		return LinkedInDispatcher{}, nil
	}
	return nil, errors.Wrapf(ErrChannelNotImplemented, "unknown channel %q", channel)
}
