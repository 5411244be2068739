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

	"github.com/blnkfinance/reachout/model"
	"github.com/pkg/errors"
)

type WhatsAppDispatcher struct{}

func (WhatsAppDispatcher) Send(_ context.Context, msg model.Message) error {
	return errors.Wrapf(ErrChannelNotImplemented, "whatsapp message to %s", msg.To)
}

type LinkedInDispatcher struct{}

func (LinkedInDispatcher) Send(_ context.Context, msg model.Message) error {
	return errors.Wrapf(ErrChannelNotImplemented, "linkedin message to %s", msg.To)
}
