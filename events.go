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
	"sync"

	"github.com/blnkfinance/reachout/model"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultSubscriberBuffer = 64

// EventHub fans engine events out to operator connections. Publishing never
// blocks: a subscriber whose buffer is full misses the event.
type EventHub struct {
	mu     sync.RWMutex
	subs   map[string]chan model.OutreachEvent
	buffer int
}

func NewEventHub(buffer int) *EventHub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &EventHub{subs: make(map[string]chan model.OutreachEvent), buffer: buffer}
}

// Subscribe registers a listener. cancel unregisters it and closes the channel.
func (h *EventHub) Subscribe() (id string, events <-chan model.OutreachEvent, cancel func()) {
	id = uuid.NewString()
	ch := make(chan model.OutreachEvent, h.buffer)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return id, ch, cancel
}

func (h *EventHub) Publish(event model.OutreachEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			logrus.WithFields(logrus.Fields{
				"subscriber": id,
				"event":      event.Event,
			}).Warn("dropping event for slow subscriber")
		}
	}
}

func (h *EventHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
