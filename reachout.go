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
	"embed"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blnkfinance/reachout/composer"
	"github.com/blnkfinance/reachout/config"
	"github.com/blnkfinance/reachout/database"
	"github.com/blnkfinance/reachout/dispatcher"
	"github.com/blnkfinance/reachout/internal/cache"
	"github.com/blnkfinance/reachout/internal/notification"
	redis_db "github.com/blnkfinance/reachout/internal/redis-db"
	"github.com/blnkfinance/reachout/model"
)

// Reachout wires the campaign engine to its collaborators.
type Reachout struct {
	datasource database.IDataSource
	prospects  ProspectSource
	composer   composer.Composer
	dispatcher dispatcher.Dispatcher
	queue      *Queue
	locker     RunLocker
	cache      cache.Cache
	redis      *redis_db.Redis
	hub        *EventHub
	approvals  *ApprovalCoordinator
	notifier   *notification.Notifier
	cfg        *config.Configuration
	now        func() time.Time

	runMu   sync.Mutex
	running atomic.Bool
}

//go:embed sql/*.sql
var SQLFiles embed.FS

type Option func(*Reachout)

func WithComposer(c composer.Composer) Option {
	return func(r *Reachout) { r.composer = c }
}

func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(r *Reachout) { r.dispatcher = d }
}

func WithLocker(l RunLocker) Option {
	return func(r *Reachout) { r.locker = l }
}

// WithCache sets the prospect lookup cache. Without one, lookups always hit
// the datasource.
func WithCache(c cache.Cache) Option {
	return func(r *Reachout) { r.cache = c }
}

func WithProspectSource(s ProspectSource) Option {
	return func(r *Reachout) { r.prospects = s }
}

func WithQueue(q *Queue) Option {
	return func(r *Reachout) { r.queue = q }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reachout) { r.now = now }
}

// NewReachout initializes the engine with the provided datasource. Any
// collaborator not supplied through opts is built from the loaded
// configuration: the Redis run lock, the webhook queue, the composer and the
// SMTP dispatcher.
func NewReachout(db database.IDataSource, opts ...Option) (*Reachout, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	r := &Reachout{datasource: db, cfg: configuration, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}

	if r.prospects == nil {
		if configuration.Outreach.ProspectsFile != "" {
			r.prospects = CSVProspectSource{Path: configuration.Outreach.ProspectsFile}
		} else {
			r.prospects = NewDatasourceProspectSource(db)
		}
	}
	if r.composer == nil {
		r.composer, err = composer.New(context.Background(), configuration.Composer)
		if err != nil {
			return nil, err
		}
	}
	if r.dispatcher == nil {
		r.dispatcher = dispatcher.NewSMTPDispatcher(configuration.SMTP)
	}
	if r.queue == nil {
		r.queue, err = NewQueue(configuration)
		if err != nil {
			return nil, err
		}
	}
	if r.locker == nil {
		redisClient, err := redis_db.NewRedisClient([]string{configuration.Redis.Dns}, configuration.Redis.SkipTLSVerify)
		if err != nil {
			return nil, err
		}
		r.redis = redisClient
		r.locker = NewRedisRunLocker(redisClient.Client(), time.Duration(configuration.Outreach.LockTTLSec)*time.Second)
		if r.cache == nil {
			r.cache = cache.NewRedisCache(redisClient.Client())
		}
	}

	r.hub = NewEventHub(0)
	r.approvals = NewApprovalCoordinator(r.hub, configuration.Outreach.ApprovalTimeout())

	r.notifier = notification.NewNotifier(func(event string, payload interface{}) error {
		return r.SendWebhook(NewWebhook{Event: event, Payload: payload})
	})
	return r, nil
}

// Events is the engine half of the operator channel.
func (r *Reachout) Events() *EventHub {
	return r.hub
}

// Approvals receives operator decisions.
func (r *Reachout) Approvals() *ApprovalCoordinator {
	return r.approvals
}

// Results returns the stored ledger.
func (r *Reachout) Results(ctx context.Context) ([]model.OutreachRecord, error) {
	return r.datasource.GetOutreachRecords(ctx)
}

// Status is a snapshot of the engine for the operator console.
type Status struct {
	Running        bool           `json:"running"`
	RunID          string         `json:"run_id,omitempty"`
	Pending        *model.Preview `json:"pending,omitempty"`
	Subscribers    int            `json:"subscribers"`
	WebhookBacklog *int           `json:"webhook_backlog,omitempty"`
}

func (r *Reachout) Status() Status {
	status := Status{Running: r.running.Load(), Subscribers: r.hub.SubscriberCount()}
	if preview, runID, ok := r.approvals.Pending(); ok {
		status.Pending = &preview
		status.RunID = runID
	}
	if r.queue != nil {
		if backlog, err := r.queue.WebhookBacklog(); err == nil {
			status.WebhookBacklog = &backlog
		}
	}
	return status
}

func (r *Reachout) Close() error {
	var err error
	if r.queue != nil {
		err = r.queue.Close()
	}
	if r.redis != nil {
		if cerr := r.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
