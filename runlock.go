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
	"sync"
	"time"

	redlock "github.com/blnkfinance/reachout/internal/lock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	runLockKey     = "reachout:run-lock"
	defaultLockTTL = 30 * time.Second
)

// RunLocker gives one run at a time exclusive use of the ledger. lost yields
// an error if exclusivity ends before release is called; it may be nil when
// the lock cannot be lost.
type RunLocker interface {
	Acquire(ctx context.Context) (lost <-chan error, release func(), err error)
}

type localRunLocker struct {
	mu sync.Mutex
}

// NewLocalRunLocker guards runs within a single process.
func NewLocalRunLocker() RunLocker {
	return &localRunLocker{}
}

func (l *localRunLocker) Acquire(_ context.Context) (<-chan error, func(), error) {
	if !l.mu.TryLock() {
		return nil, nil, ErrRunInProgress
	}
	return nil, l.mu.Unlock, nil
}

type redisRunLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisRunLocker guards runs across every process sharing client. The lock
// is extended in the background while the run lasts.
func NewRedisRunLocker(client redis.UniversalClient, ttl time.Duration) RunLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &redisRunLocker{client: client, ttl: ttl}
}

func (l *redisRunLocker) Acquire(ctx context.Context) (<-chan error, func(), error) {
	locker := redlock.NewLocker(l.client, runLockKey, "")
	if err := locker.Lock(ctx, l.ttl); err != nil {
		if errors.Is(err, redlock.ErrLockHeld) {
			return nil, nil, ErrRunInProgress
		}
		return nil, nil, err
	}

	keepAliveCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	lost := locker.KeepAlive(keepAliveCtx, l.ttl)

	release := func() {
		stop()
		if err := locker.Unlock(context.WithoutCancel(ctx)); err != nil {
			logrus.WithError(err).Warn("failed to release run lock")
		}
	}
	return lost, release, nil
}
