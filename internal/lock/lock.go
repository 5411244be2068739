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

package redlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"
	extendScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('pexpire', KEYS[1], ARGV[2]) else return 0 end"
)

var (
	// ErrLockHeld is returned when another owner already holds the key.
	ErrLockHeld = errors.New("lock is already held")
	// ErrLockLost is returned when the key expired or changed owner.
	ErrLockLost = errors.New("lock expired or is held by another owner")
)

// Locker is a single-key mutex stored in Redis. The value identifies the
// owner so only the holder can release or extend it.
type Locker struct {
	client redis.UniversalClient
	key    string
	value  string
}

// NewLocker creates a locker for key. An empty value is replaced with a random owner id.
func NewLocker(client redis.UniversalClient, key, value string) *Locker {
	if value == "" {
		value = uuid.NewString()
	}
	return &Locker{
		client: client,
		key:    key,
		value:  value,
	}
}

func (l *Locker) Key() string {
	return l.key
}

func (l *Locker) Lock(ctx context.Context, ttl time.Duration) error {
	ok, err := l.client.SetNX(ctx, l.key, l.value, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLockHeld, l.key)
	}
	return nil
}

func (l *Locker) Unlock(ctx context.Context) error {
	result, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("unlock %s: %w", l.key, ErrLockLost)
	}
	return nil
}

// Extend resets the expiry of a lock we still own.
func (l *Locker) Extend(ctx context.Context, ttl time.Duration) error {
	result, err := l.client.Eval(ctx, extendScript, []string{l.key}, l.value, fmt.Sprintf("%d", ttl.Milliseconds())).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("extend %s: %w", l.key, ErrLockLost)
	}
	return nil
}

// KeepAlive extends the lock every ttl/3 until ctx is done. The returned
// channel yields at most one error, when an extension fails, and is closed
// once the loop exits.
func (l *Locker) KeepAlive(ctx context.Context, ttl time.Duration) <-chan error {
	lost := make(chan error, 1)
	interval := ttl / 3
	if interval <= 0 {
		interval = time.Second
	}

	go func() {
		defer close(lost)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := l.Extend(ctx, ttl); err != nil {
					if ctx.Err() != nil {
						return
					}
					lost <- err
					return
				}
			}
		}
	}()
	return lost
}
