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
	"net/mail"
	"strings"
	"time"

	"github.com/blnkfinance/reachout/config"
	"github.com/blnkfinance/reachout/model"
)

type EligibilityOptions struct {
	Now      time.Time
	Cooldown time.Duration
	// Target restricts the run to one address, compared case-insensitively.
	Target string
	Limit  int
}

func (o EligibilityOptions) withDefaults() EligibilityOptions {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Cooldown <= 0 {
		o.Cooldown = config.DEFAULT_COOLDOWN_HOURS * time.Hour
	}
	if o.Limit <= 0 {
		o.Limit = config.DEFAULT_BATCH_LIMIT
	}
	return o
}

// SelectEligible returns the candidates that may be contacted now, in input order.
func SelectEligible(candidates []model.Prospect, ledger *Ledger, opts EligibilityOptions) []model.Prospect {
	opts = opts.withDefaults()
	target := model.NormalizeEmail(opts.Target)

	seen := make(map[string]struct{}, len(candidates))
	eligible := make([]model.Prospect, 0, opts.Limit)
	for _, c := range candidates {
		if !usableAddress(c.Email) {
			continue
		}

		key := c.Identity()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if target != "" && key != target {
			continue
		}

		if ledger != nil {
			if record, ok := ledger.Lookup(key); ok {
				if record.Confirmed {
					continue
				}
				if withinCooldown(record.Timestamp, opts.Now, opts.Cooldown) {
					continue
				}
			}
		}

		eligible = append(eligible, c)
		if len(eligible) == opts.Limit {
			break
		}
	}
	return eligible
}

// withinCooldown is symmetric so clock skew between runs cannot shorten the gap.
func withinCooldown(last, now time.Time, cooldown time.Duration) bool {
	if last.IsZero() {
		return false
	}
	gap := now.Sub(last)
	if gap < 0 {
		gap = -gap
	}
	return gap < cooldown
}

func usableAddress(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email
}
