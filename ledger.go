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
	"sort"

	"github.com/blnkfinance/reachout/model"
)

// Ledger is the in-memory view of outreach records for one run. It holds at
// most one record per normalized address.
type Ledger struct {
	records []model.OutreachRecord
	index   map[string]int
}

// NewLedger builds a ledger from stored records. When an address appears more
// than once the confirmed record wins, then the most recent attempt.
func NewLedger(records []model.OutreachRecord) *Ledger {
	l := &Ledger{index: make(map[string]int, len(records))}
	for _, r := range records {
		key := model.NormalizeEmail(r.Email)
		if key == "" {
			continue
		}
		r.Email = key
		if i, ok := l.index[key]; ok {
			if preferRecord(r, l.records[i]) {
				l.records[i] = r
			}
			continue
		}
		l.index[key] = len(l.records)
		l.records = append(l.records, r)
	}
	return l
}

func preferRecord(candidate, current model.OutreachRecord) bool {
	if candidate.Confirmed != current.Confirmed {
		return candidate.Confirmed
	}
	return candidate.Timestamp.After(current.Timestamp)
}

// Lookup returns the record for email, if any.
func (l *Ledger) Lookup(email string) (model.OutreachRecord, bool) {
	i, ok := l.index[model.NormalizeEmail(email)]
	if !ok {
		return model.OutreachRecord{}, false
	}
	return l.records[i], true
}

func (l *Ledger) Len() int {
	return len(l.records)
}

// Merge overlays run outcomes onto the ledger. Status and timestamp are always
// taken from the outcome, error and token only when the outcome reports them.
// Confirmation state is never touched. Merging the same outcomes twice yields
// the same ledger.
func (l *Ledger) Merge(outcomes []model.OutreachOutcome) {
	for _, o := range outcomes {
		key := model.NormalizeEmail(o.Email)
		if key == "" {
			continue
		}

		i, ok := l.index[key]
		if !ok {
			i = len(l.records)
			l.index[key] = i
			l.records = append(l.records, model.OutreachRecord{Email: key})
		}

		r := &l.records[i]
		r.Status = o.Status
		r.Timestamp = o.Timestamp
		if o.Error != nil {
			r.Error = *o.Error
		}
		if o.ConfirmationToken != nil {
			r.ConfirmationToken = *o.ConfirmationToken
		}
	}
}

// Records returns a copy of the merged set ordered by address.
func (l *Ledger) Records() []model.OutreachRecord {
	out := make([]model.OutreachRecord, len(l.records))
	copy(out, l.records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Email < out[j].Email
	})
	return out
}
