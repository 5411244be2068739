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
	"time"

	"github.com/blnkfinance/reachout/model"
	"github.com/sirupsen/logrus"
)

const prospectCacheTTL = 5 * time.Minute

func prospectCacheKey(email string) string {
	return "reachout:prospect:" + model.NormalizeEmail(email)
}

func (r *Reachout) CreateProspect(ctx context.Context, prospect model.Prospect) (model.Prospect, error) {
	ctx, span := tracer.Start(ctx, "CreateProspect")
	defer span.End()

	prospect.Email = prospect.Identity()
	return r.datasource.CreateProspect(ctx, prospect)
}

// GetProspects pages through stored prospects. A zero limit returns all of them.
func (r *Reachout) GetProspects(ctx context.Context, limit, offset int) ([]model.Prospect, error) {
	return r.datasource.GetAllProspects(ctx, limit, offset)
}

// GetProspect reads through the lookup cache. Cache failures fall back to
// the datasource.
func (r *Reachout) GetProspect(ctx context.Context, email string) (*model.Prospect, error) {
	key := prospectCacheKey(email)
	if r.cache != nil {
		var cached model.Prospect
		found, err := r.cache.Get(ctx, key, &cached)
		if err != nil {
			logrus.WithError(err).Warn("prospect cache read failed")
		}
		if found {
			return &cached, nil
		}
	}

	prospect, err := r.datasource.GetProspectByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, prospect, prospectCacheTTL); err != nil {
			logrus.WithError(err).Warn("prospect cache write failed")
		}
	}
	return prospect, nil
}

func (r *Reachout) DeleteProspect(ctx context.Context, email string) error {
	if err := r.datasource.DeleteProspect(ctx, email); err != nil {
		return err
	}
	r.evictProspect(ctx, email)
	return nil
}

func (r *Reachout) SetReachedOut(ctx context.Context, email string, reachedOut bool) error {
	if err := r.datasource.SetReachedOut(ctx, email, reachedOut); err != nil {
		return err
	}
	r.evictProspect(ctx, email)
	return nil
}

func (r *Reachout) evictProspect(ctx context.Context, emails ...string) {
	if r.cache == nil {
		return
	}
	for _, email := range emails {
		if err := r.cache.Delete(ctx, prospectCacheKey(email)); err != nil {
			logrus.WithError(err).WithField("email", email).Warn("prospect cache eviction failed")
		}
	}
}
