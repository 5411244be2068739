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

package database

import (
	"context"
	"time"

	"github.com/blnkfinance/reachout/model"
)

// IDataSource groups the storage operations the engine depends on.
type IDataSource interface {
	prospect
	outreachRecord
}

type prospect interface {
	CreateProspect(ctx context.Context, prospect model.Prospect) (model.Prospect, error)
	GetAllProspects(ctx context.Context, limit, offset int) ([]model.Prospect, error)
	GetProspectByEmail(ctx context.Context, email string) (*model.Prospect, error)
	DeleteProspect(ctx context.Context, email string) error
	SetReachedOut(ctx context.Context, email string, reachedOut bool) error
	MarkReachedOut(ctx context.Context, emails []string) error
}

type outreachRecord interface {
	GetOutreachRecords(ctx context.Context) ([]model.OutreachRecord, error)
	GetOutreachRecordByEmail(ctx context.Context, email string) (*model.OutreachRecord, error)
	SaveOutreachRecords(ctx context.Context, records []model.OutreachRecord) error
	ConfirmOutreachRecord(ctx context.Context, email, token string, at time.Time) (bool, error)
}
