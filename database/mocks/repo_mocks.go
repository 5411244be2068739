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
package mocks

import (
	"context"
	"time"

	"github.com/blnkfinance/reachout/model"
	"github.com/stretchr/testify/mock"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Prospect methods

func (m *MockDataSource) CreateProspect(ctx context.Context, prospect model.Prospect) (model.Prospect, error) {
	args := m.Called(ctx, prospect)
	return args.Get(0).(model.Prospect), args.Error(1)
}

func (m *MockDataSource) GetAllProspects(ctx context.Context, limit, offset int) ([]model.Prospect, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Prospect), args.Error(1)
}

func (m *MockDataSource) GetProspectByEmail(ctx context.Context, email string) (*model.Prospect, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Prospect), args.Error(1)
}

func (m *MockDataSource) DeleteProspect(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockDataSource) SetReachedOut(ctx context.Context, email string, reachedOut bool) error {
	args := m.Called(ctx, email, reachedOut)
	return args.Error(0)
}

func (m *MockDataSource) MarkReachedOut(ctx context.Context, emails []string) error {
	args := m.Called(ctx, emails)
	return args.Error(0)
}

// Outreach record methods

func (m *MockDataSource) GetOutreachRecords(ctx context.Context) ([]model.OutreachRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OutreachRecord), args.Error(1)
}

func (m *MockDataSource) GetOutreachRecordByEmail(ctx context.Context, email string) (*model.OutreachRecord, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OutreachRecord), args.Error(1)
}

func (m *MockDataSource) SaveOutreachRecords(ctx context.Context, records []model.OutreachRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockDataSource) ConfirmOutreachRecord(ctx context.Context, email, token string, at time.Time) (bool, error) {
	args := m.Called(ctx, email, token, at)
	return args.Bool(0), args.Error(1)
}
