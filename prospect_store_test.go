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
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/blnkfinance/reachout/database/mocks"
	"github.com/blnkfinance/reachout/internal/cache"
	"github.com/blnkfinance/reachout/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func withTestCache(t *testing.T) Option {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return WithCache(cache.NewRedisCache(client))
}

func TestGetProspect_ReadsThroughCache(t *testing.T) {
	ds := new(mocks.MockDataSource)
	ada := &model.Prospect{Name: "Ada", Email: "ada@example.com", Title: "CTO"}
	ds.On("GetProspectByEmail", mock.Anything, "ada@example.com").Return(ada, nil).Once()

	r := newTestReachout(t, ds, staticProspects{}, &fakeDispatcher{}, withTestCache(t))
	ctx := context.Background()

	first, err := r.GetProspect(ctx, "ada@example.com")
	require.NoError(t, err)
	second, err := r.GetProspect(ctx, "ada@example.com")
	require.NoError(t, err)

	assert.Equal(t, "CTO", second.Title)
	assert.Equal(t, first.Email, second.Email)
	ds.AssertNumberOfCalls(t, "GetProspectByEmail", 1)
}

func TestSetReachedOut_EvictsCachedProspect(t *testing.T) {
	ds := new(mocks.MockDataSource)
	ds.On("GetProspectByEmail", mock.Anything, "ada@example.com").
		Return(&model.Prospect{Name: "Ada", Email: "ada@example.com"}, nil).Once()
	ds.On("GetProspectByEmail", mock.Anything, "ada@example.com").
		Return(&model.Prospect{Name: "Ada", Email: "ada@example.com", ReachedOut: true}, nil).Once()
	ds.On("SetReachedOut", mock.Anything, "ada@example.com", true).Return(nil)

	r := newTestReachout(t, ds, staticProspects{}, &fakeDispatcher{}, withTestCache(t))
	ctx := context.Background()

	before, err := r.GetProspect(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.False(t, before.ReachedOut)

	require.NoError(t, r.SetReachedOut(ctx, "ada@example.com", true))

	after, err := r.GetProspect(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, after.ReachedOut)
	ds.AssertExpectations(t)
}

func TestDeleteProspect_FailureKeepsCache(t *testing.T) {
	ds := new(mocks.MockDataSource)
	ds.On("GetProspectByEmail", mock.Anything, "ada@example.com").
		Return(&model.Prospect{Name: "Ada", Email: "ada@example.com"}, nil).Once()
	ds.On("DeleteProspect", mock.Anything, "ada@example.com").Return(assert.AnError)

	r := newTestReachout(t, ds, staticProspects{}, &fakeDispatcher{}, withTestCache(t))
	ctx := context.Background()

	_, err := r.GetProspect(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.ErrorIs(t, r.DeleteProspect(ctx, "ada@example.com"), assert.AnError)

	got, err := r.GetProspect(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	ds.AssertNumberOfCalls(t, "GetProspectByEmail", 1)
}

func TestGetProspect_WithoutCache(t *testing.T) {
	ds := new(mocks.MockDataSource)
	ds.On("GetProspectByEmail", mock.Anything, "ada@example.com").
		Return(&model.Prospect{Email: "ada@example.com"}, nil).Twice()

	r := newTestReachout(t, ds, staticProspects{}, &fakeDispatcher{})
	for i := 0; i < 2; i++ {
		_, err := r.GetProspect(context.Background(), "ada@example.com")
		require.NoError(t, err)
	}
	ds.AssertExpectations(t)
}
