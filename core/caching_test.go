package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/internal/iocache"
	"github.com/huangsam/popilot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestCachedClient(next contract.DevOpsClient, store contract.CacheStore, now time.Time) *CachedClient {
	c := NewCachedClient(next, store, "https://dev.azure.com/org", time.Hour).(*CachedClient)
	c.now = func() time.Time { return now }
	return c
}

func TestNewCachedClient_NilStore(t *testing.T) {
	next := &contract.MockDevOpsClient{}
	assert.Same(t, next, NewCachedClient(next, nil, "ns", time.Hour))
}

func TestGenerateCacheKey(t *testing.T) {
	a := &CachedClient{namespace: "org-a"}
	b := &CachedClient{namespace: "org-b"}

	assert.Equal(t, a.generateCacheKey("GetIterations", testScope), a.generateCacheKey("GetIterations", testScope))
	assert.NotEqual(t, a.generateCacheKey("GetIterations", testScope), b.generateCacheKey("GetIterations", testScope))
	assert.NotEqual(t, a.generateCacheKey("GetWorkItemHistory", 1), a.generateCacheKey("GetWorkItemHistory", 2))
	assert.Len(t, a.generateCacheKey("GetIterations", testScope), 64)
}

func TestCachedClient_GetIterations(t *testing.T) {
	now := time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)
	iterations := testIterations()
	payload, err := json.Marshal(iterations)
	require.NoError(t, err)

	tests := []struct {
		name      string
		data      []byte
		version   int
		timestamp int64
		getErr    error
		fetch     bool
	}{
		{"fresh hit", payload, currentCacheVersion, now.Add(-time.Minute).Unix(), nil, false},
		{"miss", nil, 0, 0, errors.New("not found"), true},
		{"stale entry", payload, currentCacheVersion, now.Add(-2 * time.Hour).Unix(), nil, true},
		{"old version", payload, currentCacheVersion + 1, now.Unix(), nil, true},
		{"corrupt entry", []byte("{"), currentCacheVersion, now.Unix(), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &contract.MockDevOpsClient{}
			store := &iocache.MockCacheStore{}
			store.On("Get", mock.AnythingOfType("string")).Return(tt.data, tt.version, tt.timestamp, tt.getErr)
			if tt.fetch {
				next.On("GetIterations", mock.Anything, testScope).Return(iterations, nil).Once()
				store.On("Set", mock.AnythingOfType("string"), payload, currentCacheVersion, now.Unix()).Return(nil).Once()
			}

			c := newTestCachedClient(next, store, now)
			got, err := c.GetIterations(context.Background(), testScope)
			require.NoError(t, err)
			assert.Equal(t, len(iterations), len(got))
			assert.Equal(t, iterations[2].Path, got[2].Path)

			next.AssertExpectations(t)
			store.AssertExpectations(t)
			if !tt.fetch {
				next.AssertNotCalled(t, "GetIterations", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCachedClient_FetchErrorIsNotStored(t *testing.T) {
	next := &contract.MockDevOpsClient{}
	store := &iocache.MockCacheStore{}
	boom := errors.New("boom")
	store.On("Get", mock.AnythingOfType("string")).Return(nil, 0, int64(0), errors.New("not found"))
	next.On("GetWorkItemHistory", mock.Anything, 5).Return(nil, boom)

	c := newTestCachedClient(next, store, time.Now())
	_, err := c.GetWorkItemHistory(context.Background(), 5)
	assert.ErrorIs(t, err, boom)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedClient_StoreFailureIsIgnored(t *testing.T) {
	next := &contract.MockDevOpsClient{}
	store := &iocache.MockCacheStore{}
	store.On("Get", mock.AnythingOfType("string")).Return(nil, 0, int64(0), errors.New("not found"))
	store.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))
	next.On("GetCapacities", mock.Anything, testScope, mock.Anything).Return(schema.TeamCapacity{
		Members: []schema.TeamMemberCapacity{{DisplayName: "Alice"}},
	}, nil)

	c := newTestCachedClient(next, store, time.Now())
	got, err := c.GetCapacities(context.Background(), testScope, testIterations()[2])
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, got.MemberNames())
}

func TestCachedClient_PassThrough(t *testing.T) {
	next := &contract.MockDevOpsClient{}
	store := &iocache.MockCacheStore{}
	next.On("GetWorkItems", mock.Anything, []int{1}).Return([]schema.WorkItem{{ID: 1}}, nil)
	next.On("RunQuery", mock.Anything, testScope, "q").Return([]int{1}, nil)
	next.On("AddTag", mock.Anything, 1, "committed").Return(nil)
	next.On("GetQueries", mock.Anything, testScope).Return([]schema.QueryItem{{ID: "q", Name: "Priority - A"}}, nil)
	newItem := schema.NewWorkItem{Type: schema.TypeTask, Title: "Write docs"}
	next.On("CreateWorkItem", mock.Anything, testScope, newItem).Return(schema.WorkItem{ID: 9, Title: "Write docs"}, nil)

	c := newTestCachedClient(next, store, time.Now())
	ctx := context.Background()

	items, err := c.GetWorkItems(ctx, []int{1})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	ids, err := c.RunQuery(ctx, testScope, "q")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)
	require.NoError(t, c.AddTag(ctx, 1, "committed"))
	queries, err := c.GetQueries(ctx, testScope)
	require.NoError(t, err)
	assert.Len(t, queries, 1)
	created, err := c.CreateWorkItem(ctx, testScope, newItem)
	require.NoError(t, err)
	assert.Equal(t, 9, created.ID)

	next.AssertExpectations(t)
	store.AssertNotCalled(t, "Get", mock.Anything)
}

// memStore is a CacheStore kept in a map.
type memStore struct {
	entries map[string][]byte
	ts      map[string]int64
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string][]byte), ts: make(map[string]int64)}
}

func (m *memStore) Get(key string) ([]byte, int, int64, error) {
	data, ok := m.entries[key]
	if !ok {
		return nil, 0, 0, errors.New("not found")
	}
	return data, currentCacheVersion, m.ts[key], nil
}

func (m *memStore) Set(key string, value []byte, _ int, timestamp int64) error {
	m.entries[key] = value
	m.ts[key] = timestamp
	return nil
}

func (m *memStore) GetStatus() (schema.CacheStatus, error) {
	return schema.CacheStatus{Connected: true, TotalEntries: len(m.entries)}, nil
}

func (m *memStore) Close() error { return nil }

func TestCacheNamespace_ParentDepth(t *testing.T) {
	shallow := &contract.Config{BaseURL: "https://dev.azure.com/org", ParentDepth: 1}
	deep := &contract.Config{BaseURL: "https://dev.azure.com/org", ParentDepth: 3}
	other := &contract.Config{BaseURL: "https://dev.azure.com/other", ParentDepth: 3}

	assert.NotEqual(t, cacheNamespace(shallow), cacheNamespace(deep))
	assert.NotEqual(t, cacheNamespace(deep), cacheNamespace(other))
	assert.Equal(t, cacheNamespace(deep), cacheNamespace(deep.Clone()))
}

func TestNewClient_NamespaceIncludesParentDepth(t *testing.T) {
	cfg := &contract.Config{BaseURL: "https://dev.azure.com/org", ParentDepth: 2, CacheTTL: time.Hour}
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetResponseStore").Return(newMemStore())

	c, ok := NewClient(cfg, mgr).(*CachedClient)
	require.True(t, ok)
	assert.Equal(t, cacheNamespace(cfg), c.namespace)
}

func TestCachedClient_ParentDepthDoesNotShareEntries(t *testing.T) {
	path := `Proj\Sprint 3`
	now := time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	twoParents := []schema.WorkItem{{ID: 7, Parents: []schema.ParentRef{{ID: 5}, {ID: 1}}}}
	oneParent := []schema.WorkItem{{ID: 7, Parents: []schema.ParentRef{{ID: 5}}}}

	deepNext := &contract.MockDevOpsClient{}
	deepNext.On("GetWorkItemsOfIterationPath", mock.Anything, testScope, path).Return(twoParents, nil).Once()
	deepCfg := &contract.Config{BaseURL: "https://dev.azure.com/org", ParentDepth: 3}
	deep := NewCachedClient(deepNext, store, cacheNamespace(deepCfg), time.Hour).(*CachedClient)
	deep.now = func() time.Time { return now }

	shallowNext := &contract.MockDevOpsClient{}
	shallowNext.On("GetWorkItemsOfIterationPath", mock.Anything, testScope, path).Return(oneParent, nil).Once()
	shallowCfg := &contract.Config{BaseURL: "https://dev.azure.com/org", ParentDepth: 1}
	shallow := NewCachedClient(shallowNext, store, cacheNamespace(shallowCfg), time.Hour).(*CachedClient)
	shallow.now = func() time.Time { return now }

	ctx := context.Background()
	got, err := deep.GetWorkItemsOfIterationPath(ctx, testScope, path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Parents, 2)

	got, err = shallow.GetWorkItemsOfIterationPath(ctx, testScope, path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Parents, 1)

	// Same depth again is served from the store
	got, err = deep.GetWorkItemsOfIterationPath(ctx, testScope, path)
	require.NoError(t, err)
	assert.Len(t, got[0].Parents, 2)

	deepNext.AssertExpectations(t)
	shallowNext.AssertExpectations(t)
	assert.Len(t, store.entries, 2)
}
