package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/schema"
	"github.com/rs/zerolog/log"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 2

// CachedClient serves sprint-level reads from the response cache.
// Id lookups, queries and writes always go to the server.
type CachedClient struct {
	next      contract.DevOpsClient
	store     contract.CacheStore
	namespace string
	ttl       time.Duration
	now       func() time.Time
}

var _ contract.DevOpsClient = &CachedClient{}

// NewCachedClient wraps next with store. It returns next unchanged when store is nil.
// namespace separates entries of different organizations and parent depths.
func NewCachedClient(next contract.DevOpsClient, store contract.CacheStore, namespace string, ttl time.Duration) contract.DevOpsClient {
	if store == nil {
		return next
	}
	return &CachedClient{next: next, store: store, namespace: namespace, ttl: ttl, now: time.Now}
}

// generateCacheKey creates a unique key from the method and its arguments
func (c *CachedClient) generateCacheKey(method string, args ...any) string {
	data, err := json.Marshal(append([]any{c.namespace, method}, args...))
	if err != nil {
		data = []byte(fmt.Sprint(c.namespace, method, args))
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit[T any](c *CachedClient, key string) (T, bool) {
	var result T
	data, version, ts, err := c.store.Get(key)
	if err != nil {
		return result, false // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || c.now().Sub(time.Unix(ts, 0)) > c.ttl {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}

// cached returns the cached value of key or computes and stores it.
func cached[T any](c *CachedClient, method, key string, fetch func() (T, error)) (T, error) {
	if result, ok := checkCacheHit[T](c, key); ok {
		log.Debug().Str("method", method).Msg("cache hit")
		return result, nil
	}
	log.Debug().Str("method", method).Msg("cache miss")

	result, err := fetch()
	if err != nil {
		return result, err
	}
	if data, err := json.Marshal(result); err == nil {
		if err := c.store.Set(key, data, currentCacheVersion, c.now().Unix()); err != nil {
			log.Warn().Err(err).Str("method", method).Msg("cannot store response")
		}
	}
	return result, nil
}

// GetIterations implements the DevOpsClient interface.
func (c *CachedClient) GetIterations(ctx context.Context, scope schema.ScopeContext) ([]schema.Iteration, error) {
	key := c.generateCacheKey("GetIterations", scope)
	return cached(c, "GetIterations", key, func() ([]schema.Iteration, error) {
		return c.next.GetIterations(ctx, scope)
	})
}

// GetWorkItemsOfIterationPath implements the DevOpsClient interface.
func (c *CachedClient) GetWorkItemsOfIterationPath(ctx context.Context, scope schema.ScopeContext, path string) ([]schema.WorkItem, error) {
	key := c.generateCacheKey("GetWorkItemsOfIterationPath", scope, path)
	return cached(c, "GetWorkItemsOfIterationPath", key, func() ([]schema.WorkItem, error) {
		return c.next.GetWorkItemsOfIterationPath(ctx, scope, path)
	})
}

// GetWorkItemHistory implements the DevOpsClient interface.
func (c *CachedClient) GetWorkItemHistory(ctx context.Context, id int) ([]schema.FieldChange, error) {
	key := c.generateCacheKey("GetWorkItemHistory", id)
	return cached(c, "GetWorkItemHistory", key, func() ([]schema.FieldChange, error) {
		return c.next.GetWorkItemHistory(ctx, id)
	})
}

// GetCapacities implements the DevOpsClient interface.
func (c *CachedClient) GetCapacities(ctx context.Context, scope schema.ScopeContext, iteration schema.Iteration) (schema.TeamCapacity, error) {
	key := c.generateCacheKey("GetCapacities", scope, iteration.ID)
	return cached(c, "GetCapacities", key, func() (schema.TeamCapacity, error) {
		return c.next.GetCapacities(ctx, scope, iteration)
	})
}

// GetWorkItems implements the DevOpsClient interface.
func (c *CachedClient) GetWorkItems(ctx context.Context, ids []int) ([]schema.WorkItem, error) {
	return c.next.GetWorkItems(ctx, ids)
}

// RunQuery implements the DevOpsClient interface.
func (c *CachedClient) RunQuery(ctx context.Context, scope schema.ScopeContext, queryID string) ([]int, error) {
	return c.next.RunQuery(ctx, scope, queryID)
}

// GetQueries implements the DevOpsClient interface.
func (c *CachedClient) GetQueries(ctx context.Context, scope schema.ScopeContext) ([]schema.QueryItem, error) {
	return c.next.GetQueries(ctx, scope)
}

// AddTag implements the DevOpsClient interface.
func (c *CachedClient) AddTag(ctx context.Context, id int, tag string) error {
	return c.next.AddTag(ctx, id, tag)
}

// CreateWorkItem implements the DevOpsClient interface.
func (c *CachedClient) CreateWorkItem(ctx context.Context, scope schema.ScopeContext, item schema.NewWorkItem) (schema.WorkItem, error) {
	return c.next.CreateWorkItem(ctx, scope, item)
}
