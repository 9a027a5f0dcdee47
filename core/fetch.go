package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/schema"
	"golang.org/x/sync/errgroup"
)

// fetchPathItems loads the items of several iteration paths with at most workers requests in flight.
// Results keep the order of paths. The first error cancels the remaining fetches.
func fetchPathItems(ctx context.Context, client contract.IterationSource, scope schema.ScopeContext, paths []string, workers int) ([][]schema.WorkItem, error) {
	results := make([][]schema.WorkItem, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, path := range paths {
		g.Go(func() error {
			items, err := client.GetWorkItemsOfIterationPath(ctx, scope, path)
			if err != nil {
				return fmt.Errorf("fetch items of %s: %w", path, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fetchHistories loads the update history of every item with at most workers requests in flight.
func fetchHistories(ctx context.Context, client contract.WorkItemHistorySource, items []schema.WorkItem, workers int) (map[int][]schema.FieldChange, error) {
	var mu sync.Mutex
	history := make(map[int][]schema.FieldChange, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, w := range items {
		g.Go(func() error {
			changes, err := client.GetWorkItemHistory(ctx, w.ID)
			if err != nil {
				return fmt.Errorf("fetch history of %d: %w", w.ID, err)
			}
			mu.Lock()
			history[w.ID] = changes
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return history, nil
}

// sprintPaths returns the paths of the given sprints.
func sprintPaths(sprints []schema.Iteration) []string {
	paths := make([]string, 0, len(sprints))
	for _, s := range sprints {
		paths = append(paths, s.Path)
	}
	return paths
}

// fetchQueryItems runs saved queries and loads their items with at most workers queries in flight.
// Results keep the order of queryIDs.
func fetchQueryItems(ctx context.Context, client contract.WorkItemSource, scope schema.ScopeContext, queryIDs []string, workers int) ([][]schema.WorkItem, error) {
	results := make([][]schema.WorkItem, len(queryIDs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, id := range queryIDs {
		g.Go(func() error {
			ids, err := client.RunQuery(ctx, scope, id)
			if err != nil {
				return fmt.Errorf("run query %s: %w", id, err)
			}
			items, err := client.GetWorkItems(ctx, ids)
			if err != nil {
				return fmt.Errorf("fetch items of query %s: %w", id, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
