// Package core fetches sprint data, runs the report computations and prints the results.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/popilot/internal/azdo"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/internal/outwriter"
	"github.com/huangsam/popilot/schema"
	"github.com/rs/zerolog/log"
)

// Sentinel errors of sprint selection.
var (
	ErrSprintNotFound   = errors.New("sprint not found")
	ErrNoCurrentSprint  = errors.New("no current sprint")
	ErrWorkItemNotFound = errors.New("work item not found")
)

// NewClient builds the Azure DevOps client for cfg, behind the response cache when one is configured.
func NewClient(cfg *contract.Config, mgr contract.CacheManager) contract.DevOpsClient {
	client := azdo.NewClient(cfg.BaseURL, cfg.PAT, cfg.Timeout,
		azdo.WithParentDepth(cfg.ParentDepth),
		azdo.WithLogger(log.Logger),
	)
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetResponseStore()
	}
	return NewCachedClient(client, store, cacheNamespace(cfg), cfg.CacheTTL)
}

// cacheNamespace separates cache entries by organization and by the depth of the
// resolved parent chains, since cached items carry their parents.
func cacheNamespace(cfg *contract.Config) string {
	return fmt.Sprintf("%s#parent-depth=%d", cfg.BaseURL, cfg.ParentDepth)
}

// findCurrent returns the sprint marked current.
func findCurrent(iterations []schema.Iteration) (schema.Iteration, error) {
	for _, it := range iterations {
		if it.TimeFrame == schema.CurrentFrame {
			return it, nil
		}
	}
	return schema.Iteration{}, ErrNoCurrentSprint
}

// findSprint returns the first sprint whose path starts with path.
func findSprint(iterations []schema.Iteration, path string) (schema.Iteration, error) {
	for _, it := range iterations {
		if strings.HasPrefix(it.Path, path) {
			return it, nil
		}
	}
	return schema.Iteration{}, fmt.Errorf("%w: %s", ErrSprintNotFound, path)
}

// selectSprint returns the sprint matching path, or the current sprint for an empty path.
func selectSprint(iterations []schema.Iteration, path string) (schema.Iteration, error) {
	if path == "" {
		return findCurrent(iterations)
	}
	return findSprint(iterations, path)
}

// logSprint writes the headline of a sprint unless the context suppresses it.
func logSprint(ctx context.Context, it schema.Iteration) {
	if shouldSuppressHeader(ctx) {
		return
	}
	log.Info().
		Str("sprint", it.Path).
		Str("start", it.StartDate.Format(contract.DateFormat)).
		Str("finish", it.FinishDate.Format(contract.DateFormat)).
		Msg("sprint")
}

func getIterations(ctx context.Context, cfg *contract.Config, client contract.IterationSource) ([]schema.Iteration, error) {
	iterations, err := client.GetIterations(ctx, cfg.Scope)
	if err != nil {
		return nil, fmt.Errorf("get sprints: %w", err)
	}
	return iterations, nil
}

// GetSprintsResults lists the sprints of the team.
func GetSprintsResults(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient) (schema.SprintList, error) {
	iterations, err := getIterations(ctx, cfg, client)
	if err != nil {
		return schema.SprintList{}, err
	}
	log.Info().Int("count", len(iterations)).Msg("sprints loaded")
	return schema.SprintList{Sprints: iterations}, nil
}

// ExecuteSprints prints the sprints of the team.
func ExecuteSprints(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient) error {
	start := time.Now()
	list, err := GetSprintsResults(ctx, cfg, client)
	if err != nil {
		return err
	}
	return outwriter.PrintSprints(list, cfg, time.Since(start))
}

// GetSprintItemsResults returns the items of a sprint ordered by stack rank.
// An empty path selects the current sprint and keeps only bugs and user stories.
func GetSprintItemsResults(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient, path string) (schema.SprintWorkItems, error) {
	iterations, err := getIterations(ctx, cfg, client)
	if err != nil {
		return schema.SprintWorkItems{}, err
	}
	sprint, err := selectSprint(iterations, path)
	if err != nil {
		return schema.SprintWorkItems{}, err
	}
	logSprint(ctx, sprint)

	items, err := client.GetWorkItemsOfIterationPath(ctx, cfg.Scope, sprint.Path)
	if err != nil {
		return schema.SprintWorkItems{}, fmt.Errorf("get items of %s: %w", sprint.Path, err)
	}
	if path == "" {
		items = schema.FilterItems(items, func(w schema.WorkItem) bool {
			return w.Type == schema.TypeBug || w.Type == schema.TypeUserStory
		})
	}
	schema.SortByStackRank(items)
	return schema.SprintWorkItems{Sprint: sprint, Items: items}, nil
}

// ExecuteSprintItems prints the items of a sprint.
func ExecuteSprintItems(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient, path string) error {
	start := time.Now()
	result, err := GetSprintItemsResults(ctx, cfg, client, path)
	if err != nil {
		return err
	}
	return outwriter.PrintSprintWorkItems(result, cfg, time.Since(start))
}
