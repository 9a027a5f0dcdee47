package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/popilot/core/capacity"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/internal/outwriter"
	"github.com/huangsam/popilot/schema"
	"golang.org/x/sync/errgroup"
)

// GetCapacitiesResults computes capacity against work deltas for cfg.Sprint, or the current sprint.
func GetCapacitiesResults(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient) (schema.SprintCapacityAndWork, error) {
	iterations, err := getIterations(ctx, cfg, client)
	if err != nil {
		return schema.SprintCapacityAndWork{}, err
	}
	sprint, err := selectSprint(iterations, cfg.Sprint)
	if err != nil {
		return schema.SprintCapacityAndWork{}, err
	}
	if !sprint.HasDates() {
		return schema.SprintCapacityAndWork{}, fmt.Errorf("sprint %s has no start and finish date", sprint.Path)
	}
	logSprint(ctx, sprint)

	var (
		team  schema.TeamCapacity
		items []schema.WorkItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if team, err = client.GetCapacities(gctx, cfg.Scope, sprint); err != nil {
			return fmt.Errorf("get capacities of %s: %w", sprint.Path, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if items, err = client.GetWorkItemsOfIterationPath(gctx, cfg.Scope, sprint.Path); err != nil {
			return fmt.Errorf("get items of %s: %w", sprint.Path, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return schema.SprintCapacityAndWork{}, err
	}

	items = schema.FilterItems(items, capacity.TypeFilter(cfg.WorkItemTypes))
	history, err := fetchHistories(ctx, client, items, cfg.Workers)
	if err != nil {
		return schema.SprintCapacityAndWork{}, err
	}

	return capacity.Aggregate(capacity.Input{
		Sprint:   sprint,
		Capacity: team,
		Items:    items,
		History:  history,
		Rule:     cfg.Attribution,
	}, todayFrom(ctx))
}

// ExecuteCapacities prints the capacity report.
func ExecuteCapacities(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient) error {
	start := time.Now()
	result, err := GetCapacitiesResults(ctx, cfg, client)
	if err != nil {
		return err
	}
	return outwriter.PrintCapacities(result, todayFrom(ctx), cfg, time.Since(start))
}
