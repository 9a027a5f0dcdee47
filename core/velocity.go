package core

import (
	"context"
	"errors"
	"time"

	"github.com/huangsam/popilot/core/velocity"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/internal/outwriter"
	"github.com/huangsam/popilot/schema"
	"github.com/rs/zerolog/log"
)

// GetVelocityResults computes delivery statistics of the last cfg.Take past sprints
// and the health of the current iteration.
func GetVelocityResults(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient) (schema.VelocityReport, error) {
	iterations, err := getIterations(ctx, cfg, client)
	if err != nil {
		return schema.VelocityReport{}, err
	}

	past := velocity.LastPast(iterations, cfg.Take)
	fetched, err := fetchPathItems(ctx, client, cfg.Scope, sprintPaths(past), cfg.Workers)
	if err != nil {
		return schema.VelocityReport{}, err
	}
	sprints := make([]velocity.SprintItems, len(past))
	for i, s := range past {
		items := schema.FilterItems(fetched[i], func(w schema.WorkItem) bool {
			return velocity.DeliveredIn(s, w)
		})
		schema.SortByStackRank(items)
		sprints[i] = velocity.SprintItems{Sprint: s, Items: items}
	}

	stats, err := velocity.SprintStatistics(sprints)
	if err != nil {
		return schema.VelocityReport{}, err
	}
	report := schema.VelocityReport{Statistics: stats, PerSprint: velocity.PerSprint(sprints)}

	health, err := getIterationHealth(ctx, cfg, client, iterations)
	switch {
	case errors.Is(err, velocity.ErrNoCurrentIteration):
		log.Warn().Msg("no current sprint, skipping iteration statistics")
	case err != nil:
		return schema.VelocityReport{}, err
	default:
		report.Iteration = &health
	}
	return report, nil
}

// getIterationHealth loads the current and previous iteration groups and computes their statistics.
func getIterationHealth(ctx context.Context, cfg *contract.Config, client contract.IterationSource, iterations []schema.Iteration) (schema.IterationStatistics, error) {
	current, previous, err := velocity.CurrentAndPrevious(velocity.GroupByParentPath(iterations))
	if err != nil {
		return schema.IterationStatistics{}, err
	}

	var paths []string
	plan := func(g *velocity.IterationGroup) (sprints []int, self int) {
		self = -1
		for _, s := range g.Sprints {
			sprints = append(sprints, len(paths))
			paths = append(paths, s.Path)
		}
		if g.Path != "" {
			self = len(paths)
			paths = append(paths, g.Path)
		}
		return sprints, self
	}
	currentSprints, currentSelf := plan(&current)
	var previousSprints []int
	previousSelf := -1
	if previous != nil {
		previousSprints, previousSelf = plan(previous)
	}

	fetched, err := fetchPathItems(ctx, client, cfg.Scope, paths, cfg.Workers)
	if err != nil {
		return schema.IterationStatistics{}, err
	}
	collect := func(indexes []int) []schema.WorkItem {
		var items []schema.WorkItem
		for _, i := range indexes {
			items = append(items, fetched[i]...)
		}
		return items
	}
	features := func(i int) []schema.WorkItem {
		if i < 0 {
			return nil
		}
		return fetched[i]
	}

	return velocity.IterationStatistics(velocity.IterationInput{
		Current:               current,
		Previous:              previous,
		CurrentItems:          collect(currentSprints),
		CurrentFeatures:       features(currentSelf),
		PreviousItems:         collect(previousSprints),
		PreviousFeatures:      features(previousSelf),
		NonRoadmapParentTitle: cfg.NonRoadmapWorkParentTitle,
	}), nil
}

// recordSnapshots stores the per-sprint delivery in the history store.
func recordSnapshots(ctx context.Context, store contract.HistoryStore, scope schema.ScopeContext, sprints []schema.SprintVelocity) error {
	recordedAt := nowFrom(ctx).UTC()
	for _, s := range sprints {
		id, err := store.RecordSnapshot(recordedAt, scope, s)
		if err != nil {
			return err
		}
		log.Debug().Int64("snapshotID", id).Str("sprint", s.Path).Msg("velocity snapshot recorded")
	}
	return nil
}

// ExecuteVelocity prints the velocity report and records it when a history store is configured.
func ExecuteVelocity(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient, mgr contract.CacheManager) error {
	start := time.Now()
	report, err := GetVelocityResults(ctx, cfg, client)
	if err != nil {
		return err
	}
	if mgr != nil {
		if store := mgr.GetHistoryStore(); store != nil {
			if err := recordSnapshots(ctx, store, cfg.Scope, report.PerSprint); err != nil {
				contract.LogWarn("Cannot record velocity history", err)
			}
		}
	}
	return outwriter.PrintVelocity(report, cfg, time.Since(start))
}
