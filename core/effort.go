package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/popilot/core/effort"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/internal/outwriter"
	"github.com/huangsam/popilot/schema"
	"github.com/rs/zerolog/log"
)

// effortSprints returns the sprint matching path, or every sprint that is not past.
func effortSprints(iterations []schema.Iteration, path string) ([]schema.Iteration, error) {
	if path != "" {
		sprint, err := findSprint(iterations, path)
		if err != nil {
			return nil, err
		}
		return []schema.Iteration{sprint}, nil
	}
	var sprints []schema.Iteration
	for _, it := range iterations {
		if it.TimeFrame != schema.PastFrame {
			sprints = append(sprints, it)
		}
	}
	if len(sprints) == 0 {
		return nil, fmt.Errorf("%w: no current or future sprint", ErrSprintNotFound)
	}
	return sprints, nil
}

// GetSprintEffortResults groups the effort of one sprint, or of all open sprints, by tag.
func GetSprintEffortResults(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient, path string) (schema.EffortReport, error) {
	iterations, err := getIterations(ctx, cfg, client)
	if err != nil {
		return schema.EffortReport{}, err
	}
	sprints, err := effortSprints(iterations, path)
	if err != nil {
		return schema.EffortReport{}, err
	}

	fetched, err := fetchPathItems(ctx, client, cfg.Scope, sprintPaths(sprints), cfg.Workers)
	if err != nil {
		return schema.EffortReport{}, err
	}
	scope := make([]effort.SprintItems, len(sprints))
	for i, s := range sprints {
		scope[i] = effort.SprintItems{Sprint: s, Items: fetched[i]}
	}
	log.Info().Int("sprints", len(sprints)).Strs("groupBy", cfg.GroupByTags).Msg("grouping effort")

	return effort.Group(scope, effort.Options{
		GroupTags: cfg.GroupByTags,
		Filters:   cfg.TagFilters,
		Completed: effort.ByTimeFrame,
	})
}

// ExecuteSprintEffort prints the effort report.
func ExecuteSprintEffort(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient, path string) error {
	start := time.Now()
	report, err := GetSprintEffortResults(ctx, cfg, client, path)
	if err != nil {
		return err
	}
	return outwriter.PrintEffort(report, cfg, time.Since(start))
}
