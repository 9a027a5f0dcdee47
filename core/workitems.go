package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/internal/outwriter"
	"github.com/huangsam/popilot/schema"
	"github.com/rs/zerolog/log"
)

// GetWorkItemResults returns one work item with its parent chain and, when known, its sprint.
func GetWorkItemResults(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient, id int) (schema.WorkItemDetail, error) {
	items, err := client.GetWorkItems(ctx, []int{id})
	if err != nil {
		return schema.WorkItemDetail{}, fmt.Errorf("get work item %d: %w", id, err)
	}
	if len(items) == 0 {
		return schema.WorkItemDetail{}, fmt.Errorf("%w: %d", ErrWorkItemNotFound, id)
	}
	detail := schema.WorkItemDetail{Item: items[0]}

	// The item may belong to another team, so the sprint lookup is best effort.
	iterations, err := client.GetIterations(ctx, cfg.Scope)
	if err != nil {
		log.Warn().Err(err).Msg("cannot resolve sprint of work item")
		return detail, nil
	}
	for _, it := range iterations {
		if it.Path == detail.Item.IterationPath {
			detail.Sprint = &it
			break
		}
	}
	return detail, nil
}

// ExecuteWorkItem prints a single work item.
func ExecuteWorkItem(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient, id int) error {
	start := time.Now()
	detail, err := GetWorkItemResults(ctx, cfg, client, id)
	if err != nil {
		return err
	}
	return outwriter.PrintWorkItemDetail(detail, cfg, time.Since(start))
}

// firstRelevant returns the first of tags found in relevant, ignoring case.
func firstRelevant(tags, relevant []string) string {
	for _, t := range tags {
		if schema.ContainsFold(relevant, t) {
			return t
		}
	}
	return ""
}

// GetInheritTagsResults copies relevant tags from parents onto the items of a saved query.
// Items that already carry one of cfg.Tags are left alone. With cfg.DryRun nothing is written.
func GetInheritTagsResults(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient, queryID string) (schema.TagInheritanceReport, error) {
	report := schema.TagInheritanceReport{QueryID: queryID, DryRun: cfg.DryRun, Tags: cfg.Tags}
	if len(cfg.Tags) == 0 {
		return report, fmt.Errorf("at least one tag is required")
	}
	if strings.TrimSpace(queryID) == "" {
		return report, fmt.Errorf("query id is required")
	}

	ids, err := client.RunQuery(ctx, cfg.Scope, queryID)
	if err != nil {
		return report, fmt.Errorf("run query %s: %w", queryID, err)
	}
	items, err := client.GetWorkItems(ctx, ids)
	if err != nil {
		return report, fmt.Errorf("get query items: %w", err)
	}
	log.Info().Str("query", queryID).Int("count", len(items)).Msg("query items loaded")

	for _, w := range items {
		result := schema.TagInheritance{ID: w.ID, Title: w.Title}
		if tag := firstRelevant(w.Tags, cfg.Tags); tag != "" {
			result.Action = schema.TagAlreadyPresent
			result.Tag = tag
			report.Results = append(report.Results, result)
			continue
		}

		var parentTags []string
		for _, p := range w.Parents {
			parentTags = append(parentTags, p.Tags...)
			result.ParentIDs = append(result.ParentIDs, p.ID)
		}
		result.Tag = firstRelevant(parentTags, cfg.Tags)
		switch {
		case result.Tag == "":
			result.Action = schema.TagNotInherited
		case cfg.DryRun:
			result.Action = schema.TagWouldInherit
		default:
			if err := client.AddTag(ctx, w.ID, result.Tag); err != nil {
				return report, fmt.Errorf("tag work item %d: %w", w.ID, err)
			}
			result.Action = schema.TagInherited
			log.Info().Int("id", w.ID).Str("tag", result.Tag).Ints("parents", result.ParentIDs).Msg("tag inherited")
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}

// ExecuteInheritTags prints the outcome of tag inheritance for a saved query.
func ExecuteInheritTags(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient, queryID string) error {
	start := time.Now()
	report, err := GetInheritTagsResults(ctx, cfg, client, queryID)
	if err != nil {
		return err
	}
	return outwriter.PrintTagInheritance(report, cfg, time.Since(start))
}
