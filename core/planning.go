package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/popilot/core/priority"
	"github.com/huangsam/popilot/core/velocity"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/internal/outwriter"
	"github.com/huangsam/popilot/schema"
	"github.com/rs/zerolog/log"
)

// Sentinel errors of work item creation.
var (
	ErrAmbiguousSprint = errors.New("more than one sprint matches")
	ErrMemberNotFound  = errors.New("team member not found")
	ErrAmbiguousMember = errors.New("more than one team member matches")
)

// GetQueriesResults lists the saved queries and folders of the project.
func GetQueriesResults(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient) (schema.QueryList, error) {
	queries, err := client.GetQueries(ctx, cfg.Scope)
	if err != nil {
		return schema.QueryList{}, fmt.Errorf("get queries: %w", err)
	}
	log.Info().Int("count", len(queries)).Msg("queries loaded")
	return schema.QueryList{Queries: queries}, nil
}

// ExecuteQueries prints the saved queries of the project.
func ExecuteQueries(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient) error {
	start := time.Now()
	list, err := GetQueriesResults(ctx, cfg, client)
	if err != nil {
		return err
	}
	return outwriter.PrintQueries(list, cfg, time.Since(start))
}

// GetPrioritiesResults summarizes every "Priority - " query of the team against the current sprint.
// Unless cfg.SkipStatistics is set, the velocity statistics are added.
func GetPrioritiesResults(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient) (schema.PrioritiesReport, error) {
	iterations, err := getIterations(ctx, cfg, client)
	if err != nil {
		return schema.PrioritiesReport{}, err
	}
	current, err := findCurrent(iterations)
	if err != nil {
		return schema.PrioritiesReport{}, err
	}
	logSprint(ctx, current)

	queries, err := client.GetQueries(ctx, cfg.Scope)
	if err != nil {
		return schema.PrioritiesReport{}, fmt.Errorf("get queries: %w", err)
	}
	selected := priority.Select(queries, cfg.Scope.Team)
	priority.Order(selected, cfg.PriorityOrder)
	log.Info().Int("count", len(selected)).Msg("priority queries selected")

	ids := make([]string, len(selected))
	for i, q := range selected {
		ids[i] = q.ID
	}
	fetched, err := fetchQueryItems(ctx, client, cfg.Scope, ids, cfg.Workers)
	if err != nil {
		return schema.PrioritiesReport{}, err
	}

	report := schema.PrioritiesReport{Sprint: current, Priorities: make([]schema.Priority, 0, len(selected))}
	for i, q := range selected {
		report.Priorities = append(report.Priorities, priority.Summarize(q, fetched[i], current))
	}
	if cfg.SkipStatistics {
		return report, nil
	}

	stats, err := GetVelocityResults(ctx, cfg, client)
	switch {
	case errors.Is(err, velocity.ErrEmptyScope):
		log.Warn().Msg("no past sprints, skipping sprint statistics")
	case err != nil:
		return schema.PrioritiesReport{}, err
	default:
		report.Statistics = &stats.Statistics
		report.Iteration = stats.Iteration
	}
	return report, nil
}

// ExecutePriorities prints the progress of the team's priorities.
func ExecutePriorities(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient) error {
	start := time.Now()
	report, err := GetPrioritiesResults(ctx, cfg, client)
	if err != nil {
		return err
	}
	return outwriter.PrintPriorities(report, cfg, time.Since(start))
}

// NewWorkItemRequest is what a user asks create-work-item for.
// Sprint and Assignee are matched as case-insensitive substrings.
type NewWorkItemRequest struct {
	Type     string
	Title    string
	Sprint   string
	Assignee string
	Effort   *float64
	ParentID *int
}

// matchSprint returns the only sprint whose path contains part.
func matchSprint(iterations []schema.Iteration, part string) (schema.Iteration, error) {
	var matches []schema.Iteration
	for _, it := range iterations {
		if containsFold(it.Path, part) {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 0:
		return schema.Iteration{}, fmt.Errorf("%w: %s", ErrSprintNotFound, part)
	case 1:
		return matches[0], nil
	default:
		return schema.Iteration{}, fmt.Errorf("%w %q: %s and %s", ErrAmbiguousSprint, part, matches[0].Path, matches[1].Path)
	}
}

// matchMember returns the only team member whose display name contains part.
func matchMember(team schema.TeamCapacity, part string) (schema.TeamMemberCapacity, error) {
	var matches []schema.TeamMemberCapacity
	for _, m := range team.Members {
		if containsFold(m.DisplayName, part) {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 0:
		return schema.TeamMemberCapacity{}, fmt.Errorf("%w: %s", ErrMemberNotFound, part)
	case 1:
		return matches[0], nil
	default:
		return schema.TeamMemberCapacity{}, fmt.Errorf("%w %q: %s and %s", ErrAmbiguousMember, part, matches[0].DisplayName, matches[1].DisplayName)
	}
}

func containsFold(s, part string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(part))
}

// GetCreateWorkItemResults creates a work item in the team's area and the requested sprint.
// The assignee must be a team member with capacity in that sprint.
func GetCreateWorkItemResults(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient, req NewWorkItemRequest) (schema.WorkItemDetail, error) {
	if strings.TrimSpace(req.Title) == "" {
		return schema.WorkItemDetail{}, fmt.Errorf("a title is required")
	}
	if strings.TrimSpace(req.Sprint) == "" {
		return schema.WorkItemDetail{}, fmt.Errorf("a sprint is required")
	}
	if req.Effort != nil && *req.Effort < 0 {
		return schema.WorkItemDetail{}, fmt.Errorf("effort must not be negative (received %v)", *req.Effort)
	}

	iterations, err := getIterations(ctx, cfg, client)
	if err != nil {
		return schema.WorkItemDetail{}, err
	}
	sprint, err := matchSprint(iterations, req.Sprint)
	if err != nil {
		return schema.WorkItemDetail{}, err
	}

	item := schema.NewWorkItem{
		Type:          req.Type,
		Title:         strings.TrimSpace(req.Title),
		IterationPath: sprint.Path,
		Effort:        req.Effort,
		ParentID:      req.ParentID,
	}
	if item.Type == "" {
		item.Type = schema.TypeTask
	}
	if req.Assignee != "" {
		team, err := client.GetCapacities(ctx, cfg.Scope, sprint)
		if err != nil {
			return schema.WorkItemDetail{}, fmt.Errorf("get team members of %s: %w", sprint.Path, err)
		}
		member, err := matchMember(team, req.Assignee)
		if err != nil {
			return schema.WorkItemDetail{}, err
		}
		item.AssignedTo = member.UniqueName
		if item.AssignedTo == "" {
			item.AssignedTo = member.DisplayName
		}
	}

	created, err := client.CreateWorkItem(ctx, cfg.Scope, item)
	if err != nil {
		return schema.WorkItemDetail{}, err
	}
	return schema.WorkItemDetail{Item: created, Sprint: &sprint}, nil
}

// ExecuteCreateWorkItem creates a work item and prints it.
func ExecuteCreateWorkItem(ctx context.Context, cfg *contract.Config, client contract.DevOpsClient, req NewWorkItemRequest) error {
	start := time.Now()
	detail, err := GetCreateWorkItemResults(ctx, cfg, client, req)
	if err != nil {
		return err
	}
	return outwriter.PrintWorkItemDetail(detail, cfg, time.Since(start))
}
