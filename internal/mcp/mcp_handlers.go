package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/popilot/core"
	"github.com/huangsam/popilot/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	client  contract.DevOpsClient
}

// jsonResult wraps a report as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetSprints(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	list, err := core.GetSprintsResults(core.WithSuppressHeader(ctx), cfg, h.client)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing sprints failed: %v", err)), nil
	}
	return jsonResult(list)
}

func (h *toolHandler) handleGetCapacities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if s := request.GetString("sprint", ""); s != "" {
		cfg.Sprint = strings.TrimSpace(s)
	}
	if err := contract.RevalidateCapacities(cfg,
		request.GetString("work_item_types", ""), request.GetString("attribution", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid capacity parameters: %v", err)), nil
	}

	result, err := core.GetCapacitiesResults(core.WithSuppressHeader(ctx), cfg, h.client)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("capacity report failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleGetSprintEffort(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if g := request.GetString("group_by_tags", ""); g != "" {
		cfg.GroupByTags = contract.SplitList(g)
	}
	if f := request.GetString("tag_filters", ""); f != "" {
		cfg.TagFilters = contract.SplitList(f)
	}
	path := strings.TrimSpace(request.GetString("sprint", ""))

	report, err := core.GetSprintEffortResults(core.WithSuppressHeader(ctx), cfg, h.client, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("effort report failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleGetVelocity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if err := contract.RevalidateVelocity(cfg, request.GetInt("take", 0)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid velocity parameters: %v", err)), nil
	}

	report, err := core.GetVelocityResults(core.WithSuppressHeader(ctx), cfg, h.client)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("velocity report failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleGetWorkItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	id := request.GetInt("id", 0)
	if id <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("id must be a positive work item id (received %d)", id)), nil
	}

	detail, err := core.GetWorkItemResults(core.WithSuppressHeader(ctx), cfg, h.client, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("work item lookup failed: %v", err)), nil
	}
	return jsonResult(detail)
}

func (h *toolHandler) handleGetQueries(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	list, err := core.GetQueriesResults(core.WithSuppressHeader(ctx), cfg, h.client)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing queries failed: %v", err)), nil
	}
	return jsonResult(list)
}
