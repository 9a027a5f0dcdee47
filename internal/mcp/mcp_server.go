// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/popilot/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the popilot MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, client contract.DevOpsClient) *server.MCPServer {
	s := server.NewMCPServer(
		"Popilot Sprint Reporting Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		client:  client,
	}

	// --- 1. Tool: get_sprints ---
	s.AddTool(mcp.NewTool("get_sprints",
		mcp.WithDescription("List the sprints of the team with their time frame and dates."),
	), h.handleGetSprints)

	// --- 2. Tool: get_capacities ---
	s.AddTool(mcp.NewTool("get_capacities",
		mcp.WithDescription("Compare the planned capacity of every team member with the work they completed and burned down, per sprint day."),
		mcp.WithString("sprint", mcp.Description("Sprint path prefix (defaults to the current sprint).")),
		mcp.WithString("work_item_types", mcp.Description("Comma separated work item types whose history counts (e.g. 'Task,Bug').")),
		mcp.WithString("attribution", mcp.Description("Who a work delta belongs to."),
			mcp.Enum("changed-by", "assigned-to", "changed-by-assigned-to")),
	), h.handleGetCapacities)

	// --- 3. Tool: get_sprint_effort ---
	s.AddTool(mcp.NewTool("get_sprint_effort",
		mcp.WithDescription("Sum estimated, remaining and completed hours per tag group and area path."),
		mcp.WithString("sprint", mcp.Description("Sprint path prefix (defaults to every current and future sprint).")),
		mcp.WithString("group_by_tags", mcp.Description("Comma separated tags that form the groups.")),
		mcp.WithString("tag_filters", mcp.Description("Comma separated tags an item needs to be counted.")),
	), h.handleGetSprintEffort)

	// --- 4. Tool: get_velocity ---
	s.AddTool(mcp.NewTool("get_velocity",
		mcp.WithDescription("Delivery statistics of the last past sprints and the health of the current iteration."),
		mcp.WithNumber("take", mcp.Description("Number of past sprints to include (defaults to 10).")),
	), h.handleGetVelocity)

	// --- 5. Tool: get_work_item ---
	s.AddTool(mcp.NewTool("get_work_item",
		mcp.WithDescription("Show a single work item with its parent chain and sprint."),
		mcp.WithNumber("id", mcp.Description("The work item id."), mcp.Required()),
	), h.handleGetWorkItem)

	// --- 6. Tool: get_queries ---
	s.AddTool(mcp.NewTool("get_queries",
		mcp.WithDescription("List the saved work item queries and folders of the project."),
	), h.handleGetQueries)

	return s
}

// StartMCPServer starts the popilot MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, client contract.DevOpsClient) error {
	s := NewMCPServer(baseCfg, client)
	return server.ServeStdio(s)
}
