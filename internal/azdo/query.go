package azdo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/huangsam/popilot/schema"
)

type queryDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	IsFolder  bool       `json:"isFolder"`
	QueryType string     `json:"queryType"`
	WIQL      string     `json:"wiql"`
	Children  []queryDTO `json:"children"`
}

type queryList struct {
	Value []queryDTO `json:"value"`
}

// flatten appends d and its children depth first.
func (d queryDTO) flatten(depth int, out []schema.QueryItem) []schema.QueryItem {
	out = append(out, schema.QueryItem{
		ID:        d.ID,
		Name:      d.Name,
		Path:      d.Path,
		IsFolder:  d.IsFolder,
		QueryType: d.QueryType,
		Depth:     depth,
	})
	for _, child := range d.Children {
		out = child.flatten(depth+1, out)
	}
	return out
}

// GetQueries returns the saved queries and folders of the project two levels deep, parents before children.
func (c *Client) GetQueries(ctx context.Context, scope schema.ScopeContext) ([]schema.QueryItem, error) {
	q := url.Values{}
	q.Set("$depth", "2")

	var list queryList
	if err := c.doJSON(ctx, http.MethodGet, c.projectURL(scope, "/_apis/wit/queries", q), "", nil, &list); err != nil {
		return nil, fmt.Errorf("get queries of %s: %w", scope.Project, err)
	}
	var items []schema.QueryItem
	for _, d := range list.Value {
		items = d.flatten(0, items)
	}
	c.log.Debug().Str("project", scope.Project).Int("count", len(items)).Msg("queries fetched")
	return items, nil
}

// RunQuery runs a saved query and returns the ids it yields.
func (c *Client) RunQuery(ctx context.Context, scope schema.ScopeContext, queryID string) ([]int, error) {
	q := url.Values{}
	q.Set("$expand", "wiql")

	var query queryDTO
	u := c.projectURL(scope, "/_apis/wit/queries/"+url.PathEscape(queryID), q)
	if err := c.doJSON(ctx, http.MethodGet, u, "", nil, &query); err != nil {
		return nil, fmt.Errorf("get query %s: %w", queryID, err)
	}
	if strings.TrimSpace(query.WIQL) == "" {
		return nil, fmt.Errorf("query %s is a folder or has no wiql", queryID)
	}
	ids, err := c.queryWIQL(ctx, scope, query.WIQL)
	if err != nil {
		return nil, fmt.Errorf("run query %s: %w", query.Name, err)
	}
	return ids, nil
}

type patchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

type relationValue struct {
	Rel        string            `json:"rel"`
	URL        string            `json:"url"`
	Attributes map[string]string `json:"attributes"`
}

// AddTag appends a tag to the tags a work item currently has.
func (c *Client) AddTag(ctx context.Context, id int, tag string) error {
	q := url.Values{}
	q.Set("fields", fieldTags)

	var current workItemDTO
	path := "/_apis/wit/workitems/" + strconv.Itoa(id)
	if err := c.doJSON(ctx, http.MethodGet, c.orgURL(path, q), "", nil, &current); err != nil {
		return fmt.Errorf("get tags of work item %d: %w", id, err)
	}

	value := tag
	if tags := strings.TrimSpace(current.Fields.str(fieldTags)); tags != "" {
		value = tags + ";" + tag
	}
	patch := []patchOperation{{Op: "add", Path: "/fields/" + fieldTags, Value: value}}
	if err := c.doJSON(ctx, http.MethodPatch, c.orgURL(path, nil), "application/json-patch+json", patch, nil); err != nil {
		return fmt.Errorf("add tag %q to work item %d: %w", tag, id, err)
	}
	c.log.Info().Int("id", id).Str("tag", tag).Msg("tag added")
	return nil
}

type teamFieldValues struct {
	DefaultValue string `json:"defaultValue"`
	Values       []struct {
		Value string `json:"value"`
	} `json:"values"`
}

// teamAreaPath returns the default area path of the team, or its first area.
func (c *Client) teamAreaPath(ctx context.Context, scope schema.ScopeContext) (string, error) {
	var res teamFieldValues
	if err := c.doJSON(ctx, http.MethodGet, c.teamURL(scope, "/_apis/work/teamsettings/teamfieldvalues", nil), "", nil, &res); err != nil {
		return "", fmt.Errorf("get areas of %s: %w", scope.Team, err)
	}
	if res.DefaultValue != "" {
		return res.DefaultValue, nil
	}
	if len(res.Values) > 0 && res.Values[0].Value != "" {
		return res.Values[0].Value, nil
	}
	return "", fmt.Errorf("team %s has no area", scope.Team)
}

// CreateWorkItem creates a work item in the team's area unless item names one.
// A parent is linked through its url, so it has to exist.
func (c *Client) CreateWorkItem(ctx context.Context, scope schema.ScopeContext, item schema.NewWorkItem) (schema.WorkItem, error) {
	if strings.TrimSpace(item.Title) == "" {
		return schema.WorkItem{}, fmt.Errorf("a title is required")
	}
	area := item.AreaPath
	if area == "" {
		var err error
		if area, err = c.teamAreaPath(ctx, scope); err != nil {
			return schema.WorkItem{}, err
		}
	}

	patch := []patchOperation{
		{Op: "add", Path: "/fields/" + fieldTitle, Value: item.Title},
		{Op: "add", Path: "/fields/" + fieldAreaPath, Value: area},
		{Op: "add", Path: "/fields/" + fieldIterationPath, Value: item.IterationPath},
	}
	if item.AssignedTo != "" {
		patch = append(patch, patchOperation{Op: "add", Path: "/fields/" + fieldAssignedTo, Value: item.AssignedTo})
	}
	if item.Effort != nil {
		patch = append(patch,
			patchOperation{Op: "add", Path: "/fields/" + fieldOriginalEstimate, Value: *item.Effort},
			patchOperation{Op: "add", Path: "/fields/" + fieldRemainingWork, Value: *item.Effort},
		)
	}
	if item.ParentID != nil {
		parents, err := c.fetchBatch(ctx, []int{*item.ParentID})
		if err != nil {
			return schema.WorkItem{}, fmt.Errorf("get parent %d: %w", *item.ParentID, err)
		}
		if len(parents) == 0 {
			return schema.WorkItem{}, fmt.Errorf("parent %d does not exist", *item.ParentID)
		}
		patch = append(patch, patchOperation{Op: "add", Path: "/relations/-", Value: relationValue{
			Rel:        relParent,
			URL:        parents[0].URL,
			Attributes: map[string]string{"name": "Parent"},
		}})
	}

	var created workItemDTO
	u := c.projectURL(scope, "/_apis/wit/workitems/$"+url.PathEscape(item.Type), nil)
	if err := c.doJSON(ctx, http.MethodPost, u, "application/json-patch+json", patch, &created); err != nil {
		return schema.WorkItem{}, fmt.Errorf("create %s %q: %w", item.Type, item.Title, err)
	}
	w := created.toWorkItem()
	c.log.Info().Int("id", w.ID).Str("type", w.Type).Str("sprint", w.IterationPath).Msg("work item created")
	return w, nil
}
