package azdo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/popilot/schema"
)

// Field reference names read from work items.
const (
	fieldType             = "System.WorkItemType"
	fieldTitle            = "System.Title"
	fieldAssignedTo       = "System.AssignedTo"
	fieldState            = "System.State"
	fieldReason           = "System.Reason"
	fieldTeamProject      = "System.TeamProject"
	fieldAreaPath         = "System.AreaPath"
	fieldIterationPath    = "System.IterationPath"
	fieldCreatedDate      = "System.CreatedDate"
	fieldChangedDate      = "System.ChangedDate"
	fieldTags             = "System.Tags"
	fieldStoryPoints      = "Microsoft.VSTS.Scheduling.StoryPoints"
	fieldOriginalEstimate = "Microsoft.VSTS.Scheduling.OriginalEstimate"
	fieldRemainingWork    = "Microsoft.VSTS.Scheduling.RemainingWork"
	fieldCompletedWork    = "Microsoft.VSTS.Scheduling.CompletedWork"
	fieldTargetDate       = "Microsoft.VSTS.Scheduling.TargetDate"
	fieldResolvedDate     = "Microsoft.VSTS.Common.ResolvedDate"
	fieldClosedDate       = "Microsoft.VSTS.Common.ClosedDate"
	fieldStackRank        = "Microsoft.VSTS.Common.StackRank"
)

// Link types of the work item hierarchy.
const (
	relParent = "System.LinkTypes.Hierarchy-Reverse"
	relChild  = "System.LinkTypes.Hierarchy-Forward"
)

type fields map[string]json.RawMessage

func (f fields) str(name string) string {
	raw, ok := f[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// identity reads an IdentityRef field and returns its display name.
func (f fields) identity(name string) string {
	raw, ok := f[name]
	if !ok {
		return ""
	}
	var ref struct {
		DisplayName string `json:"displayName"`
	}
	if err := json.Unmarshal(raw, &ref); err == nil && ref.DisplayName != "" {
		return ref.DisplayName
	}
	return f.str(name)
}

func (f fields) number(name string) *float64 {
	raw, ok := f[name]
	if !ok {
		return nil
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func (f fields) integer(name string) *int {
	v := f.number(name)
	if v == nil {
		if s := f.str(name); s != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				return &n
			}
		}
		return nil
	}
	n := int(*v)
	return &n
}

func (f fields) date(name string) *time.Time {
	raw, ok := f[name]
	if !ok {
		return nil
	}
	var t *time.Time
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil
	}
	return t
}

type relationDTO struct {
	Rel        string         `json:"rel"`
	URL        string         `json:"url"`
	Attributes map[string]any `json:"attributes"`
}

// linkedID returns the id at the end of a relation url when the relation has the given type and name.
func (r relationDTO) linkedID(rel, name string) (int, bool) {
	if r.Rel != rel {
		return 0, false
	}
	if n, _ := r.Attributes["name"].(string); n != name {
		return 0, false
	}
	id, err := strconv.Atoi(r.URL[strings.LastIndex(r.URL, "/")+1:])
	if err != nil {
		return 0, false
	}
	return id, true
}

type workItemDTO struct {
	ID        int           `json:"id"`
	Fields    fields        `json:"fields"`
	Relations []relationDTO `json:"relations"`
	URL       string        `json:"url"`
}

type workItemList struct {
	Value []workItemDTO `json:"value"`
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ";") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (d workItemDTO) toWorkItem() schema.WorkItem {
	f := d.Fields
	w := schema.WorkItem{
		ID:               d.ID,
		Type:             f.str(fieldType),
		Title:            f.str(fieldTitle),
		AssignedTo:       f.identity(fieldAssignedTo),
		State:            f.str(fieldState),
		Reason:           f.str(fieldReason),
		TeamProject:      f.str(fieldTeamProject),
		AreaPath:         f.str(fieldAreaPath),
		IterationPath:    f.str(fieldIterationPath),
		StoryPoints:      f.integer(fieldStoryPoints),
		OriginalEstimate: f.number(fieldOriginalEstimate),
		RemainingWork:    f.number(fieldRemainingWork),
		CompletedWork:    f.number(fieldCompletedWork),
		StackRank:        f.number(fieldStackRank),
		ResolvedDate:     f.date(fieldResolvedDate),
		ClosedDate:       f.date(fieldClosedDate),
		TargetDate:       f.date(fieldTargetDate),
		Tags:             splitTags(f.str(fieldTags)),
		URL:              d.URL,
	}
	if t := f.date(fieldCreatedDate); t != nil {
		w.CreatedDate = *t
	}
	if t := f.date(fieldChangedDate); t != nil {
		w.ChangedDate = *t
	}
	for _, r := range d.Relations {
		if id, ok := r.linkedID(relParent, "Parent"); ok && w.ParentID == nil {
			w.ParentID = schema.Int(id)
		}
		if id, ok := r.linkedID(relChild, "Child"); ok {
			w.ChildrenIDs = append(w.ChildrenIDs, id)
		}
	}
	return w
}

func toParentRef(w schema.WorkItem) schema.ParentRef {
	return schema.ParentRef{
		ID:         w.ID,
		Type:       w.Type,
		Title:      w.Title,
		State:      w.State,
		Tags:       w.Tags,
		TargetDate: w.TargetDate,
	}
}

// fetchBatch loads items in pages of 200 ids and maps them.
func (c *Client) fetchBatch(ctx context.Context, ids []int) ([]schema.WorkItem, error) {
	var items []schema.WorkItem
	for start := 0; start < len(ids); start += pageSize {
		end := min(start+pageSize, len(ids))
		parts := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			parts = append(parts, strconv.Itoa(id))
		}
		q := url.Values{}
		q.Set("ids", strings.Join(parts, ","))
		q.Set("$expand", "relations")
		q.Set("errorPolicy", "omit")

		var list workItemList
		if err := c.doJSON(ctx, http.MethodGet, c.orgURL("/_apis/wit/workitems", q), "", nil, &list); err != nil {
			return nil, fmt.Errorf("get work items: %w", err)
		}
		for _, d := range list.Value {
			// omitted ids come back as null entries
			if d.ID == 0 {
				continue
			}
			items = append(items, d.toWorkItem())
		}
	}
	return items, nil
}

// resolver memoizes fetched items so every ancestor is loaded once.
type resolver struct {
	c    *Client
	seen map[int]schema.WorkItem
}

func newResolver(c *Client) *resolver {
	return &resolver{c: c, seen: make(map[int]schema.WorkItem)}
}

// load fetches the ids that were not seen yet.
func (r *resolver) load(ctx context.Context, ids []int) error {
	var missing []int
	queued := make(map[int]struct{})
	for _, id := range ids {
		if _, ok := r.seen[id]; ok {
			continue
		}
		if _, ok := queued[id]; ok {
			continue
		}
		queued[id] = struct{}{}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return nil
	}
	items, err := r.c.fetchBatch(ctx, missing)
	if err != nil {
		return err
	}
	for _, w := range items {
		r.seen[w.ID] = w
	}
	return nil
}

// items loads ids and their ancestors up to depth levels, one batch per level.
func (r *resolver) items(ctx context.Context, ids []int, depth int) ([]schema.WorkItem, error) {
	if err := r.load(ctx, ids); err != nil {
		return nil, err
	}
	level := ids
	for d := 0; d < depth && len(level) > 0; d++ {
		var parents []int
		for _, id := range level {
			if w, ok := r.seen[id]; ok && w.ParentID != nil {
				parents = append(parents, *w.ParentID)
			}
		}
		if err := r.load(ctx, parents); err != nil {
			return nil, fmt.Errorf("resolve parents: %w", err)
		}
		level = parents
	}

	out := make([]schema.WorkItem, 0, len(ids))
	emitted := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		w, ok := r.seen[id]
		if !ok {
			continue
		}
		if _, dup := emitted[id]; dup {
			continue
		}
		emitted[id] = struct{}{}
		w.Parents = r.chain(w, depth)
		out = append(out, w)
	}
	return out, nil
}

// chain walks up from w, nearest parent first.
func (r *resolver) chain(w schema.WorkItem, depth int) []schema.ParentRef {
	var parents []schema.ParentRef
	cur := w
	for range depth {
		if cur.ParentID == nil {
			break
		}
		p, ok := r.seen[*cur.ParentID]
		if !ok {
			break
		}
		parents = append(parents, toParentRef(p))
		cur = p
	}
	return parents
}

// GetWorkItems returns the given items with their parent chain resolved.
// Items the server does not return are left out.
func (c *Client) GetWorkItems(ctx context.Context, ids []int) ([]schema.WorkItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return newResolver(c).items(ctx, ids, c.parentDepth)
}

type wiqlRequest struct {
	Query string `json:"query"`
}

type wiqlResult struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
	WorkItemRelations []struct {
		Source *struct {
			ID int `json:"id"`
		} `json:"source"`
		Target *struct {
			ID int `json:"id"`
		} `json:"target"`
	} `json:"workItemRelations"`
}

// ids returns the ids of a flat or tree query result in order.
func (r wiqlResult) ids() []int {
	var ids []int
	seen := make(map[int]struct{})
	add := func(id int) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, w := range r.WorkItems {
		add(w.ID)
	}
	for _, rel := range r.WorkItemRelations {
		if rel.Target != nil {
			add(rel.Target.ID)
		}
	}
	return ids
}

func (c *Client) queryWIQL(ctx context.Context, scope schema.ScopeContext, wiql string) ([]int, error) {
	var res wiqlResult
	u := c.teamURL(scope, "/_apis/wit/wiql", nil)
	if err := c.doJSON(ctx, http.MethodPost, u, "application/json", wiqlRequest{Query: wiql}, &res); err != nil {
		return nil, fmt.Errorf("run wiql: %w", err)
	}
	return res.ids(), nil
}

// iterationPathQuery selects all items planned for an iteration path.
func iterationPathQuery(path string) string {
	return fmt.Sprintf("select System.Id,System.Title,System.State from workitems where [System.IterationPath] = '%s'",
		strings.ReplaceAll(path, "'", "''"))
}

// GetWorkItemsOfIterationPath returns the items of an iteration path with their parent chain resolved.
func (c *Client) GetWorkItemsOfIterationPath(ctx context.Context, scope schema.ScopeContext, path string) ([]schema.WorkItem, error) {
	ids, err := c.queryWIQL(ctx, scope, iterationPathQuery(path))
	if err != nil {
		return nil, fmt.Errorf("items of %s: %w", path, err)
	}
	items, err := c.GetWorkItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("items of %s: %w", path, err)
	}
	c.log.Debug().Str("path", path).Int("count", len(items)).Msg("sprint fetched")
	return items, nil
}
