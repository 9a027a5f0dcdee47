package azdo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/huangsam/popilot/schema"
)

type fieldUpdate struct {
	OldValue json.RawMessage `json:"oldValue"`
	NewValue json.RawMessage `json:"newValue"`
}

type updateDTO struct {
	Rev       int `json:"rev"`
	RevisedBy struct {
		DisplayName string `json:"displayName"`
	} `json:"revisedBy"`
	Fields map[string]fieldUpdate `json:"fields"`
}

type updateList struct {
	Value []updateDTO `json:"value"`
}

func rawNumber(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// valueChange returns the old and new value of a numeric field, or nil when the update did not touch it.
func (u updateDTO) valueChange(name string) *schema.ValueChange {
	f, ok := u.Fields[name]
	if !ok {
		return nil
	}
	return &schema.ValueChange{Old: rawNumber(f.OldValue), New: rawNumber(f.NewValue)}
}

func (u updateDTO) changedAt() *time.Time {
	f, ok := u.Fields[fieldChangedDate]
	if !ok || len(f.NewValue) == 0 {
		return nil
	}
	var t *time.Time
	if err := json.Unmarshal(f.NewValue, &t); err != nil {
		return nil
	}
	return t
}

// GetWorkItemHistory returns the updates of a work item ordered by revision.
func (c *Client) GetWorkItemHistory(ctx context.Context, id int) ([]schema.FieldChange, error) {
	var changes []schema.FieldChange
	path := "/_apis/wit/workItems/" + strconv.Itoa(id) + "/updates"
	for skip := 0; ; skip += pageSize {
		q := url.Values{}
		q.Set("$top", strconv.Itoa(pageSize))
		q.Set("$skip", strconv.Itoa(skip))

		var list updateList
		if err := c.doJSON(ctx, http.MethodGet, c.orgURL(path, q), "", nil, &list); err != nil {
			return nil, fmt.Errorf("get history of work item %d: %w", id, err)
		}
		for _, u := range list.Value {
			changes = append(changes, schema.FieldChange{
				WorkItemID:    id,
				Rev:           u.Rev,
				ChangedBy:     u.RevisedBy.DisplayName,
				ChangedAt:     u.changedAt(),
				CompletedWork: u.valueChange(fieldCompletedWork),
				RemainingWork: u.valueChange(fieldRemainingWork),
			})
		}
		if len(list.Value) < pageSize {
			break
		}
	}
	return changes, nil
}
