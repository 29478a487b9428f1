package issue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yahsan2/gh-mcp/pkg/batch"
	"github.com/yahsan2/gh-mcp/pkg/config"
)

// updateOrder fixes the sequence in which provided field groups are applied.
// Each group is a separate edit call; a failure stops further groups for
// that item, and already-applied groups are not rolled back.
var updateOrder = []string{"title", "body", "state", "labels", "milestone", "assignees"}

// CreateOne creates a single issue as part of a batch. It never returns an
// error; failures are captured in the Result.
func (s *Service) CreateOne(index int, fields map[string]interface{}, repo config.Repository) batch.Result {
	title, _ := fields["title"].(string)
	if title == "" {
		return batch.Fail(index, errors.New("title is required"))
	}

	body, _ := fields["body"].(string)
	payload := map[string]interface{}{
		"title": title,
		"body":  body,
	}

	if labels := toStringSlice(fields["labels"]); len(labels) > 0 {
		payload["labels"] = labels
	}
	if assignees := toStringSlice(fields["assignees"]); len(assignees) > 0 {
		payload["assignees"] = assignees
	}
	if raw, ok := fields["milestone"]; ok && raw != nil {
		number, ok := toInt(raw)
		if !ok {
			return batch.Fail(index, fmt.Errorf("invalid milestone reference: %v", raw))
		}
		// Zero means no milestone.
		if number != 0 {
			if err := s.verifyMilestone(repo, number); err != nil {
				return batch.Fail(index, err)
			}
			payload["milestone"] = number
		}
	}

	var created apiIssue
	path := fmt.Sprintf("repos/%s/issues", repo.FullName())
	if err := s.client.Post(path, payload, &created); err != nil {
		return batch.Fail(index, err)
	}

	return batch.Succeed(index, map[string]interface{}{
		"issue_number": created.Number,
		"url":          created.HTMLURL,
		"state":        created.State,
		"title":        created.Title,
		"labels":       created.labelNames(),
		"milestone":    created.milestoneTitle(),
	})
}

// UpdateOne applies the provided field groups to a single issue, one edit
// call per group. Labels and assignees replace the existing sets. A
// milestone of null clears the milestone; a number is verified to exist
// before it is applied.
func (s *Service) UpdateOne(index, number int, fields map[string]interface{}, repo config.Repository) batch.Result {
	var issue apiIssue
	if err := s.client.Get(issuePath(repo, number), &issue); err != nil {
		return batch.Fail(index, err)
	}

	var applied []string
	for _, field := range updateOrder {
		raw, ok := fields[field]
		if !ok {
			continue
		}

		payload := map[string]interface{}{}
		switch field {
		case "title", "body", "state":
			payload[field] = raw
		case "labels", "assignees":
			payload[field] = toStringSlice(raw)
		case "milestone":
			if raw == nil {
				payload["milestone"] = nil
				break
			}
			ms, ok := toInt(raw)
			if !ok {
				return batch.Fail(index, fmt.Errorf("invalid milestone reference: %v", raw))
			}
			if err := s.verifyMilestone(repo, ms); err != nil {
				return batch.Fail(index, err)
			}
			payload["milestone"] = ms
		}

		if err := s.client.Patch(issuePath(repo, number), payload, nil); err != nil {
			return batch.Fail(index, err)
		}
		applied = append(applied, field)
	}

	return batch.Succeed(index, map[string]interface{}{
		"issue_number":   number,
		"url":            issue.HTMLURL,
		"updated_fields": applied,
	})
}

// AddLabelsOne appends labels to a single issue, preserving existing ones.
// Deduplication is left to GitHub.
func (s *Service) AddLabelsOne(index, number int, labels []string, repo config.Repository) batch.Result {
	var issue apiIssue
	if err := s.client.Get(issuePath(repo, number), &issue); err != nil {
		return batch.Fail(index, err)
	}

	var allLabels []struct {
		Name string `json:"name"`
	}
	path := fmt.Sprintf("repos/%s/issues/%d/labels", repo.FullName(), number)
	if err := s.client.Post(path, map[string]interface{}{"labels": labels}, &allLabels); err != nil {
		return batch.Fail(index, err)
	}

	names := make([]string, 0, len(allLabels))
	for _, l := range allLabels {
		names = append(names, l.Name)
	}

	return batch.Succeed(index, map[string]interface{}{
		"issue_number": issue.Number,
		"added_labels": labels,
		"all_labels":   names,
	})
}

// toStringSlice converts a decoded JSON value into a string slice, accepting
// either []string or []interface{} of strings.
func toStringSlice(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// toInt converts a decoded JSON value into an int. JSON numbers arrive as
// float64 from the MCP argument map.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
