// Package milestone implements milestone creation and listing.
package milestone

import (
	"fmt"
	"net/url"
	"time"

	"github.com/yahsan2/gh-mcp/pkg/config"
	"github.com/yahsan2/gh-mcp/pkg/github"
)

// Service performs milestone operations through an injected client.
type Service struct {
	client *github.Client
}

// NewService creates a milestone service.
func NewService(client *github.Client) *Service {
	return &Service{client: client}
}

type apiMilestone struct {
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	State        string     `json:"state"`
	OpenIssues   int        `json:"open_issues"`
	ClosedIssues int        `json:"closed_issues"`
	DueOn        *time.Time `json:"due_on"`
	HTMLURL      string     `json:"html_url"`
}

// Create creates a milestone. The due date, when provided, must be an
// ISO 8601 timestamp.
func (s *Service) Create(repo config.Repository, title, description, dueDate, state string) (map[string]interface{}, error) {
	payload := map[string]interface{}{
		"title":       title,
		"state":       state,
		"description": description,
	}

	if dueDate != "" {
		dueOn, err := time.Parse(time.RFC3339, dueDate)
		if err != nil {
			return nil, fmt.Errorf(
				"invalid ISO 8601 date format: %s (expected format: YYYY-MM-DDTHH:MM:SSZ, e.g. 2025-12-31T23:59:59Z)",
				dueDate)
		}
		payload["due_on"] = dueOn.Format(time.RFC3339)
	}

	var ms apiMilestone
	path := fmt.Sprintf("repos/%s/milestones", repo.FullName())
	if err := s.client.Post(path, payload, &ms); err != nil {
		return nil, github.Normalize(err)
	}

	return map[string]interface{}{
		"number":      ms.Number,
		"title":       ms.Title,
		"description": ms.Description,
		"state":       ms.State,
		"due_on":      isoOrNil(ms.DueOn),
		"url":         ms.HTMLURL,
	}, nil
}

// List returns milestones filtered by state, sorted by due date or
// completeness.
func (s *Service) List(repo config.Repository, state, sort, direction string) (map[string]interface{}, error) {
	query := url.Values{}
	query.Set("state", state)
	query.Set("sort", sort)
	query.Set("direction", direction)
	query.Set("per_page", "100")

	var milestones []apiMilestone
	path := fmt.Sprintf("repos/%s/milestones?%s", repo.FullName(), query.Encode())
	if err := s.client.Get(path, &milestones); err != nil {
		return nil, github.Normalize(err)
	}

	formatted := make([]interface{}, 0, len(milestones))
	for _, ms := range milestones {
		formatted = append(formatted, map[string]interface{}{
			"number":        ms.Number,
			"title":         ms.Title,
			"state":         ms.State,
			"open_issues":   ms.OpenIssues,
			"closed_issues": ms.ClosedIssues,
			"due_on":        isoOrNil(ms.DueOn),
			"url":           ms.HTMLURL,
		})
	}

	return map[string]interface{}{
		"total":      len(formatted),
		"milestones": formatted,
	}, nil
}

func isoOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
