// Package issue implements issue operations against the GitHub REST API:
// single-resource reads and writes plus the per-item functions used by the
// batch executor.
package issue

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yahsan2/gh-mcp/pkg/config"
	"github.com/yahsan2/gh-mcp/pkg/github"
)

// Service performs issue operations through an injected client.
type Service struct {
	client *github.Client
}

// NewService creates an issue service.
func NewService(client *github.Client) *Service {
	return &Service{client: client}
}

// apiIssue is the subset of the REST issue payload this server reads.
type apiIssue struct {
	Number      int    `json:"number"`
	NodeID      string `json:"node_id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	State       string `json:"state"`
	StateReason string `json:"state_reason"`
	HTMLURL     string `json:"html_url"`
	Labels      []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Milestone *struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
	} `json:"milestone"`
	Assignee *struct {
		Login string `json:"login"`
	} `json:"assignee"`
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *apiIssue) labelNames() []string {
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		names = append(names, l.Name)
	}
	return names
}

func (i *apiIssue) milestoneTitle() interface{} {
	if i.Milestone == nil {
		return nil
	}
	return i.Milestone.Title
}

// Get retrieves full issue details including the body.
func (s *Service) Get(repo config.Repository, number int) (map[string]interface{}, error) {
	var issue apiIssue
	if err := s.client.Get(issuePath(repo, number), &issue); err != nil {
		return nil, github.Normalize(err)
	}

	return map[string]interface{}{
		"number":     issue.Number,
		"title":      issue.Title,
		"body":       issue.Body,
		"state":      issue.State,
		"labels":     issue.labelNames(),
		"milestone":  issue.milestoneTitle(),
		"created_at": issue.CreatedAt.Format(time.RFC3339),
		"updated_at": issue.UpdatedAt.Format(time.RFC3339),
		"url":        issue.HTMLURL,
	}, nil
}

// ListOptions filter the issue listing.
type ListOptions struct {
	State     string
	Labels    []string
	Milestone string // milestone title, resolved to its number
	Assignee  string // username, or "none" for unassigned
	Sort      string
	Direction string
	Limit     int
}

// List returns issues matching the filters. Pull requests are excluded even
// though the REST listing endpoint includes them. A milestone title that
// matches nothing yields an empty result rather than an error.
func (s *Service) List(repo config.Repository, opts ListOptions) (map[string]interface{}, error) {
	query := url.Values{}
	query.Set("state", opts.State)
	query.Set("sort", opts.Sort)
	query.Set("direction", opts.Direction)
	// Fetch a full page rather than Limit rows: the endpoint mixes pull
	// requests into the listing, and filtering them out of a short page
	// would underfill the result.
	query.Set("per_page", "100")
	if len(opts.Labels) > 0 {
		query.Set("labels", strings.Join(opts.Labels, ","))
	}
	if opts.Assignee != "" {
		query.Set("assignee", opts.Assignee)
	}

	if opts.Milestone != "" {
		number, found, err := s.findMilestoneByTitle(repo, opts.Milestone)
		if err != nil {
			return nil, github.Normalize(err)
		}
		if !found {
			return map[string]interface{}{
				"total":  0,
				"count":  0,
				"issues": []interface{}{},
			}, nil
		}
		query.Set("milestone", fmt.Sprintf("%d", number))
	}

	var issues []apiIssue
	path := fmt.Sprintf("repos/%s/issues?%s", repo.FullName(), query.Encode())
	if err := s.client.Get(path, &issues); err != nil {
		return nil, github.Normalize(err)
	}

	formatted := make([]interface{}, 0, len(issues))
	for _, issue := range issues {
		if len(formatted) >= opts.Limit {
			break
		}
		// The issues endpoint also returns pull requests; skip them.
		if issue.PullRequest != nil {
			continue
		}
		var assignee interface{}
		if issue.Assignee != nil {
			assignee = issue.Assignee.Login
		}
		formatted = append(formatted, map[string]interface{}{
			"number":     issue.Number,
			"title":      issue.Title,
			"state":      issue.State,
			"labels":     issue.labelNames(),
			"milestone":  issue.milestoneTitle(),
			"assignee":   assignee,
			"created_at": issue.CreatedAt.Format(time.RFC3339),
			"updated_at": issue.UpdatedAt.Format(time.RFC3339),
			"url":        issue.HTMLURL,
		})
	}

	return map[string]interface{}{
		"total":  len(formatted),
		"count":  len(formatted),
		"issues": formatted,
	}, nil
}

// Close closes an issue, optionally adding a comment first. Closing an
// already-closed issue succeeds and reports state "closed" again.
func (s *Service) Close(repo config.Repository, number int, comment, stateReason string) (map[string]interface{}, error) {
	var issue apiIssue
	if err := s.client.Get(issuePath(repo, number), &issue); err != nil {
		return nil, github.Normalize(err)
	}

	commentAdded := false
	if comment != "" {
		path := fmt.Sprintf("repos/%s/issues/%d/comments", repo.FullName(), number)
		if err := s.client.Post(path, map[string]interface{}{"body": comment}, nil); err != nil {
			return nil, github.Normalize(err)
		}
		commentAdded = true
	}

	payload := map[string]interface{}{"state": "closed"}
	if stateReason != "" {
		payload["state_reason"] = stateReason
	}

	var closed apiIssue
	if err := s.client.Patch(issuePath(repo, number), payload, &closed); err != nil {
		return nil, github.Normalize(err)
	}

	reason := closed.StateReason
	if reason == "" {
		reason = stateReason
	}
	var reasonValue interface{}
	if reason != "" {
		reasonValue = reason
	}

	return map[string]interface{}{
		"number":        closed.Number,
		"state":         closed.State,
		"state_reason":  reasonValue,
		"comment_added": commentAdded,
		"url":           closed.HTMLURL,
	}, nil
}

// findMilestoneByTitle resolves a milestone title to its number, searching
// milestones in every state.
func (s *Service) findMilestoneByTitle(repo config.Repository, title string) (int, bool, error) {
	var milestones []struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
	}
	path := fmt.Sprintf("repos/%s/milestones?state=all&per_page=100", repo.FullName())
	if err := s.client.Get(path, &milestones); err != nil {
		return 0, false, err
	}
	for _, m := range milestones {
		if m.Title == title {
			return m.Number, true, nil
		}
	}
	return 0, false, nil
}

// verifyMilestone checks that a milestone number exists before it is
// referenced in a create or update payload.
func (s *Service) verifyMilestone(repo config.Repository, number int) error {
	var milestone struct {
		Number int `json:"number"`
	}
	path := fmt.Sprintf("repos/%s/milestones/%d", repo.FullName(), number)
	return s.client.Get(path, &milestone)
}

func issuePath(repo config.Repository, number int) string {
	return fmt.Sprintf("repos/%s/issues/%d", repo.FullName(), number)
}
