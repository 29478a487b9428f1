// Package project links issues to GitHub Projects (v2) boards. Projects v2
// has no REST surface, so linking goes through the GraphQL API.
package project

import (
	"fmt"
	"strings"

	"github.com/yahsan2/gh-mcp/pkg/batch"
	"github.com/yahsan2/gh-mcp/pkg/config"
	"github.com/yahsan2/gh-mcp/pkg/github"
)

// IDPrefix is the node ID prefix of a Project v2. Anything else is not a
// linkable project.
const IDPrefix = "PVT_"

// ValidateID checks that a project ID looks like a Project v2 node ID.
func ValidateID(projectID string) error {
	if projectID == "" || !strings.HasPrefix(projectID, IDPrefix) {
		return fmt.Errorf("project_id must be a valid GitHub Project node ID (starts with %q)", IDPrefix)
	}
	return nil
}

// Service links issues to projects through an injected client.
type Service struct {
	client *github.Client
}

// NewService creates a project service.
func NewService(client *github.Client) *Service {
	return &Service{client: client}
}

// LinkOne adds a single issue to a project as part of a batch. The issue is
// fetched first to resolve its node ID for the mutation.
func (s *Service) LinkOne(index, issueNumber int, projectID string, repo config.Repository) batch.Result {
	var issue struct {
		Number int    `json:"number"`
		NodeID string `json:"node_id"`
	}
	path := fmt.Sprintf("repos/%s/issues/%d", repo.FullName(), issueNumber)
	if err := s.client.Get(path, &issue); err != nil {
		return batch.Fail(index, err)
	}

	mutation := `
		mutation($projectId: ID!, $contentId: ID!) {
			addProjectV2ItemById(input: {projectId: $projectId, contentId: $contentId}) {
				item {
					id
				}
			}
		}`

	variables := map[string]interface{}{
		"projectId": projectID,
		"contentId": issue.NodeID,
	}

	var result struct {
		AddProjectV2ItemById struct {
			Item struct {
				ID string `json:"id"`
			} `json:"item"`
		} `json:"addProjectV2ItemById"`
	}

	if err := s.client.GraphQL(mutation, variables, &result); err != nil {
		return batch.Fail(index, err)
	}

	return batch.Succeed(index, map[string]interface{}{
		"issue_number": issue.Number,
		"project_id":   projectID,
		"item_id":      result.AddProjectV2ItemById.Item.ID,
	})
}
