package tools

import (
	"context"
	"fmt"

	gomcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/yahsan2/gh-mcp/pkg/batch"
	"github.com/yahsan2/gh-mcp/pkg/project"
)

// Batch handlers validate the whole request up front and reject it before
// any GitHub call is made. Once execution starts, individual item failures
// land in the per-item results instead of failing the call.

func (s *Server) handleCreateIssues(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	issues, err := argItems(req, "issues")
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	if len(issues) == 0 {
		return gomcp.NewToolResultError("issues list cannot be empty"), nil
	}
	if len(issues) > batch.MaxItems {
		return gomcp.NewToolResultError("Maximum 50 issues per batch"), nil
	}
	workers := argInt(req, "max_workers", batch.DefaultWorkers)

	Log("create_issues: %s count=%d workers=%d", repo.FullName(), len(issues), workers)
	summary := batch.Execute(issues, workers, func(index int, fields map[string]interface{}) batch.Result {
		return s.issues.CreateOne(index, fields, repo)
	})
	return jsonResult(summary), nil
}

func (s *Server) handleBatchUpdateIssues(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	updates, err := argItems(req, "updates")
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	if len(updates) == 0 {
		return gomcp.NewToolResultError("updates list cannot be empty"), nil
	}
	if len(updates) > batch.MaxItems {
		return gomcp.NewToolResultError("Maximum 50 updates per batch (rate limiting protection)"), nil
	}

	type updateItem struct {
		number int
		fields map[string]interface{}
	}
	items := make([]updateItem, 0, len(updates))
	for i, update := range updates {
		number, ok := issueNumberOf(update)
		if !ok {
			return gomcp.NewToolResultError(
				fmt.Sprintf("Update at index %d missing required 'issue_number' field", i)), nil
		}
		fields := make(map[string]interface{}, len(update))
		for k, v := range update {
			if k != "issue_number" {
				fields[k] = v
			}
		}
		items = append(items, updateItem{number: number, fields: fields})
	}
	workers := argInt(req, "max_workers", batch.DefaultWorkers)

	Log("batch_update_issues: %s count=%d workers=%d", repo.FullName(), len(items), workers)
	summary := batch.Execute(items, workers, func(index int, item updateItem) batch.Result {
		return s.issues.UpdateOne(index, item.number, item.fields, repo)
	})
	return jsonResult(summary), nil
}

func (s *Server) handleBatchAddLabels(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	operations, err := argItems(req, "operations")
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	if len(operations) == 0 {
		return gomcp.NewToolResultError("operations list cannot be empty"), nil
	}
	if len(operations) > batch.MaxItems {
		return gomcp.NewToolResultError("Maximum 50 operations per batch (rate limiting protection)"), nil
	}

	type labelItem struct {
		number int
		labels []string
	}
	items := make([]labelItem, 0, len(operations))
	for i, op := range operations {
		number, ok := issueNumberOf(op)
		if !ok {
			return gomcp.NewToolResultError(
				fmt.Sprintf("Operation at index %d missing required 'issue_number' field", i)), nil
		}
		raw, ok := op["labels"]
		if !ok {
			return gomcp.NewToolResultError(
				fmt.Sprintf("Operation at index %d missing required 'labels' field", i)), nil
		}
		labels := labelStrings(raw)
		if len(labels) == 0 {
			return gomcp.NewToolResultError(
				fmt.Sprintf("Operation at index %d has empty 'labels' list", i)), nil
		}
		items = append(items, labelItem{number: number, labels: labels})
	}
	workers := argInt(req, "max_workers", batch.DefaultWorkers)

	Log("batch_add_labels: %s count=%d workers=%d", repo.FullName(), len(items), workers)
	summary := batch.Execute(items, workers, func(index int, item labelItem) batch.Result {
		return s.issues.AddLabelsOne(index, item.number, item.labels, repo)
	})
	return jsonResult(summary), nil
}

func (s *Server) handleBatchLinkToProject(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	numbers, err := argIntSlice(req, "issue_numbers")
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	if len(numbers) == 0 {
		return gomcp.NewToolResultError("issue_numbers list cannot be empty"), nil
	}
	if len(numbers) > batch.MaxItems {
		return gomcp.NewToolResultError("Maximum 50 issues per batch (rate limiting protection)"), nil
	}
	projectID := req.GetString("project_id", "")
	if err := project.ValidateID(projectID); err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	workers := argInt(req, "max_workers", batch.DefaultWorkers)

	Log("batch_link_to_project: %s count=%d project=%s workers=%d",
		repo.FullName(), len(numbers), projectID, workers)
	summary := batch.Execute(numbers, workers, func(index int, number int) batch.Result {
		return s.projects.LinkOne(index, number, projectID, repo)
	})
	return jsonResult(summary), nil
}

// labelStrings coerces a labels value from a decoded JSON item into a
// string slice, dropping non-string entries.
func labelStrings(raw interface{}) []string {
	switch list := raw.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, entry := range list {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
