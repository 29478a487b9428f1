package tools

import (
	"context"

	gomcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/yahsan2/gh-mcp/pkg/issue"
)

func (s *Server) handleGetIssue(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	number := argInt(req, "issue_number", 0)
	if number <= 0 {
		return gomcp.NewToolResultError("issue_number is required"), nil
	}

	Log("get_issue: %s#%d", repo.FullName(), number)
	data, err := s.issues.Get(repo, number)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(data), nil
}

func (s *Server) handleListIssues(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}

	limit := argInt(req, "limit", 30)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 1
	}
	opts := issue.ListOptions{
		State:     req.GetString("state", "open"),
		Labels:    argStringSlice(req, "labels"),
		Milestone: req.GetString("milestone", ""),
		Assignee:  req.GetString("assignee", ""),
		Sort:      req.GetString("sort", "created"),
		Direction: req.GetString("direction", "desc"),
		Limit:     limit,
	}

	Log("list_issues: %s state=%s limit=%d", repo.FullName(), opts.State, opts.Limit)
	data, err := s.issues.List(repo, opts)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(data), nil
}

func (s *Server) handleCloseIssue(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	number := argInt(req, "issue_number", 0)
	if number <= 0 {
		return gomcp.NewToolResultError("issue_number is required"), nil
	}
	stateReason := req.GetString("state_reason", "")
	if stateReason != "" && stateReason != "completed" && stateReason != "not_planned" {
		return gomcp.NewToolResultError("state_reason must be 'completed' or 'not_planned'"), nil
	}

	Log("close_issue: %s#%d reason=%q", repo.FullName(), number, stateReason)
	data, err := s.issues.Close(repo, number, req.GetString("comment", ""), stateReason)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(data), nil
}

// issueNumberOf pulls the required issue_number field out of a batch item.
func issueNumberOf(item map[string]interface{}) (int, bool) {
	raw, ok := item["issue_number"]
	if !ok {
		return 0, false
	}
	switch n := raw.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
