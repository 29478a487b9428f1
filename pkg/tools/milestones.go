package tools

import (
	"context"

	gomcp "github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) handleCreateMilestone(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	title := req.GetString("title", "")
	if title == "" {
		return gomcp.NewToolResultError("title is required"), nil
	}
	state := req.GetString("state", "open")
	if state != "open" && state != "closed" {
		return gomcp.NewToolResultError("state must be 'open' or 'closed'"), nil
	}

	Log("create_milestone: %s title=%q", repo.FullName(), title)
	data, err := s.milestones.Create(repo, title,
		req.GetString("description", ""),
		req.GetString("due_date", ""),
		state)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(data), nil
}

func (s *Server) handleListMilestones(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}

	state := req.GetString("state", "open")
	sort := req.GetString("sort", "due_on")
	direction := req.GetString("direction", "asc")

	Log("list_milestones: %s state=%s", repo.FullName(), state)
	data, err := s.milestones.List(repo, state, sort, direction)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(data), nil
}
