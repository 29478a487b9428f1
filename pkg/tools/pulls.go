package tools

import (
	"context"

	gomcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/yahsan2/gh-mcp/pkg/pull"
)

func (s *Server) handleGetPullRequest(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	number := argInt(req, "pr_number", 0)
	if number <= 0 {
		return gomcp.NewToolResultError("pr_number is required"), nil
	}

	Log("get_pull_request: %s#%d", repo.FullName(), number)
	data, err := s.pulls.Get(repo, number)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(data), nil
}

func (s *Server) handleUpdatePR(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	number := argInt(req, "pr_number", 0)
	if number <= 0 {
		return gomcp.NewToolResultError("pr_number is required"), nil
	}

	fields := map[string]interface{}{}
	for _, name := range []string{"title", "body", "base", "state"} {
		if argPresent(req, name) {
			fields[name] = req.GetString(name, "")
		}
	}
	if len(fields) == 0 {
		return gomcp.NewToolResultError("no fields to update: provide at least one of title, body, base, state"), nil
	}

	Log("update_pr: %s#%d fields=%d", repo.FullName(), number, len(fields))
	data, err := s.pulls.Update(repo, number, fields)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(data), nil
}

func (s *Server) handleMergePR(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	number := argInt(req, "pr_number", 0)
	if number <= 0 {
		return gomcp.NewToolResultError("pr_number is required"), nil
	}

	opts := pull.MergeOptions{
		Method:        req.GetString("merge_method", "squash"),
		CommitTitle:   req.GetString("commit_title", ""),
		CommitMessage: req.GetString("commit_message", ""),
		DeleteBranch:  req.GetBool("delete_branch", true),
	}

	Log("merge_pr: %s#%d method=%s delete_branch=%t", repo.FullName(), number, opts.Method, opts.DeleteBranch)
	data, err := s.pulls.Merge(repo, number, opts)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(data), nil
}

func (s *Server) handleCreatePRWithContent(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}

	input := pull.ContentInput{
		Title:      req.GetString("title", ""),
		Problem:    req.GetString("problem", ""),
		Solution:   req.GetString("solution", ""),
		KeyChanges: req.GetString("key_changes", ""),
		Issue:      argInt(req, "issue", 0),
		Base:       req.GetString("base", "main"),
	}
	if err := input.Validate(); err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}

	Log("create_pr_with_content: %s title=%q base=%s", repo.FullName(), input.Title, input.Base)
	data, err := s.pulls.CreateWithContent(repo, input)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(data), nil
}
