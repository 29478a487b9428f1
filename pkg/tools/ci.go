package tools

import (
	"context"

	gomcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/yahsan2/gh-mcp/pkg/ci"
)

func (s *Server) handleCheckCIStatus(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}
	branch := req.GetString("branch", "")
	if branch == "" {
		return gomcp.NewToolResultError("branch is required"), nil
	}

	Log("check_ci_status: %s branch=%s", repo.FullName(), branch)
	data, err := s.ci.CheckStatus(repo, branch)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(data), nil
}

func (s *Server) handleGetCILogs(ctx context.Context, req gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	repo, err := s.repoFrom(req)
	if err != nil {
		return gomcp.NewToolResultError(err.Error()), nil
	}

	opts := ci.LogOptions{
		Branch:   req.GetString("branch", ""),
		RunID:    int64(argInt(req, "run_id", 0)),
		JobName:  req.GetString("job_name", ""),
		Status:   req.GetString("status", "failure"),
		MaxLines: argInt(req, "max_lines", 200),
	}

	Log("get_ci_logs: %s branch=%q run_id=%d status=%s", repo.FullName(), opts.Branch, opts.RunID, opts.Status)
	data, err := s.ci.GetLogs(repo, opts)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(data), nil
}
