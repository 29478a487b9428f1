package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/cli/go-gh/v2/pkg/api"
	gomcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yahsan2/gh-mcp/pkg/config"
	"github.com/yahsan2/gh-mcp/pkg/github"
	"github.com/yahsan2/gh-mcp/pkg/github/githubtest"
)

func newTestServer(rest *githubtest.FakeREST) *Server {
	client := github.NewClientWith(rest, &githubtest.FakeGraphQL{})
	cfg := config.DefaultConfig()
	cfg.Repository = config.Repository{Owner: "octo", Repo: "demo"}
	return NewServer(client, cfg, "test")
}

func callReq(args map[string]any) gomcp.CallToolRequest {
	req := gomcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text payload of a tool result.
func resultText(t *testing.T, result *gomcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := gomcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func resultJSON(t *testing.T, result *gomcp.CallToolResult) map[string]interface{} {
	t.Helper()
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	return decoded
}

func TestRepoFrom_DefaultsAndOverrides(t *testing.T) {
	s := newTestServer(githubtest.NewFakeREST())

	repo, err := s.repoFrom(callReq(map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, "octo/demo", repo.FullName())

	repo, err = s.repoFrom(callReq(map[string]any{"owner": "other", "repo": "place"}))
	require.NoError(t, err)
	assert.Equal(t, "other/place", repo.FullName())
}

func TestRepoFrom_MissingConfiguration(t *testing.T) {
	client := github.NewClientWith(githubtest.NewFakeREST(), &githubtest.FakeGraphQL{})
	s := NewServer(client, config.DefaultConfig(), "test")

	_, err := s.repoFrom(callReq(map[string]any{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner and repo are required")
}

func TestCreateIssues_Preflight(t *testing.T) {
	fiftyOne := make([]any, 51)
	for i := range fiftyOne {
		fiftyOne[i] = map[string]any{"title": fmt.Sprintf("issue %d", i)}
	}

	tests := []struct {
		name    string
		args    map[string]any
		wantMsg string
	}{
		{
			name:    "empty list",
			args:    map[string]any{"issues": []any{}},
			wantMsg: "issues list cannot be empty",
		},
		{
			name:    "missing list",
			args:    map[string]any{},
			wantMsg: "issues list cannot be empty",
		},
		{
			name:    "over limit",
			args:    map[string]any{"issues": fiftyOne},
			wantMsg: "Maximum 50 issues per batch",
		},
		{
			name:    "not a list of objects",
			args:    map[string]any{"issues": []any{"just a string"}},
			wantMsg: "'issues' entry at index 0 must be an object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest := githubtest.NewFakeREST()
			s := newTestServer(rest)

			result, err := s.handleCreateIssues(context.Background(), callReq(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.wantMsg)
			assert.Empty(t, rest.Calls(), "preflight rejection must not reach the API")
		})
	}
}

func TestCreateIssues_PartialFailure(t *testing.T) {
	rest := githubtest.NewFakeREST()
	rest.Handle("POST", "repos/octo/demo/issues", func(body map[string]interface{}) (interface{}, error) {
		return map[string]interface{}{
			"number":   1,
			"title":    body["title"],
			"state":    "open",
			"html_url": "https://github.com/octo/demo/issues/1",
		}, nil
	})
	rest.FailWith("GET", "repos/octo/demo/milestones/99",
		&api.HTTPError{StatusCode: 404, Message: "Not Found"})
	s := newTestServer(rest)

	result, err := s.handleCreateIssues(context.Background(), callReq(map[string]any{
		"issues": []any{
			map[string]any{"title": "first"},
			map[string]any{"title": "second", "milestone": float64(99)},
			map[string]any{"title": "third"},
		},
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	summary := resultJSON(t, result)
	assert.Equal(t, float64(3), summary["total"])
	assert.Equal(t, float64(2), summary["successful"])
	assert.Equal(t, float64(1), summary["failed"])
	assert.Equal(t, "66.7%", summary["success_rate"])

	results := summary["results"].([]interface{})
	require.Len(t, results, 3)
	second := results[1].(map[string]interface{})
	assert.Equal(t, false, second["success"])
	errInfo := second["error"].(map[string]interface{})
	assert.Equal(t, "RESOURCE_NOT_FOUND", errInfo["code"])
}

func TestBatchUpdateIssues_Preflight(t *testing.T) {
	tests := []struct {
		name    string
		updates []any
		wantMsg string
	}{
		{
			name:    "empty list",
			updates: []any{},
			wantMsg: "updates list cannot be empty",
		},
		{
			name: "missing issue_number",
			updates: []any{
				map[string]any{"issue_number": float64(1), "title": "ok"},
				map[string]any{"title": "no number"},
			},
			wantMsg: "Update at index 1 missing required 'issue_number' field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest := githubtest.NewFakeREST()
			s := newTestServer(rest)

			result, err := s.handleBatchUpdateIssues(context.Background(), callReq(map[string]any{
				"updates": tt.updates,
			}))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.wantMsg)
			assert.Empty(t, rest.Calls())
		})
	}
}

func TestBatchUpdateIssues_OverLimitMessage(t *testing.T) {
	updates := make([]any, 51)
	for i := range updates {
		updates[i] = map[string]any{"issue_number": float64(i + 1), "title": "x"}
	}
	s := newTestServer(githubtest.NewFakeREST())

	result, err := s.handleBatchUpdateIssues(context.Background(), callReq(map[string]any{
		"updates": updates,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "Maximum 50 updates per batch (rate limiting protection)", resultText(t, result))
}

func TestBatchAddLabels_Preflight(t *testing.T) {
	tests := []struct {
		name       string
		operations []any
		wantMsg    string
	}{
		{
			name:       "empty list",
			operations: []any{},
			wantMsg:    "operations list cannot be empty",
		},
		{
			name: "missing issue_number",
			operations: []any{
				map[string]any{"labels": []any{"bug"}},
			},
			wantMsg: "Operation at index 0 missing required 'issue_number' field",
		},
		{
			name: "missing labels",
			operations: []any{
				map[string]any{"issue_number": float64(1)},
			},
			wantMsg: "Operation at index 0 missing required 'labels' field",
		},
		{
			name: "empty labels",
			operations: []any{
				map[string]any{"issue_number": float64(1), "labels": []any{}},
			},
			wantMsg: "Operation at index 0 has empty 'labels' list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest := githubtest.NewFakeREST()
			s := newTestServer(rest)

			result, err := s.handleBatchAddLabels(context.Background(), callReq(map[string]any{
				"operations": tt.operations,
			}))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.wantMsg)
			assert.Empty(t, rest.Calls())
		})
	}
}

func TestBatchLinkToProject_Preflight(t *testing.T) {
	s := newTestServer(githubtest.NewFakeREST())

	result, err := s.handleBatchLinkToProject(context.Background(), callReq(map[string]any{
		"issue_numbers": []any{},
		"project_id":    "PVT_abc",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "issue_numbers list cannot be empty")

	result, err = s.handleBatchLinkToProject(context.Background(), callReq(map[string]any{
		"issue_numbers": []any{float64(1)},
		"project_id":    "42",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "project_id must be a valid GitHub Project node ID")
}

func TestBatchLinkToProject_OverLimitMessage(t *testing.T) {
	numbers := make([]any, 51)
	for i := range numbers {
		numbers[i] = float64(i + 1)
	}
	s := newTestServer(githubtest.NewFakeREST())

	result, err := s.handleBatchLinkToProject(context.Background(), callReq(map[string]any{
		"issue_numbers": numbers,
		"project_id":    "PVT_abc",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "Maximum 50 issues per batch (rate limiting protection)", resultText(t, result))
}

func TestGetIssue_SerializesAPIErrors(t *testing.T) {
	rest := githubtest.NewFakeREST()
	rest.FailWith("GET", "repos/octo/demo/issues/5",
		&api.HTTPError{StatusCode: 404, Message: "Not Found"})
	s := newTestServer(rest)

	result, err := s.handleGetIssue(context.Background(), callReq(map[string]any{
		"issue_number": float64(5),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	payload := resultJSON(t, result)
	assert.Equal(t, true, payload["error"])
	assert.Equal(t, "RESOURCE_NOT_FOUND", payload["code"])
	assert.NotEmpty(t, payload["suggestions"])
}

func TestGetIssue_RequiresNumber(t *testing.T) {
	s := newTestServer(githubtest.NewFakeREST())

	result, err := s.handleGetIssue(context.Background(), callReq(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "issue_number is required")
}

func TestListIssues_AppliesDefaults(t *testing.T) {
	rest := githubtest.NewFakeREST()
	rest.Respond("GET", "repos/octo/demo/issues?direction=desc&per_page=100&sort=created&state=open",
		[]map[string]interface{}{})
	s := newTestServer(rest)

	result, err := s.handleListIssues(context.Background(), callReq(map[string]any{}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	payload := resultJSON(t, result)
	assert.Equal(t, float64(0), payload["count"])
}

func TestCloseIssue_RejectsBadStateReason(t *testing.T) {
	rest := githubtest.NewFakeREST()
	s := newTestServer(rest)

	result, err := s.handleCloseIssue(context.Background(), callReq(map[string]any{
		"issue_number": float64(3),
		"state_reason": "because",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "state_reason must be 'completed' or 'not_planned'")
	assert.Empty(t, rest.Calls())
}

func TestUpdatePR_RequiresAtLeastOneField(t *testing.T) {
	s := newTestServer(githubtest.NewFakeREST())

	result, err := s.handleUpdatePR(context.Background(), callReq(map[string]any{
		"pr_number": float64(7),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "no fields to update")
}

func TestMergePR_Defaults(t *testing.T) {
	rest := githubtest.NewFakeREST()
	rest.Respond("GET", "repos/octo/demo/pulls/7", map[string]interface{}{
		"number":          7,
		"state":           "open",
		"merged":          false,
		"mergeable":       true,
		"mergeable_state": "clean",
		"head":            map[string]interface{}{"ref": "feature"},
		"base":            map[string]interface{}{"ref": "main"},
	})
	rest.Handle("PUT", "repos/octo/demo/pulls/7/merge", func(body map[string]interface{}) (interface{}, error) {
		assert.Equal(t, "squash", body["merge_method"])
		return map[string]interface{}{"sha": "abc", "merged": true}, nil
	})
	rest.Respond("DELETE", "repos/octo/demo/git/refs/heads/feature", nil)
	s := newTestServer(rest)

	result, err := s.handleMergePR(context.Background(), callReq(map[string]any{
		"pr_number": float64(7),
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	payload := resultJSON(t, result)
	assert.Equal(t, true, payload["merged"])
	assert.Equal(t, true, payload["branch_deleted"])
	assert.Equal(t, 1, rest.CallCount("DELETE", "repos/octo/demo/git/refs/heads/feature"))
}

func TestGetCILogs_Defaults(t *testing.T) {
	rest := githubtest.NewFakeREST()
	rest.Respond("GET", "repos/octo/demo/actions/runs?branch=main&per_page=100",
		map[string]interface{}{"total_count": 1, "workflow_runs": []interface{}{
			map[string]interface{}{
				"id":          9,
				"head_branch": "main",
				"status":      "completed",
				"conclusion":  "failure",
				"workflow_id": 1,
			},
		}})
	rest.Respond("GET", "repos/octo/demo/actions/runs/9/jobs",
		map[string]interface{}{"total_count": 0, "jobs": []interface{}{}})
	s := newTestServer(rest)

	result, err := s.handleGetCILogs(context.Background(), callReq(map[string]any{
		"branch": "main",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	payload := resultJSON(t, result)
	assert.Equal(t, float64(9), payload["run_id"])
}

func TestCheckCIStatus_RequiresBranch(t *testing.T) {
	s := newTestServer(githubtest.NewFakeREST())

	result, err := s.handleCheckCIStatus(context.Background(), callReq(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "branch is required")
}
