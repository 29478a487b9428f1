// Package tools is the MCP surface of the server: it declares every GitHub
// operation as a callable tool, validates call arguments before any network
// activity, and adapts results into MCP content.
package tools

import (
	gomcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/yahsan2/gh-mcp/pkg/ci"
	"github.com/yahsan2/gh-mcp/pkg/config"
	"github.com/yahsan2/gh-mcp/pkg/github"
	"github.com/yahsan2/gh-mcp/pkg/issue"
	"github.com/yahsan2/gh-mcp/pkg/milestone"
	"github.com/yahsan2/gh-mcp/pkg/project"
	"github.com/yahsan2/gh-mcp/pkg/pull"
)

const serverName = "github-manager"

const serverInstructions = "This server exposes GitHub repository operations as tools: " +
	"issues (create, update, list, close, labels), pull requests (create, update, merge), " +
	"milestones, Projects v2 linking, and CI status/logs. " +
	"Batch tools accept up to 50 items per call and run them in parallel; " +
	"individual item failures are reported inside the result rather than failing the call. " +
	"Owner and repo default to the configured repository when omitted."

// Server registers GitHub tools on an MCP server and serves them over stdio.
type Server struct {
	mcp      *mcpserver.MCPServer
	defaults config.Repository

	issues     *issue.Service
	projects   *project.Service
	pulls      *pull.Service
	milestones *milestone.Service
	ci         *ci.Service
}

// NewServer wires the services around one shared client and registers every
// tool.
func NewServer(client *github.Client, cfg *config.Config, version string) *Server {
	s := &Server{
		mcp: mcpserver.NewMCPServer(
			serverName,
			version,
			mcpserver.WithInstructions(serverInstructions),
		),
		defaults:   cfg.Repository,
		issues:     issue.NewService(client),
		projects:   project.NewService(client),
		pulls:      pull.NewService(client),
		milestones: milestone.NewService(client),
		ci:         ci.NewService(client),
	}

	s.registerIssueTools()
	s.registerBatchTools()
	s.registerPullTools()
	s.registerMilestoneTools()
	s.registerCITools()

	Log("server created: defaults=%s", cfg.Repository.FullName())
	return s
}

func (s *Server) registerIssueTools() {
	createIssues := gomcp.NewTool("create_issues",
		gomcp.WithDescription(
			"Create GitHub issues (1 or more). Multiple issues are created in parallel. "+
				"Each issue object: {title (required), body, labels, milestone, assignees}. "+
				"Returns {total, successful, failed, success_rate, execution_time_seconds, results}.",
		),
		gomcp.WithArray("issues",
			gomcp.Required(),
			gomcp.Description("Issues to create, at most 50 per call."),
		),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
		gomcp.WithNumber("max_workers", gomcp.Description("Parallel workers (default 5, clamped to 1-10).")),
	)
	s.mcp.AddTool(createIssues, s.handleCreateIssues)

	getIssue := gomcp.NewTool("get_issue",
		gomcp.WithDescription("Retrieve full GitHub issue details including body content."),
		gomcp.WithNumber("issue_number", gomcp.Required(), gomcp.Description("Issue number.")),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
		gomcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcp.AddTool(getIssue, s.handleGetIssue)

	listIssues := gomcp.NewTool("list_issues",
		gomcp.WithDescription(
			"List and filter GitHub issues. Filters: state (open/closed/all), labels, "+
				"milestone (by title), assignee ('none' for unassigned), sort (created/updated/comments).",
		),
		gomcp.WithString("state", gomcp.Description("Issue state filter: open (default), closed, or all.")),
		gomcp.WithArray("labels", gomcp.Description("Label names to filter by.")),
		gomcp.WithString("milestone", gomcp.Description("Milestone title to filter by.")),
		gomcp.WithString("assignee", gomcp.Description("Assignee username, or 'none' for unassigned.")),
		gomcp.WithString("sort", gomcp.Description("Sort key: created (default), updated, or comments.")),
		gomcp.WithString("direction", gomcp.Description("Sort direction: asc or desc (default).")),
		gomcp.WithNumber("limit", gomcp.Description("Maximum issues to return (default 30, max 100).")),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
		gomcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcp.AddTool(listIssues, s.handleListIssues)

	closeIssue := gomcp.NewTool("close_issue",
		gomcp.WithDescription(
			"Close a GitHub issue, optionally adding a closing comment first. "+
				"state_reason may be 'completed' or 'not_planned'.",
		),
		gomcp.WithNumber("issue_number", gomcp.Required(), gomcp.Description("Issue number.")),
		gomcp.WithString("comment", gomcp.Description("Closing comment to add before closing.")),
		gomcp.WithString("state_reason", gomcp.Description("Close reason: completed or not_planned.")),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
	)
	s.mcp.AddTool(closeIssue, s.handleCloseIssue)
}

func (s *Server) registerBatchTools() {
	batchUpdate := gomcp.NewTool("batch_update_issues",
		gomcp.WithDescription(
			"Update multiple GitHub issues in parallel (max 50 per batch). "+
				"Each update object: {issue_number (required), title, body, state, labels, milestone, assignees}. "+
				"Labels and assignees replace the existing sets; a null milestone clears it. "+
				"Returns {total, successful, failed, success_rate, execution_time_seconds, results}.",
		),
		gomcp.WithArray("updates",
			gomcp.Required(),
			gomcp.Description("Updates to apply, at most 50 per call."),
		),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
		gomcp.WithNumber("max_workers", gomcp.Description("Parallel workers (default 5, clamped to 1-10).")),
	)
	s.mcp.AddTool(batchUpdate, s.handleBatchUpdateIssues)

	batchLabels := gomcp.NewTool("batch_add_labels",
		gomcp.WithDescription(
			"Add labels to multiple issues in parallel. Labels are added to the existing set, not replaced. "+
				"Each operation object: {issue_number (required), labels (required, non-empty)}.",
		),
		gomcp.WithArray("operations",
			gomcp.Required(),
			gomcp.Description("Label operations, at most 50 per call."),
		),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
		gomcp.WithNumber("max_workers", gomcp.Description("Parallel workers (default 5, clamped to 1-10).")),
	)
	s.mcp.AddTool(batchLabels, s.handleBatchAddLabels)

	batchLink := gomcp.NewTool("batch_link_to_project",
		gomcp.WithDescription(
			"Link multiple issues to a GitHub Project (v2) board in parallel. "+
				"project_id is the project's node ID starting with 'PVT_' (from the GraphQL API, "+
				"not the project number). Requires a token with project write scope.",
		),
		gomcp.WithArray("issue_numbers",
			gomcp.Required(),
			gomcp.Description("Issue numbers to link, at most 50 per call."),
		),
		gomcp.WithString("project_id",
			gomcp.Required(),
			gomcp.Description("Project v2 node ID (starts with 'PVT_')."),
		),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
		gomcp.WithNumber("max_workers", gomcp.Description("Parallel workers (default 5, clamped to 1-10).")),
	)
	s.mcp.AddTool(batchLink, s.handleBatchLinkToProject)
}

func (s *Server) registerPullTools() {
	createPR := gomcp.NewTool("create_pr_with_content",
		gomcp.WithDescription(
			"Create a GitHub pull request with structured content. The current git branch is used as head. "+
				"Provide problem (why), solution (how), and key_changes (bulleted markdown list).",
		),
		gomcp.WithString("title", gomcp.Required(), gomcp.Description("Pull request title.")),
		gomcp.WithString("problem", gomcp.Required(), gomcp.Description("Why this change is needed (2-4 sentences).")),
		gomcp.WithString("solution", gomcp.Required(), gomcp.Description("How the change works (4-8 sentences).")),
		gomcp.WithString("key_changes", gomcp.Required(), gomcp.Description("Bulleted markdown list of changes.")),
		gomcp.WithNumber("issue", gomcp.Description("Issue number this PR closes (adds 'Closes #N').")),
		gomcp.WithString("base", gomcp.Description("Base branch (default 'main').")),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
	)
	s.mcp.AddTool(createPR, s.handleCreatePRWithContent)

	getPR := gomcp.NewTool("get_pull_request",
		gomcp.WithDescription(
			"Get pull request details including mergeable status and diff statistics. "+
				"mergeable_state is one of: clean, dirty, unstable, blocked, unknown.",
		),
		gomcp.WithNumber("pr_number", gomcp.Required(), gomcp.Description("Pull request number.")),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
		gomcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcp.AddTool(getPR, s.handleGetPullRequest)

	updatePR := gomcp.NewTool("update_pr",
		gomcp.WithDescription(
			"Update pull request metadata. Only provided fields are changed. "+
				"Merged pull requests cannot be updated.",
		),
		gomcp.WithNumber("pr_number", gomcp.Required(), gomcp.Description("Pull request number.")),
		gomcp.WithString("title", gomcp.Description("New title.")),
		gomcp.WithString("body", gomcp.Description("New description.")),
		gomcp.WithString("base", gomcp.Description("New base branch.")),
		gomcp.WithString("state", gomcp.Description("New state: open or closed.")),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
	)
	s.mcp.AddTool(updatePR, s.handleUpdatePR)

	mergePR := gomcp.NewTool("merge_pr",
		gomcp.WithDescription(
			"Merge a pull request after checking its mergeable status. "+
				"merge_method: squash (default), merge, or rebase. "+
				"The head branch is deleted after merging unless delete_branch is false.",
		),
		gomcp.WithNumber("pr_number", gomcp.Required(), gomcp.Description("Pull request number.")),
		gomcp.WithString("merge_method", gomcp.Description("Merge method: squash (default), merge, or rebase.")),
		gomcp.WithString("commit_title", gomcp.Description("Custom merge commit title (squash/merge only).")),
		gomcp.WithString("commit_message", gomcp.Description("Custom merge commit message (squash/merge only).")),
		gomcp.WithBoolean("delete_branch", gomcp.Description("Delete the head branch after merging (default true).")),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
	)
	s.mcp.AddTool(mergePR, s.handleMergePR)
}

func (s *Server) registerMilestoneTools() {
	createMilestone := gomcp.NewTool("create_milestone",
		gomcp.WithDescription(
			"Create a GitHub milestone. due_date uses ISO 8601 format (e.g. 2025-12-31T23:59:59Z).",
		),
		gomcp.WithString("title", gomcp.Required(), gomcp.Description("Milestone title.")),
		gomcp.WithString("description", gomcp.Description("Markdown description.")),
		gomcp.WithString("due_date", gomcp.Description("Due date in ISO 8601 format.")),
		gomcp.WithString("state", gomcp.Description("Milestone state: open (default) or closed.")),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
	)
	s.mcp.AddTool(createMilestone, s.handleCreateMilestone)

	listMilestones := gomcp.NewTool("list_milestones",
		gomcp.WithDescription(
			"List repository milestones. sort: due_on (default) or completeness; "+
				"state: open (default), closed, or all.",
		),
		gomcp.WithString("state", gomcp.Description("State filter: open (default), closed, or all.")),
		gomcp.WithString("sort", gomcp.Description("Sort key: due_on (default) or completeness.")),
		gomcp.WithString("direction", gomcp.Description("Sort direction: asc (default) or desc.")),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
		gomcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcp.AddTool(listMilestones, s.handleListMilestones)
}

func (s *Server) registerCITools() {
	checkCI := gomcp.NewTool("check_ci_status",
		gomcp.WithDescription(
			"Check CI workflow status for a branch. Returns the latest run per workflow with jobs, "+
				"plus overall_status and overall_conclusion. Returns status 'no_runs' when the branch has no CI runs.",
		),
		gomcp.WithString("branch", gomcp.Required(), gomcp.Description("Branch name.")),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
		gomcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcp.AddTool(checkCI, s.handleCheckCIStatus)

	getLogs := gomcp.NewTool("get_ci_logs",
		gomcp.WithDescription(
			"Get CI workflow job logs for debugging. Provide either branch (latest run) or run_id, not both. "+
				"status filters jobs by conclusion: failure (default), success, or all. "+
				"max_lines tails each job's log (default 200).",
		),
		gomcp.WithString("branch", gomcp.Description("Branch whose latest run to inspect.")),
		gomcp.WithNumber("run_id", gomcp.Description("Specific workflow run ID.")),
		gomcp.WithString("job_name", gomcp.Description("Job name filter (substring, case-insensitive).")),
		gomcp.WithString("status", gomcp.Description("Job conclusion filter: failure (default), success, or all.")),
		gomcp.WithNumber("max_lines", gomcp.Description("Tail this many log lines per job (default 200).")),
		gomcp.WithString("owner", gomcp.Description("Repository owner. Defaults to the configured owner.")),
		gomcp.WithString("repo", gomcp.Description("Repository name. Defaults to the configured repository.")),
		gomcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcp.AddTool(getLogs, s.handleGetCILogs)
}

// Serve starts the MCP server on stdio and blocks until the transport
// closes.
func (s *Server) Serve() error {
	return mcpserver.ServeStdio(s.mcp)
}
