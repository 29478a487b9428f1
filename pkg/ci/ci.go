// Package ci reads GitHub Actions workflow status and job logs.
package ci

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"

	"github.com/yahsan2/gh-mcp/pkg/config"
	"github.com/yahsan2/gh-mcp/pkg/github"
)

// Service performs CI operations through an injected client.
type Service struct {
	client *github.Client
}

// NewService creates a CI service.
func NewService(client *github.Client) *Service {
	return &Service{client: client}
}

type apiRun struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	HeadBranch string    `json:"head_branch"`
	Status     string    `json:"status"`
	Conclusion *string   `json:"conclusion"`
	WorkflowID int64     `json:"workflow_id"`
	HTMLURL    string    `json:"html_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type apiJob struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Conclusion *string `json:"conclusion"`
	HTMLURL    string  `json:"html_url"`
}

type runList struct {
	TotalCount   int      `json:"total_count"`
	WorkflowRuns []apiRun `json:"workflow_runs"`
}

type jobList struct {
	TotalCount int      `json:"total_count"`
	Jobs       []apiJob `json:"jobs"`
}

// CheckStatus reports the latest run of every workflow on a branch, with
// per-run jobs and an aggregated overall status and conclusion.
func (s *Service) CheckStatus(repo config.Repository, branch string) (map[string]interface{}, error) {
	var runs runList
	path := fmt.Sprintf("repos/%s/actions/runs?branch=%s&per_page=100", repo.FullName(), url.QueryEscape(branch))
	if err := s.client.Get(path, &runs); err != nil {
		return nil, github.Normalize(err)
	}

	if len(runs.WorkflowRuns) == 0 {
		return map[string]interface{}{
			"status":             "no_runs",
			"overall_status":     "no_runs",
			"overall_conclusion": nil,
			"message":            fmt.Sprintf("No CI runs found for branch: %s", branch),
			"branch":             branch,
			"workflows":          []interface{}{},
		}, nil
	}

	// Runs arrive newest first; the first run per workflow is its latest.
	latest := make(map[int64]apiRun)
	var order []int64
	for _, run := range runs.WorkflowRuns {
		if _, seen := latest[run.WorkflowID]; !seen {
			latest[run.WorkflowID] = run
			order = append(order, run.WorkflowID)
		}
	}

	workflows := make([]map[string]interface{}, 0, len(order))
	for _, workflowID := range order {
		run := latest[workflowID]

		name := s.workflowName(repo, workflowID)

		// Job detail is best effort; a failed fetch leaves the list empty.
		jobs := []interface{}{}
		var jl jobList
		jobsPath := fmt.Sprintf("repos/%s/actions/runs/%d/jobs", repo.FullName(), run.ID)
		if err := s.client.Get(jobsPath, &jl); err == nil {
			for _, job := range jl.Jobs {
				jobs = append(jobs, map[string]interface{}{
					"name":       job.Name,
					"status":     job.Status,
					"conclusion": strOrNil(job.Conclusion),
					"url":        job.HTMLURL,
				})
			}
		}

		workflows = append(workflows, map[string]interface{}{
			"workflow_id": workflowID,
			"name":        name,
			"status":      run.Status,
			"conclusion":  strOrNil(run.Conclusion),
			"url":         run.HTMLURL,
			"created_at":  run.CreatedAt.Format(time.RFC3339),
			"updated_at":  run.UpdatedAt.Format(time.RFC3339),
			"jobs":        jobs,
		})
	}

	overallStatus := aggregateStatus(workflows)
	overallConclusion := aggregateConclusion(workflows)

	return map[string]interface{}{
		"status":             overallStatus,
		"conclusion":         overallConclusion,
		"overall_status":     overallStatus,
		"overall_conclusion": overallConclusion,
		"branch":             branch,
		"workflows":          workflows,
		"total_workflows":    len(workflows),
	}, nil
}

// aggregateStatus is "completed" only when every workflow has completed;
// otherwise the most pending state wins.
func aggregateStatus(workflows []map[string]interface{}) string {
	if len(workflows) == 0 {
		return "unknown"
	}
	allCompleted := true
	anyInProgress := false
	anyQueued := false
	for _, w := range workflows {
		switch w["status"] {
		case "completed":
		case "in_progress":
			allCompleted = false
			anyInProgress = true
		case "queued":
			allCompleted = false
			anyQueued = true
		default:
			allCompleted = false
		}
	}
	switch {
	case allCompleted:
		return "completed"
	case anyInProgress:
		return "in_progress"
	case anyQueued:
		return "queued"
	default:
		return workflows[0]["status"].(string)
	}
}

// aggregateConclusion is "failure" if any workflow failed, else "cancelled"
// if any were cancelled, else "success" only when all succeeded. The
// precedence order is load-bearing; do not reorder.
func aggregateConclusion(workflows []map[string]interface{}) interface{} {
	var conclusions []string
	for _, w := range workflows {
		if c, ok := w["conclusion"].(string); ok {
			conclusions = append(conclusions, c)
		}
	}
	if len(conclusions) == 0 {
		return nil
	}

	anyFailure := false
	anyCancelled := false
	allSuccess := true
	for _, c := range conclusions {
		switch c {
		case "failure":
			anyFailure = true
			allSuccess = false
		case "cancelled":
			anyCancelled = true
			allSuccess = false
		case "success":
		default:
			allSuccess = false
		}
	}
	switch {
	case anyFailure:
		return "failure"
	case anyCancelled:
		return "cancelled"
	case allSuccess:
		return "success"
	default:
		return conclusions[0]
	}
}

func (s *Service) workflowName(repo config.Repository, workflowID int64) string {
	var workflow struct {
		Name string `json:"name"`
	}
	path := fmt.Sprintf("repos/%s/actions/workflows/%d", repo.FullName(), workflowID)
	if err := s.client.Get(path, &workflow); err != nil || workflow.Name == "" {
		return fmt.Sprintf("Workflow %d", workflowID)
	}
	return workflow.Name
}

// LogOptions select which jobs' logs to fetch. Exactly one of Branch and
// RunID must be set.
type LogOptions struct {
	Branch   string
	RunID    int64
	JobName  string // substring match, case-insensitive
	Status   string // "failure", "success", or "all"
	MaxLines int    // tail limit per job
}

// GetLogs retrieves job logs for a workflow run, filtered by job name and
// conclusion. Log download failure for one job is recorded in that job's
// entry and never fails the call.
func (s *Service) GetLogs(repo config.Repository, opts LogOptions) (map[string]interface{}, error) {
	if opts.Branch == "" && opts.RunID == 0 {
		return nil, errors.New("either branch or run_id must be provided")
	}
	if opts.Branch != "" && opts.RunID != 0 {
		return nil, errors.New("cannot provide both branch and run_id")
	}
	if opts.Status != "failure" && opts.Status != "success" && opts.Status != "all" {
		return nil, fmt.Errorf("invalid status: %s (must be one of: failure, success, all)", opts.Status)
	}

	var run apiRun
	if opts.RunID != 0 {
		path := fmt.Sprintf("repos/%s/actions/runs/%d", repo.FullName(), opts.RunID)
		if err := s.client.Get(path, &run); err != nil {
			return nil, fmt.Errorf("workflow run %d not found", opts.RunID)
		}
	} else {
		var runs runList
		path := fmt.Sprintf("repos/%s/actions/runs?branch=%s&per_page=100", repo.FullName(), url.QueryEscape(opts.Branch))
		if err := s.client.Get(path, &runs); err != nil {
			return nil, github.Normalize(err)
		}
		if len(runs.WorkflowRuns) == 0 {
			return nil, fmt.Errorf("no CI runs found for branch: %s", opts.Branch)
		}
		run = runs.WorkflowRuns[0]
	}

	var jl jobList
	jobsPath := fmt.Sprintf("repos/%s/actions/runs/%d/jobs", repo.FullName(), run.ID)
	if err := s.client.Get(jobsPath, &jl); err != nil {
		return nil, github.Normalize(err)
	}

	jobs := make([]interface{}, 0, len(jl.Jobs))
	for _, job := range jl.Jobs {
		if opts.JobName != "" && !strings.Contains(strings.ToLower(job.Name), strings.ToLower(opts.JobName)) {
			continue
		}
		conclusion := ""
		if job.Conclusion != nil {
			conclusion = *job.Conclusion
		}
		if opts.Status == "failure" && conclusion != "failure" {
			continue
		}
		if opts.Status == "success" && conclusion != "success" {
			continue
		}

		jobs = append(jobs, map[string]interface{}{
			"job_id":     job.ID,
			"name":       job.Name,
			"status":     job.Status,
			"conclusion": strOrNil(job.Conclusion),
			"logs":       s.downloadLogs(repo, job.ID, opts.MaxLines),
			"log_url":    job.HTMLURL,
		})
	}

	return map[string]interface{}{
		"run_id":     run.ID,
		"run_url":    run.HTMLURL,
		"branch":     run.HeadBranch,
		"status":     run.Status,
		"conclusion": strOrNil(run.Conclusion),
		"jobs":       jobs,
	}, nil
}

// downloadLogs fetches a job's log text, following GitHub's redirect to
// blob storage, and returns the last maxLines lines. Failures come back as
// placeholder text instead of an error.
func (s *Service) downloadLogs(repo config.Repository, jobID int64, maxLines int) string {
	path := fmt.Sprintf("repos/%s/actions/jobs/%d/logs", repo.FullName(), jobID)
	resp, err := s.client.Raw("GET", path)
	if err != nil {
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) {
			return fmt.Sprintf("Logs not available (HTTP %d)", httpErr.StatusCode)
		}
		return fmt.Sprintf("Error downloading logs: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error downloading logs: %v", err)
	}

	lines := strings.Split(string(data), "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}

func strOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
