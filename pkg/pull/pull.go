// Package pull implements pull request operations: retrieval, metadata
// updates, merging with pre-merge checks, and structured-content creation.
package pull

import (
	"bytes"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/yahsan2/gh-mcp/pkg/config"
	"github.com/yahsan2/gh-mcp/pkg/github"
	"github.com/yahsan2/gh-mcp/pkg/output"
)

const (
	MaxTitleLength = 256
	MaxBodyLength  = 65536 // GitHub's limit for PR bodies
)

var validMergeMethods = []string{"merge", "squash", "rebase"}

// currentBranch resolves the branch to use as the PR head. Overridable in
// tests.
var currentBranch = func() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf(
			"failed to determine current branch; ensure you are in a git repository and on a valid branch: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Service performs pull request operations through an injected client.
type Service struct {
	client *github.Client
}

// NewService creates a pull request service.
func NewService(client *github.Client) *Service {
	return &Service{client: client}
}

// apiPull is the subset of the REST pull request payload this server reads.
type apiPull struct {
	Number         int    `json:"number"`
	Title          string `json:"title"`
	State          string `json:"state"`
	Merged         bool   `json:"merged"`
	Mergeable      *bool  `json:"mergeable"`
	MergeableState string `json:"mergeable_state"`
	Draft          bool   `json:"draft"`
	Head           struct {
		Ref string `json:"ref"`
	} `json:"head"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
	Commits        int        `json:"commits"`
	Additions      int        `json:"additions"`
	Deletions      int        `json:"deletions"`
	ChangedFiles   int        `json:"changed_files"`
	MergeCommitSHA string     `json:"merge_commit_sha"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
	MergedAt       *time.Time `json:"merged_at"`
	HTMLURL        string     `json:"html_url"`
}

// Get returns pull request details including mergeable status and diff
// statistics.
func (s *Service) Get(repo config.Repository, number int) (map[string]interface{}, error) {
	var pr apiPull
	if err := s.client.Get(pullPath(repo, number), &pr); err != nil {
		return nil, github.Normalize(err)
	}

	var mergeable interface{}
	if pr.Mergeable != nil {
		mergeable = *pr.Mergeable
	}

	return map[string]interface{}{
		"number":          pr.Number,
		"title":           pr.Title,
		"state":           pr.State,
		"merged":          pr.Merged,
		"mergeable":       mergeable,
		"mergeable_state": pr.MergeableState,
		"draft":           pr.Draft,
		"head":            pr.Head.Ref,
		"base":            pr.Base.Ref,
		"commits":         pr.Commits,
		"additions":       pr.Additions,
		"deletions":       pr.Deletions,
		"changed_files":   pr.ChangedFiles,
		"created_at":      isoOrNil(pr.CreatedAt),
		"updated_at":      isoOrNil(pr.UpdatedAt),
		"merged_at":       isoOrNil(pr.MergedAt),
		"url":             pr.HTMLURL,
	}, nil
}

// Update changes pull request metadata. Only the provided fields are sent;
// merged pull requests are rejected.
func (s *Service) Update(repo config.Repository, number int, fields map[string]interface{}) (map[string]interface{}, error) {
	if state, ok := fields["state"].(string); ok && state != "open" && state != "closed" {
		return nil, fmt.Errorf("invalid state %q: must be 'open' or 'closed'", state)
	}

	var pr apiPull
	if err := s.client.Get(pullPath(repo, number), &pr); err != nil {
		return nil, github.Normalize(err)
	}

	if pr.Merged {
		return nil, github.Normalize(fmt.Errorf(
			"cannot update pull request %d: merged pull requests cannot be modified", number))
	}

	payload := map[string]interface{}{}
	var updated []string
	for _, field := range []string{"title", "body", "base", "state"} {
		if v, ok := fields[field]; ok {
			payload[field] = v
			updated = append(updated, field)
		}
	}

	result := pr
	if len(payload) > 0 {
		if err := s.client.Patch(pullPath(repo, number), payload, &result); err != nil {
			return nil, github.Normalize(err)
		}
	}

	return map[string]interface{}{
		"number":         result.Number,
		"title":          result.Title,
		"state":          result.State,
		"updated_fields": updated,
		"url":            result.HTMLURL,
	}, nil
}

// MergeOptions configure a merge.
type MergeOptions struct {
	Method        string
	CommitTitle   string
	CommitMessage string
	DeleteBranch  bool
}

// Merge merges a pull request after pre-merge checks, then optionally
// deletes the head branch. Branch deletion failure does not fail the merge.
func (s *Service) Merge(repo config.Repository, number int, opts MergeOptions) (map[string]interface{}, error) {
	if !slices.Contains(validMergeMethods, opts.Method) {
		return nil, fmt.Errorf("invalid merge_method %q: must be one of: %s",
			opts.Method, strings.Join(validMergeMethods, ", "))
	}

	var pr apiPull
	if err := s.client.Get(pullPath(repo, number), &pr); err != nil {
		return nil, github.Normalize(err)
	}

	if pr.State == "closed" && !pr.Merged {
		return nil, github.Normalize(fmt.Errorf(
			"cannot merge pull request %d: pull request is closed; only open pull requests can be merged", number))
	}
	if pr.Merged {
		mergedAt := "unknown time"
		if pr.MergedAt != nil {
			mergedAt = pr.MergedAt.Format(time.RFC3339)
		}
		sha := pr.MergeCommitSHA
		if sha == "" {
			sha = "unknown"
		}
		return nil, github.Normalize(fmt.Errorf(
			"cannot merge pull request %d: already merged at %s (merge SHA: %s)", number, mergedAt, sha))
	}
	if pr.Mergeable != nil && !*pr.Mergeable {
		stateMessages := map[string]string{
			"blocked": "blocked by required checks, reviews, or branch protection",
			"dirty":   "merge conflicts must be resolved before merging",
			"behind":  "branch must be updated with the base branch before merging",
		}
		detail, ok := stateMessages[pr.MergeableState]
		if !ok {
			detail = fmt.Sprintf("pull request is not mergeable (state: %s)", pr.MergeableState)
		}
		return nil, github.Normalize(fmt.Errorf("cannot merge pull request %d: %s", number, detail))
	}

	payload := map[string]interface{}{"merge_method": opts.Method}
	if opts.CommitTitle != "" {
		payload["commit_title"] = opts.CommitTitle
	}
	if opts.CommitMessage != "" {
		payload["commit_message"] = opts.CommitMessage
	}

	var merged struct {
		SHA     string `json:"sha"`
		Merged  bool   `json:"merged"`
		Message string `json:"message"`
	}
	if err := s.client.Put(pullPath(repo, number)+"/merge", payload, &merged); err != nil {
		return nil, github.Normalize(err)
	}

	branchDeleted := false
	if opts.DeleteBranch {
		refPath := fmt.Sprintf("repos/%s/git/refs/heads/%s", repo.FullName(), pr.Head.Ref)
		if err := s.client.Delete(refPath, nil); err == nil {
			branchDeleted = true
		}
	}

	return map[string]interface{}{
		"merged":         true,
		"sha":            merged.SHA,
		"message":        fmt.Sprintf("Pull request #%d successfully merged", number),
		"branch_deleted": branchDeleted,
	}, nil
}

// ContentInput is the structured content of a created pull request.
type ContentInput struct {
	Title      string
	Problem    string
	Solution   string
	KeyChanges string
	Issue      int
	Base       string
}

// Validate checks the content before any API call is made.
func (c ContentInput) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "'title' cannot be empty")
	} else if len(c.Title) > MaxTitleLength {
		errs = append(errs, fmt.Sprintf("'title' exceeds maximum length of %d characters", MaxTitleLength))
	}
	if c.Issue < 0 {
		errs = append(errs, "'issue' must be a positive integer")
	}
	if strings.TrimSpace(c.Problem) == "" {
		errs = append(errs, "'problem' cannot be empty - describe why this change is needed")
	}
	if strings.TrimSpace(c.Solution) == "" {
		errs = append(errs, "'solution' cannot be empty - describe how the change works")
	}
	if strings.TrimSpace(c.KeyChanges) == "" {
		errs = append(errs, "'key_changes' cannot be empty - list the main changes made")
	}

	// Approximate: body template and headers add some overhead.
	estimated := len(c.Problem) + len(c.Solution) + len(c.KeyChanges) + 500
	if estimated > MaxBodyLength {
		errs = append(errs, fmt.Sprintf(
			"combined content exceeds maximum PR body length of %d characters (estimated: %d)",
			MaxBodyLength, estimated))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid PR parameters:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// CreateWithContent creates a pull request from structured content, using
// the current git branch as the head.
func (s *Service) CreateWithContent(repo config.Repository, input ContentInput) (map[string]interface{}, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	branch, err := currentBranch()
	if err != nil {
		return nil, err
	}

	body := output.FormatPRBody(input.Problem, input.Solution, input.KeyChanges, branch, input.Issue)

	payload := map[string]interface{}{
		"title": input.Title,
		"body":  body,
		"head":  branch,
		"base":  input.Base,
	}

	var pr apiPull
	path := fmt.Sprintf("repos/%s/pulls", repo.FullName())
	if err := s.client.Post(path, payload, &pr); err != nil {
		return nil, github.Normalize(err)
	}

	return map[string]interface{}{
		"pr_number":  pr.Number,
		"url":        pr.HTMLURL,
		"state":      pr.State,
		"head":       pr.Head.Ref,
		"base":       pr.Base.Ref,
		"created_at": isoOrNil(pr.CreatedAt),
	}, nil
}

func pullPath(repo config.Repository, number int) string {
	return fmt.Sprintf("repos/%s/pulls/%d", repo.FullName(), number)
}

func isoOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
