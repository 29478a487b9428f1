package issue

import (
	"testing"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yahsan2/gh-mcp/pkg/config"
	"github.com/yahsan2/gh-mcp/pkg/github"
	"github.com/yahsan2/gh-mcp/pkg/github/githubtest"
)

var testRepo = config.Repository{Owner: "octo", Repo: "demo"}

func newTestService(rest *githubtest.FakeREST) *Service {
	return NewService(github.NewClientWith(rest, &githubtest.FakeGraphQL{}))
}

func issuePayload(number int, title string) map[string]interface{} {
	return map[string]interface{}{
		"number":     number,
		"node_id":    "I_node",
		"title":      title,
		"body":       "some body",
		"state":      "open",
		"html_url":   "https://github.com/octo/demo/issues/1",
		"labels":     []map[string]interface{}{{"name": "bug"}},
		"created_at": time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
		"updated_at": time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
}

func TestGet_ReturnsFullIssue(t *testing.T) {
	rest := githubtest.NewFakeREST()
	rest.Respond("GET", "repos/octo/demo/issues/42", issuePayload(42, "Fix the thing"))
	svc := newTestService(rest)

	got, err := svc.Get(testRepo, 42)
	require.NoError(t, err)

	assert.Equal(t, 42, got["number"])
	assert.Equal(t, "Fix the thing", got["title"])
	assert.Equal(t, "some body", got["body"])
	assert.Equal(t, []string{"bug"}, got["labels"])
	assert.Nil(t, got["milestone"])
	assert.Equal(t, "2025-06-01T12:00:00Z", got["created_at"])
}

func TestGet_NotFound(t *testing.T) {
	rest := githubtest.NewFakeREST()
	rest.FailWith("GET", "repos/octo/demo/issues/999",
		&api.HTTPError{StatusCode: 404, Message: "Not Found"})
	svc := newTestService(rest)

	_, err := svc.Get(testRepo, 999)
	require.Error(t, err)

	var apiErr *github.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, github.CodeResourceNotFound, apiErr.Code)
}

func TestList_FiltersAndExcludesPullRequests(t *testing.T) {
	rest := githubtest.NewFakeREST()
	rest.Respond("GET", "repos/octo/demo/issues?direction=desc&labels=bug&per_page=100&sort=created&state=open",
		[]map[string]interface{}{
			issuePayload(1, "real issue"),
			{
				"number":       2,
				"title":        "actually a PR",
				"state":        "open",
				"pull_request": map[string]interface{}{"url": "https://api.github.com/repos/octo/demo/pulls/2"},
			},
			issuePayload(3, "another issue"),
		})
	svc := newTestService(rest)

	got, err := svc.List(testRepo, ListOptions{
		State:     "open",
		Labels:    []string{"bug"},
		Sort:      "created",
		Direction: "desc",
		Limit:     30,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, got["count"])
	issues := got["issues"].([]interface{})
	require.Len(t, issues, 2)
	first := issues[0].(map[string]interface{})
	assert.Equal(t, 1, first["number"])
}

func TestList_FillsLimitWhenPullRequestsSharePage(t *testing.T) {
	rest := githubtest.NewFakeREST()
	rest.Respond("GET", "repos/octo/demo/issues?direction=desc&per_page=100&sort=created&state=open",
		[]map[string]interface{}{
			{
				"number":       10,
				"title":        "a PR on the same page",
				"state":        "open",
				"pull_request": map[string]interface{}{"url": "https://api.github.com/repos/octo/demo/pulls/10"},
			},
			issuePayload(9, "ninth"),
			issuePayload(8, "eighth"),
			issuePayload(7, "seventh"),
		})
	svc := newTestService(rest)

	got, err := svc.List(testRepo, ListOptions{
		State: "open", Sort: "created", Direction: "desc", Limit: 2,
	})
	require.NoError(t, err)

	// The PR must not eat into the limit.
	assert.Equal(t, 2, got["count"])
	issues := got["issues"].([]interface{})
	require.Len(t, issues, 2)
	assert.Equal(t, 9, issues[0].(map[string]interface{})["number"])
	assert.Equal(t, 8, issues[1].(map[string]interface{})["number"])
}

func TestList_MilestoneTitleResolution(t *testing.T) {
	rest := githubtest.NewFakeREST()
	rest.Respond("GET", "repos/octo/demo/milestones?state=all&per_page=100",
		[]map[string]interface{}{
			{"number": 3, "title": "v1.0"},
			{"number": 7, "title": "v2.0"},
		})
	rest.Respond("GET", "repos/octo/demo/issues?direction=desc&milestone=7&per_page=100&sort=created&state=open",
		[]map[string]interface{}{issuePayload(5, "milestoned")})
	svc := newTestService(rest)

	got, err := svc.List(testRepo, ListOptions{
		State: "open", Sort: "created", Direction: "desc", Limit: 30,
		Milestone: "v2.0",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got["count"])
}

func TestList_UnknownMilestoneYieldsEmptyResult(t *testing.T) {
	rest := githubtest.NewFakeREST()
	rest.Respond("GET", "repos/octo/demo/milestones?state=all&per_page=100",
		[]map[string]interface{}{{"number": 3, "title": "v1.0"}})
	svc := newTestService(rest)

	got, err := svc.List(testRepo, ListOptions{
		State: "open", Sort: "created", Direction: "desc", Limit: 30,
		Milestone: "no-such-milestone",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, got["total"])
	assert.Empty(t, got["issues"])
	// The issues endpoint must not have been hit at all.
	for _, c := range rest.Calls() {
		assert.NotContains(t, c.Path, "repos/octo/demo/issues")
	}
}

func TestClose_WithCommentAndReason(t *testing.T) {
	rest := githubtest.NewFakeREST()
	rest.Respond("GET", "repos/octo/demo/issues/8", issuePayload(8, "closing time"))
	rest.Respond("POST", "repos/octo/demo/issues/8/comments", map[string]interface{}{"id": 1})
	rest.Handle("PATCH", "repos/octo/demo/issues/8", func(body map[string]interface{}) (interface{}, error) {
		assert.Equal(t, "closed", body["state"])
		assert.Equal(t, "not_planned", body["state_reason"])
		p := issuePayload(8, "closing time")
		p["state"] = "closed"
		p["state_reason"] = "not_planned"
		return p, nil
	})
	svc := newTestService(rest)

	got, err := svc.Close(testRepo, 8, "wontfix", "not_planned")
	require.NoError(t, err)

	assert.Equal(t, "closed", got["state"])
	assert.Equal(t, "not_planned", got["state_reason"])
	assert.Equal(t, true, got["comment_added"])
	assert.Equal(t, 1, rest.CallCount("POST", "repos/octo/demo/issues/8/comments"))
}

func TestClose_WithoutComment(t *testing.T) {
	rest := githubtest.NewFakeREST()
	rest.Respond("GET", "repos/octo/demo/issues/8", issuePayload(8, "quiet close"))
	rest.Handle("PATCH", "repos/octo/demo/issues/8", func(body map[string]interface{}) (interface{}, error) {
		_, hasReason := body["state_reason"]
		assert.False(t, hasReason)
		p := issuePayload(8, "quiet close")
		p["state"] = "closed"
		return p, nil
	})
	svc := newTestService(rest)

	got, err := svc.Close(testRepo, 8, "", "")
	require.NoError(t, err)

	assert.Equal(t, false, got["comment_added"])
	assert.Nil(t, got["state_reason"])
	assert.Equal(t, 0, rest.CallCount("POST", "repos/octo/demo/issues/8/comments"))
}

func TestClose_AlreadyClosedIsIdempotent(t *testing.T) {
	rest := githubtest.NewFakeREST()
	closed := issuePayload(8, "done already")
	closed["state"] = "closed"
	rest.Respond("GET", "repos/octo/demo/issues/8", closed)
	rest.Respond("PATCH", "repos/octo/demo/issues/8", closed)
	svc := newTestService(rest)

	// Closing twice in a row succeeds both times and reports the same state.
	for i := 0; i < 2; i++ {
		got, err := svc.Close(testRepo, 8, "", "")
		require.NoError(t, err)
		assert.Equal(t, "closed", got["state"])
		assert.Equal(t, false, got["comment_added"])
	}
	assert.Equal(t, 2, rest.CallCount("PATCH", "repos/octo/demo/issues/8"))
}
