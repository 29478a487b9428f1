package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	gomcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/yahsan2/gh-mcp/pkg/config"
	"github.com/yahsan2/gh-mcp/pkg/github"
)

// repoFrom resolves the target repository from the request's owner/repo
// arguments, falling back to the configured defaults.
func (s *Server) repoFrom(req gomcp.CallToolRequest) (config.Repository, error) {
	repo := config.Repository{
		Owner: req.GetString("owner", s.defaults.Owner),
		Repo:  req.GetString("repo", s.defaults.Repo),
	}
	if err := repo.Validate(); err != nil {
		return config.Repository{}, fmt.Errorf(
			"owner and repo are required (set GITHUB_OWNER/GITHUB_REPO or pass them explicitly): %w", err)
	}
	return repo, nil
}

// argInt extracts an integer argument, returning def when absent. JSON
// numbers arrive as float64.
func argInt(req gomcp.CallToolRequest, name string, def int) int {
	if args := req.GetArguments(); args != nil {
		if v, ok := args[name].(float64); ok {
			return int(v)
		}
	}
	return def
}

// argPresent reports whether the argument was supplied at all, which is
// distinct from being supplied as null.
func argPresent(req gomcp.CallToolRequest, name string) bool {
	args := req.GetArguments()
	if args == nil {
		return false
	}
	_, ok := args[name]
	return ok
}

// argItems extracts a list-of-objects argument.
func argItems(req gomcp.CallToolRequest, name string) ([]map[string]interface{}, error) {
	args := req.GetArguments()
	if args == nil {
		return nil, nil
	}
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("'%s' must be a list of objects", name)
	}
	items := make([]map[string]interface{}, 0, len(list))
	for i, entry := range list {
		item, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("'%s' entry at index %d must be an object", name, i)
		}
		items = append(items, item)
	}
	return items, nil
}

// argIntSlice extracts a list-of-integers argument.
func argIntSlice(req gomcp.CallToolRequest, name string) ([]int, error) {
	args := req.GetArguments()
	if args == nil {
		return nil, nil
	}
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("'%s' must be a list of integers", name)
	}
	out := make([]int, 0, len(list))
	for i, entry := range list {
		n, ok := entry.(float64)
		if !ok {
			return nil, fmt.Errorf("'%s' entry at index %d must be an integer", name, i)
		}
		out = append(out, int(n))
	}
	return out, nil
}

// argStringSlice extracts a list-of-strings argument.
func argStringSlice(req gomcp.CallToolRequest, name string) []string {
	args := req.GetArguments()
	if args == nil {
		return nil
	}
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil
	}
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

// jsonResult marshals a payload into a successful text result.
func jsonResult(v interface{}) *gomcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return gomcp.NewToolResultError("failed to marshal result: " + err.Error())
	}
	return gomcp.NewToolResultText(string(data))
}

// errResult converts an operation error into a tool error result. Taxonomy
// errors are serialized with their code, details, and suggestions so the
// caller can act on them; anything else is passed through as plain text.
func errResult(err error) *gomcp.CallToolResult {
	var apiErr *github.APIError
	if errors.As(err, &apiErr) {
		data, marshalErr := json.MarshalIndent(apiErr.ToMap(), "", "  ")
		if marshalErr == nil {
			return gomcp.NewToolResultError(string(data))
		}
	}
	return gomcp.NewToolResultError(err.Error())
}
