package github

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cli/go-gh/v2/pkg/api"
)

// Error codes form a closed taxonomy. Every failure from a GitHub call is
// mapped onto exactly one of these.
const (
	CodeResourceNotFound = "RESOURCE_NOT_FOUND"
	CodeForbidden        = "FORBIDDEN"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeAPIError         = "GITHUB_API_ERROR"
)

// APIError is a structured GitHub operation error with a taxonomy code and
// actionable suggestions.
type APIError struct {
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Suggestions []string               `json:"suggestions"`

	cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.cause
}

// ToMap converts the error to the map shape embedded in tool responses.
func (e *APIError) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"error":       true,
		"code":        e.Code,
		"message":     e.Message,
		"details":     e.Details,
		"suggestions": e.Suggestions,
	}
}

// Normalize converts any error raised by a GitHub call into an APIError with
// a taxonomy code. Structured errors from go-gh are inspected by status code
// or GraphQL error type; anything else falls back to string matching in the
// fixed precedence order 404, 403, 401, 422, generic.
func Normalize(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		return fromStatus(httpErr.StatusCode, err, httpErr)
	}

	var gqlErr *api.GraphQLError
	if errors.As(err, &gqlErr) {
		return fromGraphQL(err, gqlErr)
	}

	s := err.Error()
	switch {
	case strings.Contains(s, "404"):
		return fromStatus(404, err, nil)
	case strings.Contains(s, "403"):
		return fromStatus(403, err, nil)
	case strings.Contains(s, "401"):
		return fromStatus(401, err, nil)
	case strings.Contains(s, "422"):
		return fromStatus(422, err, nil)
	}

	return generic(err)
}

func fromStatus(status int, err error, httpErr *api.HTTPError) *APIError {
	switch status {
	case 404:
		return &APIError{
			Code:    CodeResourceNotFound,
			Message: err.Error(),
			Details: map[string]interface{}{"status": 404},
			Suggestions: []string{
				"Verify the resource exists",
				"Check you have access to this repository",
			},
			cause: err,
		}
	case 403:
		// Deliberately generic: provider detail is not passed through.
		return &APIError{
			Code:    CodeForbidden,
			Message: "Access denied. Check token permissions.",
			Details: map[string]interface{}{"status": 403},
			Suggestions: []string{
				"Verify GITHUB_TOKEN has required scopes",
				"Check repository access permissions",
			},
			cause: err,
		}
	case 401:
		return &APIError{
			Code:    CodeUnauthorized,
			Message: "Authentication failed.",
			Details: map[string]interface{}{"status": 401},
			Suggestions: []string{
				"Verify GITHUB_TOKEN is valid",
				"Token may have expired",
			},
			cause: err,
		}
	case 422:
		return validationFailed(err, httpErr)
	default:
		return generic(err)
	}
}

func validationFailed(err error, httpErr *api.HTTPError) *APIError {
	mainMessage := "Validation failed"
	var fieldErrors []string
	if httpErr != nil {
		if httpErr.Message != "" {
			mainMessage = httpErr.Message
		}
		fieldErrors = extractFieldErrors(httpErr.Errors)
	}

	message := mainMessage
	if len(fieldErrors) > 0 {
		var b strings.Builder
		b.WriteString(mainMessage)
		b.WriteString(":")
		for _, fe := range fieldErrors {
			b.WriteString("\n  - ")
			b.WriteString(fe)
		}
		message = b.String()
	}

	suggestions := []string{
		"Review the parameter values in your request",
		"Check GitHub API documentation for required fields and formats",
	}
	if anyContains(fieldErrors, "title") {
		suggestions = append(suggestions, "PR title must be non-empty and not exceed 256 characters")
	}
	if anyContains(fieldErrors, "body") {
		suggestions = append(suggestions, "PR body must not exceed 65536 characters")
	}
	if anyContains(fieldErrors, "head") {
		suggestions = append(suggestions, "Ensure the head branch exists and has been pushed to remote")
	}
	if anyContains(fieldErrors, "base") {
		suggestions = append(suggestions, "Ensure the base branch exists in the repository")
	}

	return &APIError{
		Code:    CodeValidationFailed,
		Message: message,
		Details: map[string]interface{}{
			"status":       422,
			"field_errors": fieldErrors,
		},
		Suggestions: suggestions,
		cause:       err,
	}
}

// extractFieldErrors turns GitHub's structured 422 error items into readable
// per-field messages, defaulting a phrase per known reason code.
func extractFieldErrors(items []api.HTTPErrorItem) []string {
	var out []string
	for _, item := range items {
		field := item.Field
		if field == "" {
			field = "unknown"
		}
		switch {
		case item.Message != "":
			out = append(out, fmt.Sprintf("Field '%s': %s", field, item.Message))
		case item.Code == "missing_field":
			out = append(out, fmt.Sprintf("Field '%s' is required but missing", field))
		case item.Code == "invalid":
			out = append(out, fmt.Sprintf("Field '%s' has an invalid value", field))
		case item.Code == "already_exists":
			out = append(out, fmt.Sprintf("Field '%s' already exists (duplicate)", field))
		case item.Code == "custom":
			out = append(out, fmt.Sprintf("Field '%s': custom validation error", field))
		default:
			out = append(out, fmt.Sprintf("Field '%s': %s", field, item.Code))
		}
	}
	return out
}

// fromGraphQL maps GraphQL error types onto the same taxonomy the REST
// status codes use.
func fromGraphQL(err error, gqlErr *api.GraphQLError) *APIError {
	for _, item := range gqlErr.Errors {
		switch item.Type {
		case "NOT_FOUND":
			return fromStatus(404, err, nil)
		case "FORBIDDEN":
			return fromStatus(403, err, nil)
		case "INSUFFICIENT_SCOPES":
			return fromStatus(403, err, nil)
		}
	}
	return generic(err)
}

func generic(err error) *APIError {
	return &APIError{
		Code:    CodeAPIError,
		Message: err.Error(),
		Details: map[string]interface{}{
			"original_error": fmt.Sprintf("%T", err),
		},
		Suggestions: []string{},
		cause:       err,
	}
}

func anyContains(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(strings.ToLower(e), substr) {
			return true
		}
	}
	return false
}
