// Package output formats structured content for tool responses.
package output

import "fmt"

// FormatPRBody renders a pull request body from structured sections. An
// issue number of 0 means the PR closes nothing.
func FormatPRBody(problem, solution, keyChanges, branch string, issue int) string {
	summary := "Internal improvement"
	techDetails := fmt.Sprintf("- **Branch**: `%s`", branch)
	if issue > 0 {
		summary = fmt.Sprintf("Closes #%d", issue)
		techDetails += fmt.Sprintf("\n- **Closes**: #%d", issue)
	}

	return fmt.Sprintf(`## Summary

%s

## Problem

%s

## Solution

%s

## Key Changes

%s

## Technical Details

%s`, summary, problem, solution, keyChanges, techDetails)
}
