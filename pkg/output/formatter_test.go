package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPRBody_WithIssue(t *testing.T) {
	body := FormatPRBody(
		"Requests fail transiently.",
		"Retry with backoff.",
		"- added retry loop\n- tuned timeouts",
		"feature/retries",
		42,
	)

	assert.Contains(t, body, "## Summary\n\nCloses #42")
	assert.Contains(t, body, "## Problem\n\nRequests fail transiently.")
	assert.Contains(t, body, "## Solution\n\nRetry with backoff.")
	assert.Contains(t, body, "## Key Changes\n\n- added retry loop")
	assert.Contains(t, body, "- **Branch**: `feature/retries`")
	assert.Contains(t, body, "- **Closes**: #42")
}

func TestFormatPRBody_WithoutIssue(t *testing.T) {
	body := FormatPRBody("p", "s", "- k", "main", 0)

	assert.Contains(t, body, "## Summary\n\nInternal improvement")
	assert.NotContains(t, body, "Closes")
	assert.Contains(t, body, "- **Branch**: `main`")
}

func TestFormatPRBody_SectionOrder(t *testing.T) {
	body := FormatPRBody("p", "s", "- k", "main", 7)

	sections := []string{"## Summary", "## Problem", "## Solution", "## Key Changes", "## Technical Details"}
	last := -1
	for _, section := range sections {
		idx := strings.Index(body, section)
		assert.Greater(t, idx, last, "section %q out of order", section)
		last = idx
	}
}
