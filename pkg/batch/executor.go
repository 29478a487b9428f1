// Package batch runs independent GitHub operations with bounded parallelism
// and partial-failure aggregation. One item failing never aborts the rest;
// failures come back as data in the summary, in original input order.
package batch

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/yahsan2/gh-mcp/pkg/github"
)

const (
	// MaxItems is the per-batch item limit, enforced by the tool surface
	// before the executor runs.
	MaxItems = 50

	// DefaultWorkers is used when the caller does not specify a worker count.
	DefaultWorkers = 5

	minWorkers = 1
	maxWorkers = 10
)

// Result is the outcome of one item within a batch. Exactly one of Data and
// Error is populated, determined by Success. Index is the item's position in
// the original input and is used solely to restore submission order.
type Result struct {
	Index   int                    `json:"index"`
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   map[string]interface{} `json:"error,omitempty"`
}

// Succeed builds a successful item result.
func Succeed(index int, data map[string]interface{}) Result {
	return Result{Index: index, Success: true, Data: data}
}

// Fail builds a failed item result, normalizing the error onto the taxonomy.
func Fail(index int, err error) Result {
	return Result{Index: index, Success: false, Error: github.Normalize(err).ToMap()}
}

// Summary aggregates a completed batch. Results are sorted ascending by
// Index regardless of completion order.
type Summary struct {
	Total                int      `json:"total"`
	Successful           int      `json:"successful"`
	Failed               int      `json:"failed"`
	SuccessRate          string   `json:"success_rate"`
	ExecutionTimeSeconds float64  `json:"execution_time_seconds"`
	Results              []Result `json:"results"`
}

// Operation performs the work for a single item. Implementations must catch
// their own failures and return a failed Result rather than panicking; the
// executor converts a panic into a failed Result as a last resort.
type Operation[T any] func(index int, item T) Result

// Execute fans out one operation per item with at most workers running
// concurrently, collects every result, and restores input order. Workers is
// clamped to [1, 10]. A single-item batch runs synchronously on the calling
// goroutine. Each item is attempted exactly once; there is no cancellation
// and no early exit on failure.
func Execute[T any](items []T, workers int, op Operation[T]) Summary {
	workers = clampWorkers(workers)
	start := time.Now()

	results := make([]Result, 0, len(items))

	if len(items) == 1 {
		results = append(results, run(op, 0, items[0]))
	} else if len(items) > 1 {
		out := make(chan Result, len(items))
		sem := make(chan struct{}, workers)
		var wg sync.WaitGroup

		for i, item := range items {
			wg.Add(1)
			go func(index int, item T) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				out <- run(op, index, item)
			}(i, item)
		}

		wg.Wait()
		close(out)

		for r := range out {
			results = append(results, r)
		}
	}

	// Completion order is nondeterministic; restore submission order.
	sort.Slice(results, func(a, b int) bool { return results[a].Index < results[b].Index })

	return summarize(len(items), results, time.Since(start))
}

// run executes one operation, converting a panic into a failed result so a
// misbehaving operation cannot take down the batch.
func run[T any](op Operation[T], index int, item T) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Fail(index, fmt.Errorf("operation panicked: %v", r))
		}
	}()
	return op(index, item)
}

func summarize(total int, results []Result, elapsed time.Duration) Summary {
	successful := 0
	for _, r := range results {
		if r.Success {
			successful++
		}
	}

	return Summary{
		Total:                total,
		Successful:           successful,
		Failed:               total - successful,
		SuccessRate:          successRate(successful, total),
		ExecutionTimeSeconds: math.Round(elapsed.Seconds()*100) / 100,
		Results:              results,
	}
}

func successRate(successful, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(successful)/float64(total)*100)
}

func clampWorkers(n int) int {
	if n < minWorkers {
		return minWorkers
	}
	if n > maxWorkers {
		return maxWorkers
	}
	return n
}
