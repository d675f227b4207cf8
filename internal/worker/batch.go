package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/factlens/factlens/internal/model"
)

// Researcher defines the interface for running one research request.
// It returns the finished report plus any reconciliation warnings.
type Researcher interface {
	Research(ctx context.Context, query string, depth model.Depth) (*model.ResearchReport, []string, error)
}

// ResearchJob represents a single research query job
type ResearchJob struct {
	Query      string
	Depth      model.Depth
	Researcher Researcher
}

// Execute executes the research job
func (j *ResearchJob) Execute(ctx context.Context) Result {
	report, warnings, err := j.Researcher.Research(ctx, j.Query, j.Depth)
	if err != nil {
		return &ResearchResult{
			Query: j.Query,
			Error: err,
		}
	}
	return &ResearchResult{
		Query:    j.Query,
		Report:   report,
		Warnings: warnings,
	}
}

// ResearchResult represents the result of a research job
type ResearchResult struct {
	Query    string
	Report   *model.ResearchReport
	Warnings []string
	Error    error
}

// GetError returns the error from the research result
func (r *ResearchResult) GetError() error {
	return r.Error
}

// BatchProcessor runs multiple research queries concurrently
type BatchProcessor struct {
	researcher  Researcher
	depth       model.Depth
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(researcher Researcher, depth model.Depth, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		researcher:  researcher,
		depth:       depth,
		concurrency: concurrency,
	}
}

// ProcessQueries runs the given queries concurrently
func (b *BatchProcessor) ProcessQueries(ctx context.Context, queries []string) []*ResearchResult {
	if len(queries) == 0 {
		return []*ResearchResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, query := range queries {
		pool.Submit(&ResearchJob{
			Query:      query,
			Depth:      b.depth,
			Researcher: b.researcher,
		})
	}

	results := pool.Wait()

	researchResults := make([]*ResearchResult, len(results))
	for i, result := range results {
		researchResults[i] = result.(*ResearchResult)
	}

	return researchResults
}

// ProcessFile reads queries from a file and runs them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ResearchResult, error) {
	queries, err := ReadQueriesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}

	return b.ProcessQueries(ctx, queries), nil
}

// ReadQueriesFromFile reads research queries from a file (one per line)
func ReadQueriesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var queries []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate queries
		if !seen[line] {
			seen[line] = true
			queries = append(queries, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return queries, nil
}
