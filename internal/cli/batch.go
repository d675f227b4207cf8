package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/factlens/factlens/internal/model"
	"github.com/factlens/factlens/internal/pipeline"
	"github.com/factlens/factlens/internal/render"
	"github.com/factlens/factlens/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchDepth   string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Research multiple questions from a file in parallel",
	Long: `Batch runs multiple research questions concurrently:
- Read questions from the input file (one per line, # comments skipped)
- Process questions in parallel with a configurable worker count
- Generate a JSON and Markdown report per question

Example:
  factlens batch questions.txt
  factlens batch questions.txt --concurrency 4 --output-dir ./reports
  factlens batch questions.txt --depth quick --timeout 15m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./factlens-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&batchDepth, "depth", "quick", "research depth for every question (quick, standard, deep)")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable report cache")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

// batchResearcher adapts the pipeline to the batch worker interface
type batchResearcher struct {
	p *pipeline.Pipeline
}

func (b *batchResearcher) Research(ctx context.Context, query string, depth model.Depth) (*model.ResearchReport, []string, error) {
	result, err := b.p.Research(ctx, query, depth, false)
	if err != nil {
		return nil, nil, err
	}
	return result.Report, result.Warnings, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := loadConfig()
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache
	cfg.Output.IncludeFooter = cfg.Output.IncludeFooter && !noFooter

	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Depth:        %s\n", batchDepth)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintln(os.Stderr)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return userError(err)
	}

	processor := worker.NewBatchProcessor(&batchResearcher{p: p}, model.Depth(batchDepth), concurrency)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := render.NewRenderer(cfg.Output.IncludeFooter)
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Query, userError(result.Error))
			continue
		}

		successCount++

		slug := sanitizeFilename(result.Query)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Query, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Query, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s (%d claims, %.0f%% verified)\n",
			result.Query, result.Report.Metadata.ClaimsExtracted, result.Report.Metadata.VerificationRate*100)
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "  Total:     %d questions\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)

	return nil
}

// sanitizeFilename turns a query into a safe file slug
func sanitizeFilename(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > 100 {
		slug = slug[:100]
	}
	if slug == "" {
		slug = "report"
	}
	return slug
}
