package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/factlens/factlens/internal/model"
	"github.com/factlens/factlens/internal/pipeline"
	"github.com/factlens/factlens/internal/render"
	"github.com/factlens/factlens/internal/research"
)

var (
	depthFlag     string
	voiceFlag     bool
	outJSON       string
	outMD         string
	timeout       time.Duration
	noCache       bool
	noFooter      bool
	validateLinks bool
	synthProvider string
	synthModel    string
)

// researchCmd represents the research command
var researchCmd = &cobra.Command{
	Use:   "research <query>",
	Short: "Research a question and produce a cited fact-check report",
	Long: `Research runs the full two-stage pipeline for one question:
- Search-grounded research collects prose and raw web sources
- Structured synthesis produces atomic claims with citations
- Citation reconciliation ties claims to deduplicated sources
- Each claim carries a verification status and confidence

Example:
  factlens research "Did the Wright brothers fly in 1903?"
  factlens research "Is the Great Barrier Reef recovering?" --depth deep --md report.md
  factlens research "Was Rosalind Franklin nominated for a Nobel Prize?" --validate-links`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	rootCmd.AddCommand(researchCmd)

	researchCmd.Flags().StringVar(&depthFlag, "depth", "standard", "research depth (quick, standard, deep)")
	researchCmd.Flags().BoolVar(&voiceFlag, "voice", false, "include a short spoken-delivery summary in the report")

	// Output flags
	researchCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	researchCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	researchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	researchCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall research timeout")
	researchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable report cache (force fresh research)")
	researchCmd.Flags().BoolVar(&validateLinks, "validate-links", false, "check cited links for accessibility and staleness")

	// Synthesis provider flags
	researchCmd.Flags().StringVar(&synthProvider, "synthesis-provider", "", "synthesis provider (gemini, openai, ollama; default gemini)")
	researchCmd.Flags().StringVar(&synthModel, "synthesis-model", "", "synthesis model name")
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := buildResearchConfig()

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return userError(err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Researching: %s\n", query)
		fmt.Fprintf(os.Stderr, "Depth: %s\n", depthFlag)
		fmt.Fprintln(os.Stderr)
		p.SetProgress(func(s pipeline.State) {
			fmt.Fprintf(os.Stderr, "⚙️  %s\n", s)
		})
	}

	result, err := p.Research(ctx, query, model.Depth(depthFlag), voiceFlag)
	if err != nil {
		return userError(err)
	}

	if verbose && result.Cached {
		fmt.Fprintln(os.Stderr, "✓ Served from cache")
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	return renderReport(result.Report, cfg)
}

// buildResearchConfig layers the research flags over the loaded config
func buildResearchConfig() *model.Config {
	cfg := loadConfig()
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache
	cfg.Output.IncludeFooter = cfg.Output.IncludeFooter && !noFooter
	cfg.Validation.Enabled = cfg.Validation.Enabled || validateLinks

	if synthProvider != "" {
		cfg.Synthesis.Provider = synthProvider
	}
	if synthModel != "" {
		cfg.Synthesis.Model = synthModel
	}
	if cfg.Synthesis.Provider == "openai" && cfg.Synthesis.APIKey == "" {
		cfg.Synthesis.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg
}

// renderReport writes the requested projections and prints the summary
func renderReport(report *model.ResearchReport, cfg *model.Config) error {
	renderer := render.NewRenderer(cfg.Output.IncludeFooter)

	if outJSON != "" {
		if outJSON == "-" {
			if err := renderer.WriteJSON(os.Stdout, report); err != nil {
				return err
			}
		} else {
			if err := renderer.RenderJSON(report, outJSON); err != nil {
				return err
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
			}
		}
	}

	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	if outJSON != "-" {
		renderer.RenderSummary(report)
	}
	return nil
}

// userError swaps known pipeline failures for their user-facing message
func userError(err error) error {
	var configErr *research.ConfigError
	if errors.As(err, &configErr) {
		return fmt.Errorf("%s", configErr.Error())
	}
	var noContent *research.NoContentError
	if errors.As(err, &noContent) {
		return fmt.Errorf("%s", noContent.UserMessage())
	}
	var synthesis *research.SynthesisError
	if errors.As(err, &synthesis) {
		return fmt.Errorf("%s", synthesis.UserMessage())
	}
	return err
}
