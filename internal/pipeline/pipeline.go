package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/factlens/factlens/internal/cache"
	"github.com/factlens/factlens/internal/llm"
	"github.com/factlens/factlens/internal/model"
	"github.com/factlens/factlens/internal/reconcile"
	"github.com/factlens/factlens/internal/research"
	"github.com/factlens/factlens/internal/score"
	"github.com/factlens/factlens/internal/validate"
	"github.com/factlens/factlens/internal/worker"
)

// State names a phase of the research flow. Transitions are
// IDLE → SEARCHING → SYNTHESIZING → DONE, with SEARCHING and
// SYNTHESIZING each able to move to FAILED. Failure is terminal:
// no stage is retried and the raw research prose is never surfaced
// as a fallback result.
type State string

const (
	StateIdle         State = "IDLE"
	StateSearching    State = "SEARCHING"
	StateSynthesizing State = "SYNTHESIZING"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)

// Pipeline orchestrates the complete research process
type Pipeline struct {
	searcher    llm.Searcher
	synthesizer llm.Synthesizer
	fetcher     *Fetcher
	reconciler  *reconcile.Reconciler
	classifier  *validate.Classifier
	validator   *validate.Validator // nil when link validation is disabled
	scorer      *score.Scorer
	store       cache.Cache // nil when caching is disabled
	config      *model.Config
	progress    func(State)
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, &research.ConfigError{
			Field:  "gemini.api_key",
			Reason: "not set; export GEMINI_API_KEY or add it to the config file",
		}
	}

	gemini, err := llm.NewGeminiClient(cfg.Gemini)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	synthesizer, err := llm.NewSynthesizer(llm.ConfigFromModel(cfg.Synthesis, cfg.HTTP), gemini)
	if err != nil {
		return nil, fmt.Errorf("create synthesizer: %w", err)
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			if home, err := os.UserHomeDir(); err == nil {
				dir = filepath.Join(home, ".factlens", "cache")
			}
		}
		if dir != "" {
			store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
		}
	}

	var validator *validate.Validator
	if cfg.Validation.Enabled {
		validator = validate.NewValidator(cfg.HTTP, cfg.Validation)
		if cfg.RateLimit.RequestsPerSecond > 0 {
			validator.SetLimiter(worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
		}
	}

	return &Pipeline{
		searcher:    gemini,
		synthesizer: synthesizer,
		fetcher:     NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, 1<<20),
		reconciler:  reconcile.NewReconciler(),
		classifier:  validate.NewClassifier(&cfg.Classifier),
		validator:   validator,
		scorer:      score.NewScorer(),
		store:       store,
		config:      cfg,
	}, nil
}

// NewWithCollaborators builds a pipeline around explicit search and
// synthesis collaborators. Caching and link validation are off.
func NewWithCollaborators(searcher llm.Searcher, synthesizer llm.Synthesizer, cfg *model.Config) *Pipeline {
	return &Pipeline{
		searcher:    searcher,
		synthesizer: synthesizer,
		reconciler:  reconcile.NewReconciler(),
		classifier:  validate.NewClassifier(&cfg.Classifier),
		scorer:      score.NewScorer(),
		config:      cfg,
	}
}

// SetProgress registers a callback invoked on every state transition
func (p *Pipeline) SetProgress(fn func(State)) {
	p.progress = fn
}

func (p *Pipeline) transition(s State) {
	if p.progress != nil {
		p.progress(s)
	}
	if p.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, "state: %s\n", s)
	}
}

// Result contains a completed research report plus reconciliation warnings
type Result struct {
	Report   *model.ResearchReport
	Warnings []string
	Cached   bool
}

// Research runs a full research request for the given query and depth.
// The voice flag asks the synthesis stage for a spoken-delivery summary
// alongside the structured report.
func (p *Pipeline) Research(ctx context.Context, query string, depth model.Depth, voice bool) (*Result, error) {
	instruction, err := research.DepthInstruction(depth)
	if err != nil {
		return nil, err
	}

	key := cache.ReportKey(query, string(depth))
	if p.store != nil {
		if data, found := p.store.Get(key); found {
			var report model.ResearchReport
			if err := json.Unmarshal(data, &report); err == nil {
				p.transition(StateDone)
				return &Result{Report: &report, Cached: true}, nil
			}
			// corrupt entry, drop and re-research
			_ = p.store.Delete(key)
		}
	}

	report, warnings, err := p.run(ctx, query, instruction, voice, "")
	if err != nil {
		return nil, err
	}

	if p.store != nil {
		if data, err := json.Marshal(report); err == nil {
			_ = p.store.Set(key, data, 0)
		}
	}

	return &Result{Report: report, Warnings: warnings}, nil
}

// TargetedVerify runs the research flow for a single follow-up claim
// raised during a live session. The resulting fragment carries claim
// and source ids under a fresh namespace so merging it into the main
// report cannot collide with existing ids. Fragments are never cached.
func (p *Pipeline) TargetedVerify(ctx context.Context, query string) (*Result, error) {
	namespace := uuid.NewString()[:8]

	instruction, err := research.DepthInstruction(model.DepthQuick)
	if err != nil {
		return nil, err
	}

	report, warnings, err := p.run(ctx, query, instruction, false, namespace)
	if err != nil {
		return nil, err
	}

	return &Result{Report: report, Warnings: warnings}, nil
}

// run executes SEARCHING → SYNTHESIZING → DONE for one query. A non-empty
// namespace switches to the tighter single-claim verification prompt.
func (p *Pipeline) run(ctx context.Context, query, instruction string, voice bool, namespace string) (*model.ResearchReport, []string, error) {
	p.transition(StateSearching)

	searchResult, err := p.searcher.Search(ctx, llm.SearchRequest{
		Query:       query,
		Instruction: instruction,
	})
	if err != nil {
		p.transition(StateFailed)
		return nil, nil, research.ClassifySearchError(err)
	}

	p.transition(StateSynthesizing)

	var prompt string
	if namespace != "" {
		prompt = research.BuildVerifyPrompt(query, searchResult.Prose, searchResult.WebSources, namespace)
	} else {
		prompt = research.BuildSynthesisPrompt(query, searchResult.Prose, searchResult.WebSources)
	}

	raw, err := p.synthesizer.Synthesize(ctx, llm.SynthesizeRequest{
		SystemPrompt: research.SynthesisSystemPrompt(voice),
		Prompt:       prompt,
		MaxTokens:    p.config.Synthesis.MaxTokens,
	})
	if err != nil {
		p.transition(StateFailed)
		return nil, nil, &research.SynthesisError{Err: err}
	}

	report, err := research.ParseReport(raw)
	if err != nil {
		p.transition(StateFailed)
		return nil, nil, &research.SynthesisError{Err: err}
	}

	warnings := p.assemble(ctx, report, query, searchResult)

	p.transition(StateDone)
	return report, warnings, nil
}

// assemble finalizes a parsed report: citation reconciliation, provenance
// trace, source type backfill, title backfill, scoring, and optional link
// validation.
func (p *Pipeline) assemble(ctx context.Context, report *model.ResearchReport, query string, sr *llm.SearchResult) []string {
	rec := p.reconciler.Reconcile(sr.Prose, sr.WebSources, report.Sources, report.Claims)
	report.Sources = rec.Sources
	report.Claims = rec.Claims

	report.Query = query
	report.Metadata.ResearchTimestamp = time.Now().UTC()
	report.GroundingTrace = &model.GroundingTrace{
		SearchQueries: sr.SearchQueries,
		WebSources:    sr.WebSources,
	}

	p.classifier.Backfill(report.Sources)
	p.backfillTitles(ctx, report.Sources)
	p.scorer.Apply(report)

	if p.validator != nil {
		results := p.validator.ValidateSources(ctx, report.Sources)
		validate.Annotate(report.Sources, results)
	}

	return rec.Warnings
}

// backfillTitles fetches page titles for sources that have a URL but no
// title. Failures are silent: a missing title never fails a report.
func (p *Pipeline) backfillTitles(ctx context.Context, sources []model.Source) {
	if p.fetcher == nil {
		return
	}
	for i := range sources {
		if sources[i].Title != "" || sources[i].URL == "" {
			continue
		}
		title, err := p.fetcher.FetchTitle(ctx, sources[i].URL)
		if err != nil {
			if p.config.Output.Verbose {
				fmt.Fprintf(os.Stderr, "title fetch failed for %s: %v\n", sources[i].URL, err)
			}
			continue
		}
		sources[i].Title = title
	}
}
