package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/factlens/factlens/internal/model"
	"github.com/factlens/factlens/internal/util"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// RateLimiter gates outbound requests per target host
type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Validator checks cited source links concurrently: accessibility via HEAD
// requests, staleness via Last-Modified. Validation is advisory - it folds
// into credibility_factors and never blocks report production.
type Validator struct {
	httpClient *http.Client
	userAgent  string
	maxWorkers int
	robots     *util.RobotsChecker
	limiter    RateLimiter
}

// SetLimiter installs a per-host rate limiter applied before each check
func (v *Validator) SetLimiter(l RateLimiter) {
	v.limiter = l
}

// NewValidator creates a new validator
func NewValidator(cfg model.HTTPConfig, vcfg model.ValidationConfig) *Validator {
	maxWorkers := vcfg.Workers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	var robots *util.RobotsChecker
	if vcfg.CheckRobots {
		robots = util.NewRobotsChecker(cfg.UserAgent, timeout)
	}

	return &Validator{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:  cfg.UserAgent,
		maxWorkers: maxWorkers,
		robots:     robots,
	}
}

// ValidateSources checks all report sources concurrently
func (v *Validator) ValidateSources(ctx context.Context, sources []model.Source) []model.ValidationResult {
	if len(sources) == 0 {
		return []model.ValidationResult{}
	}

	results := make([]model.ValidationResult, len(sources))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, v.maxWorkers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, url string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.ValidationResult{
					URL:          url,
					IsAccessible: false,
					Error:        "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			if v.limiter != nil {
				if err := v.limiter.Wait(ctx, url); err != nil {
					results[idx] = model.ValidationResult{
						URL:          url,
						IsAccessible: false,
						Error:        fmt.Sprintf("rate limit wait: %v", err),
					}
					return
				}
			}

			results[idx] = v.validateSingleWithRetry(ctx, url)
		}(i, src.URL)
	}

	wg.Wait()
	return results
}

// Annotate folds validation results into each source's credibility_factors.
// results must be index-aligned with sources.
func Annotate(sources []model.Source, results []model.ValidationResult) {
	for i := range sources {
		if i >= len(results) {
			return
		}
		r := results[i]
		switch {
		case r.IsDead:
			sources[i].CredibilityFactors = append(sources[i].CredibilityFactors, "cited link is dead or unreachable")
		case r.IsVeryStale:
			sources[i].CredibilityFactors = append(sources[i].CredibilityFactors, "cited page content is more than 3 years old")
		case r.IsStale:
			sources[i].CredibilityFactors = append(sources[i].CredibilityFactors, "cited page content is more than 1 year old")
		case r.IsAccessible:
			sources[i].CredibilityFactors = append(sources[i].CredibilityFactors, "cited link verified reachable")
		}
	}
}

// validateSingle checks a single source link
func (v *Validator) validateSingle(ctx context.Context, rawURL string) model.ValidationResult {
	result := model.ValidationResult{
		URL:          rawURL,
		IsAccessible: false,
	}

	if v.robots != nil && !v.robots.IsAllowed(ctx, rawURL) {
		result.Error = "disallowed by robots.txt"
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.IsDead = true
		return result
	}

	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.IsDead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.IsAccessible = true
	} else if resp.StatusCode == 404 || resp.StatusCode == 410 {
		result.IsDead = true
	}

	if resp.Request.URL.String() != rawURL {
		result.RedirectURL = resp.Request.URL.String()
	}

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		if t, err := time.Parse(time.RFC1123, lastModified); err == nil {
			ageDays := int(time.Since(t).Hours() / 24)
			result.AgeDays = &ageDays

			if ageDays > 365 {
				result.IsStale = true
			}
			if ageDays > 365*3 {
				result.IsVeryStale = true
			}
		}
	}

	return result
}

// validateSingleWithRetry retries transient failures with exponential backoff
func (v *Validator) validateSingleWithRetry(ctx context.Context, rawURL string) model.ValidationResult {
	var result model.ValidationResult
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		result = v.validateSingle(ctx, rawURL)
		if !isRetryableValidationResult(result) {
			return result
		}
		if attempt < validateMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			validateSleepFunc(backoff)
		}
	}
	return result
}

// isRetryableValidationResult returns true for results that indicate transient failures
func isRetryableValidationResult(result model.ValidationResult) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == 429 {
		return true
	}
	if result.Error != "" && isRetryableNetworkError(result.Error) {
		return true
	}
	return false
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
