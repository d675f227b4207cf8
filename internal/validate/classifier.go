package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/factlens/factlens/internal/model"
)

// Classifier classifies source URLs into source types by domain and path.
// It back-fills entries the synthesis stage left as "unknown"; it never
// overrides a type the model committed to.
type Classifier struct {
	domainMap    map[string]model.SourceType
	pathPatterns []*compiledPattern
}

type compiledPattern struct {
	pattern *regexp.Regexp
	kind    model.SourceType
}

// NewClassifier creates a new classifier from configuration
func NewClassifier(config *model.ClassifierConfig) *Classifier {
	if config == nil {
		config = &model.DefaultConfig().Classifier
	}

	classifier := &Classifier{
		domainMap: make(map[string]model.SourceType),
	}

	addDomains := func(domains []string, kind model.SourceType) {
		for _, domain := range domains {
			classifier.domainMap[strings.ToLower(domain)] = kind
		}
	}
	addDomains(config.OfficialDomains, model.SourceOfficial)
	addDomains(config.AcademicDomains, model.SourceAcademic)
	addDomains(config.NewsDomains, model.SourceNews)
	addDomains(config.ForumDomains, model.SourceForum)
	addDomains(config.SocialDomains, model.SourceSocial)

	for _, pathPattern := range config.PathPatterns {
		re, err := regexp.Compile(pathPattern.Pattern)
		if err != nil {
			continue
		}
		kind := model.SourceType(strings.ToLower(pathPattern.Type))
		if !kind.Valid() {
			continue
		}
		classifier.pathPatterns = append(classifier.pathPatterns, &compiledPattern{
			pattern: re,
			kind:    kind,
		})
	}

	return classifier
}

// Classify classifies a URL into a source type
func (c *Classifier) Classify(rawURL string) model.SourceType {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return model.SourceUnknown
	}

	host := strings.ToLower(parsed.Hostname())

	// Exact domain match, then parent domain match
	if kind, ok := c.domainMap[host]; ok {
		return kind
	}
	for domain, kind := range c.domainMap {
		if strings.HasSuffix(host, "."+domain) {
			return kind
		}
	}

	// TLD heuristics for official and academic origins
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".mil") {
		return model.SourceOfficial
	}
	if strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return model.SourceAcademic
	}

	for _, cp := range c.pathPatterns {
		if cp.pattern.MatchString(parsed.Path) {
			return cp.kind
		}
	}

	return model.SourceUnknown
}

// Backfill classifies every source still typed unknown, in place
func (c *Classifier) Backfill(sources []model.Source) {
	for i := range sources {
		if sources[i].SourceType == model.SourceUnknown || sources[i].SourceType == "" {
			sources[i].SourceType = c.Classify(sources[i].URL)
		}
	}
}
