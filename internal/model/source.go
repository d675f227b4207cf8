package model

// Source represents one cited origin of evidence
type Source struct {
	SourceID           string     `json:"source_id"`                     // Unique within a report
	URL                string     `json:"url"`                           // Full URL of the source
	Title              string     `json:"title"`                         // Page or document title
	Author             string     `json:"author,omitempty"`              // Author if known
	PublicationDate    string     `json:"publication_date,omitempty"`    // Publication date if known
	SourceType         SourceType `json:"source_type"`                   // Classification of the origin
	CredibilityScore   float64    `json:"credibility_score"`             // Assessed credibility in [0,1]
	CredibilityFactors []string   `json:"credibility_factors,omitempty"` // Reasons behind the score
}

// SourceType classifies the origin of a source
type SourceType string

const (
	SourceOfficial SourceType = "official" // Government, standards bodies, official documents
	SourceAcademic SourceType = "academic" // Peer-reviewed papers, university publications
	SourceNews     SourceType = "news"     // News media
	SourceBlog     SourceType = "blog"     // Personal or company blogs
	SourceForum    SourceType = "forum"    // Discussion boards, Q&A sites
	SourceSocial   SourceType = "social"   // Social media posts
	SourceUnknown  SourceType = "unknown"  // Not classified
)

// Valid reports whether the source type is one of the seven accepted values
func (t SourceType) Valid() bool {
	switch t {
	case SourceOfficial, SourceAcademic, SourceNews, SourceBlog, SourceForum, SourceSocial, SourceUnknown:
		return true
	}
	return false
}

// Dispute represents a topic where sources disagree
type Dispute struct {
	Topic      string            `json:"topic"`      // What the disagreement is about
	Assessment string            `json:"assessment"` // Neutral reading of the dispute
	Positions  []DisputePosition `json:"positions"`  // The competing positions
}

// DisputePosition is one side of a dispute with its backers
type DisputePosition struct {
	Position           string   `json:"position"`
	SupportingSources  []string `json:"supporting_sources"` // source_id values
}

// WebSource is a raw grounding record returned by the search stage
type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// ValidationResult contains the result of checking a cited source link
type ValidationResult struct {
	URL          string `json:"url"`
	IsAccessible bool   `json:"is_accessible"`
	StatusCode   int    `json:"status_code,omitempty"`
	AgeDays      *int   `json:"age_days,omitempty"` // Days since Last-Modified, when the header is present
	IsStale      bool   `json:"is_stale"`           // > 1 year old
	IsVeryStale  bool   `json:"is_very_stale"`      // > 3 years old
	IsDead       bool   `json:"is_dead"`            // 404, 410, or timeout
	RedirectURL  string `json:"redirect_url,omitempty"`
	Error        string `json:"error,omitempty"`
}
