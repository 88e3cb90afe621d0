package model

import "time"

// Verdict is the final structured output of claim verification.
// It is created once per verify call and never mutated afterwards.
type Verdict struct {
	ID              string         `json:"verification_id"`
	Claim           string         `json:"claim"`
	Confidence      float64        `json:"confidence"` // Fused confidence in [0,1]
	Status          VerdictStatus  `json:"status"`
	Level           Level          `json:"verification_level"`
	Evidence        EvidenceBundle `json:"evidence"`
	Reasoning       string         `json:"reasoning"`
	SourcesAnalyzed int            `json:"sources_analyzed"`
	ProcessingTime  time.Duration  `json:"processing_time"`
	Credits         int            `json:"credits_used"`
	CreatedAt       time.Time      `json:"created_at"`
	Degraded        bool           `json:"degraded"` // Evidence came from the synthetic fallback provider
	Signals         []Signal       `json:"signals"`  // Transparent breakdown of the confidence fusion

	LLM *LLMNarrative `json:"llm,omitempty"` // Optional narrative (separate, never affects confidence)
}

// VerdictStatus is the verdict classification
type VerdictStatus string

const (
	StatusVerified   VerdictStatus = "verified"
	StatusUncertain  VerdictStatus = "uncertain"
	StatusUnverified VerdictStatus = "unverified"
	StatusProcessing VerdictStatus = "processing"
	StatusFailed     VerdictStatus = "failed"
)

// Level selects the research depth of a verification
type Level string

const (
	LevelFast     Level = "fast"
	LevelStandard Level = "standard"
	LevelDeep     Level = "deep"
)

// LevelTier is the gather configuration and cost of a verification level
type LevelTier struct {
	Depth      int
	MaxResults int
	Credits    int
}

var levelTiers = map[Level]LevelTier{
	LevelFast:     {Depth: 2, MaxResults: 5, Credits: 1},
	LevelStandard: {Depth: 3, MaxResults: 10, Credits: 3},
	LevelDeep:     {Depth: 5, MaxResults: 20, Credits: 10},
}

// Tier returns the tier for a level
func (l Level) Tier() (LevelTier, bool) {
	t, ok := levelTiers[l]
	return t, ok
}

// EvidenceBundle groups the assessed sources by stance toward the claim
type EvidenceBundle struct {
	Supporting  []SourceAssessment `json:"supporting_sources"`
	Conflicting []SourceAssessment `json:"conflicting_sources"`
	Neutral     []SourceAssessment `json:"neutral_sources"`
	Factors     ConfidenceFactors  `json:"factors"`
	OSINT       *OSINTSummary      `json:"osint_analysis,omitempty"`
}

// SourceAssessment is one evidence source scored against a claim
type SourceAssessment struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Similarity  float64 `json:"semantic_similarity"`
	Credibility float64 `json:"credibility_score"`
	TrustLevel  string  `json:"trust_level"`
	Relevance   float64 `json:"relevance_score"`
	Excerpt     string  `json:"excerpt,omitempty"`
}

// ConfidenceFactors are the inputs of the confidence fusion
type ConfidenceFactors struct {
	AverageCredibility float64 `json:"avg_credibility"`
	SupportRatio       float64 `json:"support_ratio"`
	Coverage           float64 `json:"coverage"`
	OSINTQuality       float64 `json:"osint_quality"`
	SupportingCount    int     `json:"supporting_count"`
	ConflictingCount   int     `json:"conflicting_count"`
	NeutralCount       int     `json:"neutral_count"`
}

// OSINTSummary is the OSINT section embedded in a verdict
type OSINTSummary struct {
	IntelligenceScore float64  `json:"intelligence_score"`
	Quality           string   `json:"quality"`
	Communities       int      `json:"communities"`
	CentralEntities   []string `json:"central_entities,omitempty"`
	TimelineClusters  int      `json:"timeline_clusters"`
	SentimentTrend    string   `json:"sentiment_trend,omitempty"`
	TopLocations      []string `json:"top_locations,omitempty"`
	Recommendations   []string `json:"recommendations,omitempty"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`           // Signal classification
	Severity    SignalSeverity         `json:"severity"`       // info, warning, critical
	Description string                 `json:"description"`    // Human-readable description
	Data        map[string]interface{} `json:"data,omitempty"` // Transparent scoring data (formulas, inputs)
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalCredibility    SignalType = "credibility"     // Average source credibility
	SignalSupport        SignalType = "support"         // Supporting-source ratio
	SignalCoverage       SignalType = "coverage"        // Number of sources analysed
	SignalOSINT          SignalType = "osint_quality"   // Intelligence score of the result set
	SignalConflict       SignalType = "conflict"        // Sources contradicting the claim
	SignalDegraded       SignalType = "degraded"        // Synthetic fallback evidence
	SignalNoEvidence     SignalType = "no_evidence"     // Nothing to assess
	SignalLowCredibility SignalType = "low_credibility" // Majority of sources below the trust bar
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// LLMNarrative contains an optional LLM-written explanation of a verdict.
// It never affects confidence or status.
type LLMNarrative struct {
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
	Text     string   `json:"text,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
