package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/corroborate/internal/model"
)

// Fusion weights; they sum to 1
const (
	WeightCredibility = 0.35
	WeightSupport     = 0.30
	WeightCoverage    = 0.15
	WeightOSINT       = 0.20
)

const (
	verifiedAbove   = 0.75
	uncertainAbove  = 0.40
	coverageSources = 10
	lowCredibility  = 0.5
)

// NoEvidenceReason is the reasoning of a verdict with nothing to assess
const NoEvidenceReason = "No sources found to verify the claim."

// Input holds the per-claim assessments to fuse
type Input struct {
	Credibility  []float64 // One credibility score per assessed source
	Supporting   int
	Conflicting  int
	Neutral      int
	OSINTQuality float64 // Intelligence score of the evidence set, [0,1]
	Degraded     bool    // Evidence came from the synthetic fallback provider
}

// Total returns the number of categorized sources
func (in Input) Total() int {
	return in.Supporting + in.Conflicting + in.Neutral
}

// Result is the fused confidence with its transparent breakdown
type Result struct {
	Confidence float64
	Status     model.VerdictStatus
	Factors    model.ConfidenceFactors
	Signals    []model.Signal
	Reasoning  string
}

// Scorer fuses source assessments into a verdict confidence and generates signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate fuses the inputs:
// 0.35 x avg credibility + 0.30 x supporting/total + 0.15 x min(total/10, 1)
// + 0.20 x OSINT quality, clamped to [0,1].
func (s *Scorer) Calculate(in Input) Result {
	total := in.Total()
	if total == 0 {
		return s.noEvidence(in)
	}

	var signals []model.Signal

	// 1. Source credibility
	avgCred, credSignal := s.calculateCredibility(in.Credibility)
	signals = append(signals, credSignal)

	// 2. Supporting ratio
	support, supportSignal := s.calculateSupport(in.Supporting, total)
	signals = append(signals, supportSignal)

	// 3. Source quantity
	coverage, coverageSignal := s.calculateCoverage(total)
	signals = append(signals, coverageSignal)

	// 4. OSINT quality
	osintQuality := clamp(in.OSINTQuality)
	signals = append(signals, model.Signal{
		Type:        model.SignalOSINT,
		Severity:    severityBelow(osintQuality, 0.2, 0.4),
		Description: fmt.Sprintf("Intelligence score of the evidence set: %.2f", osintQuality),
		Data: map[string]interface{}{
			"intelligence_score": osintQuality,
			"weight":             WeightOSINT,
			"formula":            "0.25*source_diversity + 0.35*avg_relevance + 0.20*content_depth + 0.20*temporal_diversity",
		},
	})

	// 5. Diagnostics that do not change the score
	if sig, ok := s.detectConflict(in.Conflicting, total); ok {
		signals = append(signals, sig)
	}
	if sig, ok := s.detectLowCredibility(in.Credibility); ok {
		signals = append(signals, sig)
	}
	if in.Degraded {
		signals = append(signals, model.Signal{
			Type:        model.SignalDegraded,
			Severity:    model.SeverityCritical,
			Description: "Evidence came from the synthetic fallback provider; no real search provider answered",
			Data:        map[string]interface{}{"degraded": true},
		})
	}

	confidence := clamp(avgCred*WeightCredibility + support*WeightSupport + coverage*WeightCoverage + osintQuality*WeightOSINT)
	status := DetermineStatus(confidence)

	return Result{
		Confidence: round3(confidence),
		Status:     status,
		Factors: model.ConfidenceFactors{
			AverageCredibility: avgCred,
			SupportRatio:       support,
			Coverage:           coverage,
			OSINTQuality:       osintQuality,
			SupportingCount:    in.Supporting,
			ConflictingCount:   in.Conflicting,
			NeutralCount:       in.Neutral,
		},
		Signals:   signals,
		Reasoning: reasoning(status, in, avgCred),
	}
}

func (s *Scorer) noEvidence(in Input) Result {
	signals := []model.Signal{{
		Type:        model.SignalNoEvidence,
		Severity:    model.SeverityCritical,
		Description: "No sources were gathered for the claim",
		Data:        map[string]interface{}{"sources": 0},
	}}
	if in.Degraded {
		signals = append(signals, model.Signal{
			Type:        model.SignalDegraded,
			Severity:    model.SeverityCritical,
			Description: "No search provider answered",
			Data:        map[string]interface{}{"degraded": true},
		})
	}
	return Result{
		Status:    model.StatusUnverified,
		Signals:   signals,
		Reasoning: NoEvidenceReason,
	}
}

// calculateCredibility averages per-source credibility
func (s *Scorer) calculateCredibility(scores []float64) (float64, model.Signal) {
	if len(scores) == 0 {
		return 0, model.Signal{
			Type:        model.SignalCredibility,
			Severity:    model.SeverityWarning,
			Description: "No credibility data available",
			Data:        map[string]interface{}{"scored": 0},
		}
	}

	sum := 0.0
	for _, c := range scores {
		sum += clamp(c)
	}
	avg := sum / float64(len(scores))

	return avg, model.Signal{
		Type:        model.SignalCredibility,
		Severity:    severityBelow(avg, 0.4, 0.6),
		Description: fmt.Sprintf("Average source credibility: %.2f over %d sources", avg, len(scores)),
		Data: map[string]interface{}{
			"average": avg,
			"scored":  len(scores),
			"weight":  WeightCredibility,
			"formula": "sum(credibility) / sources",
		},
	}
}

// calculateSupport is the share of sources that support the claim
func (s *Scorer) calculateSupport(supporting, total int) (float64, model.Signal) {
	ratio := float64(supporting) / float64(total)

	return ratio, model.Signal{
		Type:        model.SignalSupport,
		Severity:    severityBelow(ratio, 0.25, 0.5),
		Description: fmt.Sprintf("Supporting sources: %d/%d (%.0f%%)", supporting, total, ratio*100),
		Data: map[string]interface{}{
			"supporting": supporting,
			"total":      total,
			"ratio":      ratio,
			"weight":     WeightSupport,
			"formula":    "supporting_count / total",
		},
	}
}

// calculateCoverage saturates at ten sources
func (s *Scorer) calculateCoverage(total int) (float64, model.Signal) {
	coverage := math.Min(float64(total)/coverageSources, 1)

	return coverage, model.Signal{
		Type:        model.SignalCoverage,
		Severity:    severityBelow(coverage, 0.2, 0.5),
		Description: fmt.Sprintf("Sources analysed: %d", total),
		Data: map[string]interface{}{
			"sources":  total,
			"coverage": coverage,
			"weight":   WeightCoverage,
			"formula":  "min(total / 10, 1)",
		},
	}
}

// detectConflict flags sources that contradict the claim
func (s *Scorer) detectConflict(conflicting, total int) (model.Signal, bool) {
	if conflicting == 0 {
		return model.Signal{}, false
	}

	severity := model.SeverityWarning
	if conflicting*2 >= total {
		severity = model.SeverityCritical
	}
	return model.Signal{
		Type:        model.SignalConflict,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d sources present conflicting information", conflicting, total),
		Data: map[string]interface{}{
			"conflicting": conflicting,
			"total":       total,
			"rule":        "semantic_similarity < 0.3",
		},
	}, true
}

// detectLowCredibility flags evidence sets where most sources score under 0.5
func (s *Scorer) detectLowCredibility(scores []float64) (model.Signal, bool) {
	low := 0
	for _, c := range scores {
		if c < lowCredibility {
			low++
		}
	}
	if len(scores) == 0 || low*2 <= len(scores) {
		return model.Signal{}, false
	}
	return model.Signal{
		Type:        model.SignalLowCredibility,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%d of %d sources score below %.1f credibility", low, len(scores), lowCredibility),
		Data: map[string]interface{}{
			"low":       low,
			"total":     len(scores),
			"threshold": lowCredibility,
		},
	}, true
}

// DetermineStatus maps a confidence to a verdict status
func DetermineStatus(confidence float64) model.VerdictStatus {
	switch {
	case confidence > verifiedAbove:
		return model.StatusVerified
	case confidence > uncertainAbove:
		return model.StatusUncertain
	default:
		return model.StatusUnverified
	}
}

func reasoning(status model.VerdictStatus, in Input, avgCred float64) string {
	var text string
	switch status {
	case model.StatusVerified:
		text = fmt.Sprintf("Claim verified with high confidence. Found %d supporting sources with average credibility of %.2f.",
			in.Supporting, avgCred)
	case model.StatusUncertain:
		text = fmt.Sprintf("Claim partially verified with medium confidence. Mixed evidence from %d sources (%d supporting, average credibility %.2f).",
			in.Total(), in.Supporting, avgCred)
	default:
		text = fmt.Sprintf("Claim unverified with low confidence. Insufficient supporting evidence found (%d of %d sources supporting, average credibility %.2f).",
			in.Supporting, in.Total(), avgCred)
	}
	if in.Conflicting > 0 {
		text += fmt.Sprintf(" Warning: %d sources present conflicting information.", in.Conflicting)
	}
	if in.Degraded {
		text += " Evidence is synthetic: no search provider returned results."
	}
	return text
}

func severityBelow(v, critical, warning float64) model.SignalSeverity {
	switch {
	case v < critical:
		return model.SeverityCritical
	case v < warning:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
