package osint

import (
	"math"
	"sort"
)

const (
	minNumericPoints = 3
	trendShare       = 0.6
	maxCyclePeriod   = 20
	cycleTolerance   = 0.1
	zScoreThreshold  = 2.0
)

// Numeric trend labels
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
)

// NumericAnomaly is a value more than two standard deviations from the mean
type NumericAnomaly struct {
	Index     int     `json:"index"`
	Value     float64 `json:"value"`
	ZScore    float64 `json:"z_score"`
	Deviation string  `json:"deviation"` // high or low
}

// NumericStats are basic descriptive statistics
type NumericStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Range  float64 `json:"range"`
}

// NumericPatterns is the result of DetectNumericPatterns
type NumericPatterns struct {
	Trend     string           `json:"trend"`
	Cycles    []int            `json:"cycles"`
	Anomalies []NumericAnomaly `json:"anomalies"`
	Stats     NumericStats     `json:"statistics"`
}

// DetectNumericPatterns reports trend, cycle periods, anomalies and
// statistics. It returns false for fewer than three values.
func DetectNumericPatterns(values []float64) (NumericPatterns, bool) {
	if len(values) < minNumericPoints {
		return NumericPatterns{}, false
	}

	m, std := meanStd(values)
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return NumericPatterns{
		Trend:     numericTrend(values),
		Cycles:    cycles(values),
		Anomalies: numericAnomalies(values, m, std),
		Stats: NumericStats{
			Mean:   m,
			Median: sorted[len(sorted)/2],
			StdDev: std,
			Range:  sorted[len(sorted)-1] - sorted[0],
		},
	}, true
}

// numericTrend is increasing or decreasing when more than 60% of steps move
// that way, stable otherwise
func numericTrend(values []float64) string {
	steps := len(values) - 1
	up, down := 0, 0
	for i := 1; i < len(values); i++ {
		switch {
		case values[i] > values[i-1]:
			up++
		case values[i] < values[i-1]:
			down++
		}
	}
	switch {
	case float64(up) > trendShare*float64(steps):
		return TrendIncreasing
	case float64(down) > trendShare*float64(steps):
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// cycles returns periods p in [2, min(n/2, 20)) where every value is within
// 10% of the value p positions later
func cycles(values []float64) []int {
	out := []int{}
	limit := len(values) / 2
	if limit > maxCyclePeriod {
		limit = maxCyclePeriod
	}
	for period := 2; period < limit; period++ {
		cyclic := true
		for i := 0; i+period < len(values); i++ {
			if math.Abs(values[i]-values[i+period]) > cycleTolerance*math.Abs(values[i]) {
				cyclic = false
				break
			}
		}
		if cyclic {
			out = append(out, period)
		}
	}
	return out
}

func numericAnomalies(values []float64, m, std float64) []NumericAnomaly {
	out := []NumericAnomaly{}
	if std == 0 {
		return out
	}
	for i, v := range values {
		z := math.Abs(v-m) / std
		if z <= zScoreThreshold {
			continue
		}
		dev := "low"
		if v > m {
			dev = "high"
		}
		out = append(out, NumericAnomaly{Index: i, Value: v, ZScore: round(z, 2), Deviation: dev})
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// meanStd returns the mean and population standard deviation
func meanStd(xs []float64) (float64, float64) {
	m := mean(xs)
	if len(xs) == 0 {
		return 0, 0
	}
	variance := 0.0
	for _, x := range xs {
		variance += (x - m) * (x - m)
	}
	return m, math.Sqrt(variance / float64(len(xs)))
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
