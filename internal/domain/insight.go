package domain

// Metric names used in the daily metric table. Activity indicators use
// the activity name itself.
const (
	MetricMood          = "mood"
	MetricEnergy        = "energy"
	MetricWellbeing     = "wellbeing"
	MetricSleepDuration = "sleep_duration"
	MetricSleepQuality  = "sleep_quality"
	MetricScreenMinutes = "screen_minutes"
)

// DayMetrics is one row of the daily metric table consumed by the
// insight engine: continuous metrics keyed by name plus the set of
// activities logged that day.
type DayMetrics struct {
	Date       string
	Values     map[string]float64
	Activities []string
}

// InsightCandidate is a hypothesized predictor→next-day-outcome
// relationship that survived significance filtering.
type InsightCandidate struct {
	// Predictor metric or activity name
	Predictor string `json:"predictor"`
	// Next-day outcome metric
	Outcome string `json:"outcome"`
	// Correlation coefficient (point-biserial for activities)
	EffectSize float64 `json:"effect_size"`
	// Overlapping valid days behind the statistic
	SampleSize int `json:"sample_size"`
	// Two-sided p-value
	PValue float64 `json:"p_value"`
	// Confidence framing derived from the p-value
	Confidence string `json:"confidence"`
	// Plain-language template filled with the numeric effect
	Summary string `json:"summary"`
}

// InsightSet is the ranked top-K insights for a run, ordered by
// absolute effect size descending. It may hold fewer than K entries;
// non-significant candidates are never used as padding.
type InsightSet []InsightCandidate
