package domain

// AnomalyUnusualDuration flags a computed duration outside the
// configured unusual band. The record is still persisted.
const AnomalyUnusualDuration = "unusual_duration"

// SleepRecord holds the derived sleep metrics for one logical date.
// Duration and midpoint are present iff both bed and wake minutes are
// present and the computed duration is positive. Records are
// run-scoped values: created once, never mutated, superseded (not
// merged) by the next run's record for the same date.
type SleepRecord struct {
	// Logical date in YYYY-MM-DD
	Date string `json:"date"`
	// Bedtime in minutes after midnight, null when missing or unparseable
	BedMinutes *int `json:"bed_minutes"`
	// Wake time in minutes after midnight
	WakeMinutes *int `json:"wake_minutes"`
	// Sleep duration in minutes
	DurationMinutes *int `json:"duration_minutes"`
	// Sleep duration in hours, rounded to 2 decimals
	DurationHours *float64 `json:"duration_hours"`
	// Clock time halfway through the sleep period, minutes after midnight
	MidpointMinutes *int `json:"midpoint_minutes"`
	// Non-fatal anomaly marker, null when the record is unremarkable
	AnomalyFlag *string `json:"anomaly_flag"`
}

// Valid reports whether the record carries a usable duration.
func (r *SleepRecord) Valid() bool {
	return r.DurationMinutes != nil
}

// SleepSummary is the per-run rollup attached to downstream metadata
// as meta.sleepSummary. Optional fields are omitted entirely (never
// null) when their minimum-data requirements are not met. A run with
// no usable sleep data has no summary at all, which is normal.
type SleepSummary struct {
	// Most recent logical date with a valid duration
	LatestDate string `json:"latestDate"`
	// Duration in hours for that date
	LatestDurationH float64 `json:"latestDurationH"`
	// Mean duration over the trailing 7 days; requires >=3 valid days in the window
	Avg7dDurationH *float64 `json:"avg7dDurationH,omitempty"`
	// Latest midpoint minus the mean midpoint of the prior valid days;
	// plain linear difference, no circular wraparound correction
	MidpointTrendMin *float64 `json:"midpointTrendMin,omitempty"`
	// Valid-duration days over the full available history
	ValidDays int `json:"validDays"`
	// Metrics semantics version carried on every artifact
	MetricsVersion string `json:"metricsVersion"`
}

// PlausibleDuration reports whether a duration in minutes falls inside
// the wide validation band (distinct from the narrower anomaly band;
// the two are configured separately on purpose, see DESIGN.md).
func PlausibleDuration(minutes, lo, hi int) bool {
	return minutes >= lo && minutes <= hi
}
