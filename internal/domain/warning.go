package domain

// Warning codes for non-fatal conditions observed during a run. None
// of them affect the run's success status.
const (
	WarnDuplicateEntries    = "duplicate_entries"
	WarnNonPositiveDuration = "non_positive_duration"
	WarnUnusualDuration     = "unusual_duration"
	WarnComputeFailure      = "compute_failure"
)

// Warning records a best-effort degradation for one logical date.
type Warning struct {
	Code   string `json:"code"`
	Date   string `json:"date"`
	Detail string `json:"detail,omitempty"`
}
