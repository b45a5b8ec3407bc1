package domain

import "time"

// RawEntry is one diary submission as it arrives from the survey
// source. Entries are immutable once ingested; all derived values are
// recomputed from scratch each run.
type RawEntry struct {
	// Wall-clock submission time, used to attribute the entry to a logical date
	Timestamp time.Time `json:"timestamp" validate:"required"`
	// Bedtime as typed by the user, one of HHMM/HMM/HH:MM/H:MM or empty
	BedtimeRaw string `json:"bedtime_raw"`
	// Wake time in the same formats
	WakeTimeRaw string `json:"wake_time_raw"`
	// Activities logged for the day
	Activities []string `json:"activities,omitempty"`
	// Mood rating 1-10
	Mood *int `json:"mood,omitempty" validate:"omitempty,min=1,max=10"`
	// Energy rating 1-10
	Energy *int `json:"energy,omitempty" validate:"omitempty,min=1,max=10"`
	// Subjective sleep quality 1-10
	SleepQuality *int `json:"sleep_quality,omitempty" validate:"omitempty,min=1,max=10"`
	// Screen time in minutes
	ScreenMinutes *float64 `json:"screen_minutes,omitempty" validate:"omitempty,min=0"`
}

// DateLayout is the canonical logical-date format used across records
// and artifacts.
const DateLayout = "2006-01-02"

// LogicalDate assigns an entry to a calendar day. Entries submitted
// before the cutoff hour describe the previous day (a 01:30 entry
// belongs to yesterday's diary, not today's).
func LogicalDate(ts time.Time, cutoffHour int) string {
	if ts.Hour() < cutoffHour {
		ts = ts.AddDate(0, 0, -1)
	}
	return ts.Format(DateLayout)
}
