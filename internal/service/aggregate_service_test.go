package service

import (
	"context"
	"testing"

	"github.com/mlenart/diary-insights/internal/domain"
)

// record builds a valid SleepRecord for tests. Midpoint defaults to
// bed + duration/2 like the calculator produces.
func record(date string, bed, duration int) domain.SleepRecord {
	hours := float64(duration) / 60
	hours = float64(int(hours*100+0.5)) / 100
	midpoint := ((2*bed + duration + 1) / 2) % 1440
	return domain.SleepRecord{
		Date:            date,
		BedMinutes:      &bed,
		DurationMinutes: &duration,
		DurationHours:   &hours,
		MidpointMinutes: &midpoint,
	}
}

func emptyRecord(date string) domain.SleepRecord {
	return domain.SleepRecord{Date: date}
}

func TestAggregateService_NoUsableData(t *testing.T) {
	svc := NewAggregateService(testConfig())

	// No records at all, and records without durations: both yield no
	// summary, which is a normal outcome rather than an error.
	if s := svc.Summarize(context.Background(), nil); s != nil {
		t.Fatalf("summary for empty history = %+v, want nil", s)
	}
	records := []domain.SleepRecord{emptyRecord("2024-01-15"), emptyRecord("2024-01-16")}
	if s := svc.Summarize(context.Background(), records); s != nil {
		t.Fatalf("summary without valid durations = %+v, want nil", s)
	}
}

func TestAggregateService_WindowAverageThreshold(t *testing.T) {
	svc := NewAggregateService(testConfig())

	// Two valid days in the trailing window: average absent entirely.
	records := []domain.SleepRecord{
		record("2024-01-15", 1410, 480),
		record("2024-01-16", 1410, 420),
	}
	s := svc.Summarize(context.Background(), records)
	if s == nil {
		t.Fatal("summary missing")
	}
	if s.Avg7dDurationH != nil {
		t.Errorf("avg7dDurationH = %v, want absent with only 2 valid days", *s.Avg7dDurationH)
	}

	// Third valid day crosses the threshold.
	records = append(records, record("2024-01-17", 1380, 450))
	s = svc.Summarize(context.Background(), records)
	if s.Avg7dDurationH == nil {
		t.Fatal("avg7dDurationH absent with 3 valid days in the window")
	}
	// (8.0 + 7.0 + 7.5) / 3 = 7.5
	if *s.Avg7dDurationH != 7.5 {
		t.Errorf("avg7dDurationH = %v, want 7.5", *s.Avg7dDurationH)
	}
}

func TestAggregateService_WindowExcludesOldDays(t *testing.T) {
	svc := NewAggregateService(testConfig())

	// Two valid days fall inside the trailing 7 days; the third is 10
	// days old. The window count is 2, so the average must be absent
	// even though history has 3 valid days.
	records := []domain.SleepRecord{
		record("2024-01-06", 1410, 600),
		record("2024-01-15", 1410, 480),
		record("2024-01-16", 1410, 420),
	}
	s := svc.Summarize(context.Background(), records)
	if s == nil {
		t.Fatal("summary missing")
	}
	if s.Avg7dDurationH != nil {
		t.Errorf("avg7dDurationH = %v, want absent (old day outside window)", *s.Avg7dDurationH)
	}
	if s.ValidDays != 3 {
		t.Errorf("validDays = %d, want 3 (full history, not windowed)", s.ValidDays)
	}
}

func TestAggregateService_LatestAnchorsSummary(t *testing.T) {
	svc := NewAggregateService(testConfig())

	// The trailing record has no duration; the summary anchors on the
	// most recent valid one.
	records := []domain.SleepRecord{
		record("2024-01-14", 1410, 480),
		record("2024-01-15", 1410, 450),
		emptyRecord("2024-01-16"),
	}
	s := svc.Summarize(context.Background(), records)
	if s == nil {
		t.Fatal("summary missing")
	}
	if s.LatestDate != "2024-01-15" {
		t.Errorf("latestDate = %s, want 2024-01-15", s.LatestDate)
	}
	if s.LatestDurationH != 7.5 {
		t.Errorf("latestDurationH = %v, want 7.5", s.LatestDurationH)
	}
	if s.MetricsVersion != "m1" {
		t.Errorf("metricsVersion = %s, want m1", s.MetricsVersion)
	}
}

func TestAggregateService_MidpointTrend(t *testing.T) {
	svc := NewAggregateService(testConfig())

	// Three prior valid days with midpoints 180, 190, 200 (mean 190),
	// latest midpoint 220: trend = +30.
	records := []domain.SleepRecord{
		recordWithMidpoint("2024-01-13", 480, 180),
		recordWithMidpoint("2024-01-14", 480, 190),
		recordWithMidpoint("2024-01-15", 480, 200),
		recordWithMidpoint("2024-01-16", 480, 220),
	}
	s := svc.Summarize(context.Background(), records)
	if s == nil {
		t.Fatal("summary missing")
	}
	if s.MidpointTrendMin == nil {
		t.Fatal("midpointTrendMin absent with 3 prior valid days")
	}
	if *s.MidpointTrendMin != 30 {
		t.Errorf("midpointTrendMin = %v, want 30", *s.MidpointTrendMin)
	}
}

func TestAggregateService_MidpointTrendRequiresThreePriorDays(t *testing.T) {
	svc := NewAggregateService(testConfig())

	records := []domain.SleepRecord{
		recordWithMidpoint("2024-01-14", 480, 190),
		recordWithMidpoint("2024-01-15", 480, 200),
		recordWithMidpoint("2024-01-16", 480, 220),
	}
	s := svc.Summarize(context.Background(), records)
	if s == nil {
		t.Fatal("summary missing")
	}
	if s.MidpointTrendMin != nil {
		t.Errorf("midpointTrendMin = %v, want absent with only 2 prior days", *s.MidpointTrendMin)
	}
}

func TestAggregateService_MidpointTrendNoWraparound(t *testing.T) {
	svc := NewAggregateService(testConfig())

	// Prior midpoints around 23:50 (1430), latest at 00:10 (10). The
	// linear difference is -1420, deliberately uncorrected for the
	// midnight wrap.
	records := []domain.SleepRecord{
		recordWithMidpoint("2024-01-13", 480, 1430),
		recordWithMidpoint("2024-01-14", 480, 1430),
		recordWithMidpoint("2024-01-15", 480, 1430),
		recordWithMidpoint("2024-01-16", 480, 10),
	}
	s := svc.Summarize(context.Background(), records)
	if s == nil || s.MidpointTrendMin == nil {
		t.Fatal("summary or trend missing")
	}
	if *s.MidpointTrendMin != -1420 {
		t.Errorf("midpointTrendMin = %v, want -1420 (plain linear difference)", *s.MidpointTrendMin)
	}
}

func recordWithMidpoint(date string, duration, midpoint int) domain.SleepRecord {
	r := record(date, 1410, duration)
	r.MidpointMinutes = &midpoint
	return r
}
