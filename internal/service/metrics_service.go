package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/mlenart/diary-insights/internal/config"
	"github.com/mlenart/diary-insights/internal/domain"
	"github.com/mlenart/diary-insights/internal/logging"
	"github.com/mlenart/diary-insights/internal/timeparse"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const minutesPerDay = 1440

// MetricsResult is the per-run output of sleep-metrics computation.
type MetricsResult struct {
	// Records ordered by logical date ascending, one per retained entry.
	Records []domain.SleepRecord
	// Retained maps each logical date to the entry that won duplicate
	// resolution. Downstream metric-table construction reads from it.
	Retained map[string]domain.RawEntry
	// Warnings collected along the way. They never fail the run.
	Warnings []domain.Warning
}

func (r *MetricsResult) warn(log logging.Logger, w domain.Warning) {
	log.Warnf("date %s: %s: %s", w.Date, w.Code, w.Detail)
	r.Warnings = append(r.Warnings, w)
}

// MetricsService derives per-date sleep records from raw diary entries.
type MetricsService interface {
	// Compute assigns logical dates, resolves duplicates and derives
	// duration, midpoint and anomaly flags. It is best-effort per date:
	// a failure on one date omits that record and the run continues.
	Compute(ctx context.Context, entries []domain.RawEntry) *MetricsResult
}

type metricsService struct {
	cfg *config.Config
	log logging.Logger
}

// NewMetricsService creates a new MetricsService.
func NewMetricsService(cfg *config.Config, log logging.Logger) MetricsService {
	return &metricsService{cfg: cfg, log: log}
}

func (s *metricsService) Compute(ctx context.Context, entries []domain.RawEntry) *MetricsResult {
	tracer := otel.Tracer("diary-insights/metrics")
	_, span := tracer.Start(ctx, "MetricsService.Compute",
		trace.WithAttributes(attribute.Int("entries.count", len(entries))),
	)
	defer span.End()

	result := &MetricsResult{Retained: make(map[string]domain.RawEntry)}

	// Group entries by logical date (early-morning adjustment applies).
	byDate := make(map[string][]domain.RawEntry)
	for _, e := range entries {
		date := domain.LogicalDate(e.Timestamp, s.cfg.CutoffHour)
		byDate[date] = append(byDate[date], e)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		group := byDate[date]

		// Earliest-timestamped entry wins; the rest are discarded.
		entry := group[0]
		for _, e := range group[1:] {
			if e.Timestamp.Before(entry.Timestamp) {
				entry = e
			}
		}
		if discarded := len(group) - 1; discarded > 0 {
			result.warn(s.log, domain.Warning{
				Code:   domain.WarnDuplicateEntries,
				Date:   date,
				Detail: fmt.Sprintf("%d duplicate entries discarded", discarded),
			})
		}
		result.Retained[date] = entry

		record, warnings, ok := s.computeRecord(date, entry)
		for _, w := range warnings {
			result.warn(s.log, w)
		}
		if !ok {
			// Unexpected failure for this date: record omitted, run continues.
			continue
		}
		result.Records = append(result.Records, *record)
	}

	span.SetAttributes(
		attribute.Int("records.count", len(result.Records)),
		attribute.Int("warnings.count", len(result.Warnings)),
	)
	return result
}

// computeRecord derives one SleepRecord. It recovers from panics so a
// single malformed date can never abort the run.
func (s *metricsService) computeRecord(date string, entry domain.RawEntry) (record *domain.SleepRecord, warnings []domain.Warning, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			record = nil
			warnings = append(warnings, domain.Warning{
				Code:   domain.WarnComputeFailure,
				Date:   date,
				Detail: fmt.Sprintf("metrics computation failed: %v", r),
			})
			ok = false
		}
	}()

	bed := s.parseField(date, "bedtime", entry.BedtimeRaw)
	wake := s.parseField(date, "wake_time", entry.WakeTimeRaw)

	record = &domain.SleepRecord{Date: date, BedMinutes: bed, WakeMinutes: wake}

	// Incomplete data is normal, not an error: duration and midpoint
	// stay null and no warning is recorded.
	if bed == nil || wake == nil {
		return record, warnings, true
	}

	raw := rawDuration(*bed, *wake)
	if raw <= 0 {
		warnings = append(warnings, domain.Warning{
			Code:   domain.WarnNonPositiveDuration,
			Date:   date,
			Detail: fmt.Sprintf("non-positive duration for bed %s, wake %s", timeparse.FormatClock(*bed), timeparse.FormatClock(*wake)),
		})
		return record, warnings, true
	}

	hours := math.Round(float64(raw)/60*100) / 100
	midpoint := midpointMinutes(*bed, raw)

	record.DurationMinutes = &raw
	record.DurationHours = &hours
	record.MidpointMinutes = &midpoint

	if raw < s.cfg.AnomalyMinMinutes || raw > s.cfg.AnomalyMaxMinutes {
		flag := domain.AnomalyUnusualDuration
		record.AnomalyFlag = &flag
		warnings = append(warnings, domain.Warning{
			Code:   domain.WarnUnusualDuration,
			Date:   date,
			Detail: fmt.Sprintf("duration of %d minutes is outside [%d,%d]", raw, s.cfg.AnomalyMinMinutes, s.cfg.AnomalyMaxMinutes),
		})
	}

	return record, warnings, true
}

// parseField parses a raw time string, treating unparseable input as a
// missing field. Parse failures have no run-level effect.
func (s *metricsService) parseField(date, field, raw string) *int {
	if raw == "" {
		return nil
	}
	minutes, err := timeparse.ParseClock(raw)
	if err != nil {
		s.log.Debugf("date %s: %s %q treated as missing: %v", date, field, raw, err)
		return nil
	}
	return &minutes
}

// rawDuration applies the midnight-crossing rule: bed <= wake is the
// same-night case (02:45 -> 09:45), otherwise the period crosses
// midnight (23:30 -> 07:30).
func rawDuration(bed, wake int) int {
	if bed <= wake {
		return wake - bed
	}
	return (minutesPerDay - bed) + wake
}

// midpointMinutes is the clock time halfway through the sleep period,
// rounded to the nearest minute and wrapped onto the 24-hour clock.
func midpointMinutes(bed, duration int) int {
	// (bed + duration/2) with .5 rounding up, without going through floats.
	return ((2*bed + duration + 1) / 2) % minutesPerDay
}
