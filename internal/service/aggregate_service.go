package service

import (
	"context"
	"math"
	"time"

	"github.com/mlenart/diary-insights/internal/config"
	"github.com/mlenart/diary-insights/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// SummaryWindowDays is the trailing window for the rolling average.
	SummaryWindowDays = 7

	// MinValidDaysForAverage is the minimum count of valid-duration
	// days in the window before avg7dDurationH is emitted at all.
	MinValidDaysForAverage = 3

	// MinPriorDaysForTrend is the minimum count of prior valid days
	// before midpointTrendMin is emitted.
	MinPriorDaysForTrend = 3

	// MaxPriorDaysForTrend caps how far back the trend baseline looks.
	MaxPriorDaysForTrend = 7
)

// AggregateService rolls per-date sleep records into a SleepSummary.
type AggregateService interface {
	// Summarize computes the rolling summary over the full record
	// history (ordered by date ascending). A nil summary means no
	// usable sleep data existed for the run, which is normal.
	Summarize(ctx context.Context, records []domain.SleepRecord) *domain.SleepSummary
}

type aggregateService struct {
	cfg *config.Config
}

// NewAggregateService creates a new AggregateService.
func NewAggregateService(cfg *config.Config) AggregateService {
	return &aggregateService{cfg: cfg}
}

func (s *aggregateService) Summarize(ctx context.Context, records []domain.SleepRecord) *domain.SleepSummary {
	tracer := otel.Tracer("diary-insights/aggregate")
	_, span := tracer.Start(ctx, "AggregateService.Summarize")
	defer span.End()

	// Latest record with a usable duration anchors the summary.
	latestIdx := -1
	validDays := 0
	for i, r := range records {
		if r.Valid() {
			latestIdx = i
			validDays++
		}
	}
	if latestIdx < 0 {
		span.SetAttributes(attribute.Bool("summary.present", false))
		return nil
	}

	latest := records[latestIdx]
	summary := &domain.SleepSummary{
		LatestDate:      latest.Date,
		LatestDurationH: *latest.DurationHours,
		ValidDays:       validDays,
		MetricsVersion:  s.cfg.MetricsVersion,
	}

	if avg, ok := s.windowAverage(records, latest.Date); ok {
		summary.Avg7dDurationH = &avg
	}
	if trend, ok := s.midpointTrend(records, latestIdx); ok {
		summary.MidpointTrendMin = &trend
	}

	span.SetAttributes(
		attribute.Bool("summary.present", true),
		attribute.Int("summary.valid_days", validDays),
	)
	return summary
}

// windowAverage is the mean duration over valid days in the trailing
// 7-calendar-day window ending at latestDate. Emitted only when at
// least MinValidDaysForAverage such days exist; otherwise the field is
// absent from the summary entirely.
func (s *aggregateService) windowAverage(records []domain.SleepRecord, latestDate string) (float64, bool) {
	end, err := time.Parse(domain.DateLayout, latestDate)
	if err != nil {
		return 0, false
	}
	start := end.AddDate(0, 0, -(SummaryWindowDays - 1))

	var sum float64
	count := 0
	for _, r := range records {
		if !r.Valid() {
			continue
		}
		d, err := time.Parse(domain.DateLayout, r.Date)
		if err != nil || d.Before(start) || d.After(end) {
			continue
		}
		sum += *r.DurationHours
		count++
	}
	if count < MinValidDaysForAverage {
		return 0, false
	}
	return round2(sum / float64(count)), true
}

// midpointTrend is the latest midpoint minus the mean midpoint of the
// most recent prior valid days (at least MinPriorDaysForTrend, at most
// MaxPriorDaysForTrend). The difference is plain linear minutes; a
// 23:50 vs 00:10 pair is NOT wrapped around midnight here.
func (s *aggregateService) midpointTrend(records []domain.SleepRecord, latestIdx int) (float64, bool) {
	latest := records[latestIdx]
	if latest.MidpointMinutes == nil {
		return 0, false
	}

	var priors []float64
	for i := latestIdx - 1; i >= 0 && len(priors) < MaxPriorDaysForTrend; i-- {
		if records[i].MidpointMinutes != nil {
			priors = append(priors, float64(*records[i].MidpointMinutes))
		}
	}
	if len(priors) < MinPriorDaysForTrend {
		return 0, false
	}

	var sum float64
	for _, m := range priors {
		sum += m
	}
	mean := sum / float64(len(priors))
	return round2(float64(*latest.MidpointMinutes) - mean), true
}

// round2 rounds to 2 decimal places, matching duration_hours rounding.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
