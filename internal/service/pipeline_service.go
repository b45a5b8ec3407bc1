package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mlenart/diary-insights/internal/artifact"
	"github.com/mlenart/diary-insights/internal/config"
	"github.com/mlenart/diary-insights/internal/domain"
	"github.com/mlenart/diary-insights/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RunResult is everything one pipeline run produced.
type RunResult struct {
	RunID          string               `json:"run_id"`
	MetricsVersion string               `json:"metrics_version"`
	GeneratedAt    time.Time            `json:"generated_at"`
	Records        []domain.SleepRecord `json:"rows"`
	Summary        *domain.SleepSummary `json:"summary,omitempty"`
	Insights       domain.InsightSet    `json:"insights"`
	Warnings       []domain.Warning     `json:"warnings"`
	// Meta is the downstream metadata block. It carries sleepSummary
	// when present and never replaces consumer-owned fields.
	Meta map[string]any `json:"meta"`
}

// PipelineService executes a full batch run: raw entries through
// metrics, aggregation and insights to flat artifacts on disk.
type PipelineService interface {
	// Run processes one run's entry snapshot synchronously. Per-date
	// metric failures degrade to warnings; an error here means the run
	// failed before any artifact was written.
	Run(ctx context.Context, entries []domain.RawEntry) (*RunResult, error)
}

type pipelineService struct {
	cfg        *config.Config
	log        logging.Logger
	metrics    MetricsService
	aggregator AggregateService
	insights   InsightService
	writer     artifact.Writer
}

// NewPipelineService creates a new PipelineService.
func NewPipelineService(
	cfg *config.Config,
	log logging.Logger,
	metrics MetricsService,
	aggregator AggregateService,
	insights InsightService,
	writer artifact.Writer,
) PipelineService {
	return &pipelineService{
		cfg:        cfg,
		log:        log,
		metrics:    metrics,
		aggregator: aggregator,
		insights:   insights,
		writer:     writer,
	}
}

func (s *pipelineService) Run(ctx context.Context, entries []domain.RawEntry) (*RunResult, error) {
	tracer := otel.Tracer("diary-insights/pipeline")
	ctx, span := tracer.Start(ctx, "PipelineService.Run",
		trace.WithAttributes(attribute.Int("entries.count", len(entries))),
	)
	defer span.End()

	runID := uuid.NewString()
	s.log.Infof("run %s: processing %d entries", runID, len(entries))

	metrics := s.metrics.Compute(ctx, entries)

	// The wide plausibility band is validated upstream; here it only
	// feeds diagnostics, separate from the anomaly flag.
	for _, r := range metrics.Records {
		if r.DurationMinutes != nil &&
			!domain.PlausibleDuration(*r.DurationMinutes, s.cfg.PlausibleMinMinutes, s.cfg.PlausibleMaxMinutes) {
			s.log.Debugf("run %s: date %s duration %d min outside plausibility band [%d,%d]",
				runID, r.Date, *r.DurationMinutes, s.cfg.PlausibleMinMinutes, s.cfg.PlausibleMaxMinutes)
		}
	}

	summary := s.aggregator.Summarize(ctx, metrics.Records)
	insights := s.insights.Rank(ctx, buildMetricTable(metrics))

	// Empty slices encode as [] rather than null in the run document.
	if metrics.Records == nil {
		metrics.Records = []domain.SleepRecord{}
	}
	if metrics.Warnings == nil {
		metrics.Warnings = []domain.Warning{}
	}

	result := &RunResult{
		RunID:          runID,
		MetricsVersion: s.cfg.MetricsVersion,
		GeneratedAt:    time.Now().UTC(),
		Records:        metrics.Records,
		Summary:        summary,
		Insights:       insights,
		Warnings:       metrics.Warnings,
		Meta:           map[string]any{},
	}
	artifact.AttachSummary(result.Meta, summary)

	// Artifacts are the last step: a failure anywhere above leaves no
	// partially written run on disk.
	runPath, err := s.writer.WriteRun(&artifact.RunArtifact{
		RunID:          result.RunID,
		MetricsVersion: result.MetricsVersion,
		GeneratedAt:    result.GeneratedAt,
		Rows:           result.Records,
	})
	if err != nil {
		return nil, err
	}
	snapshotPath, err := s.writer.WriteSnapshot(result.Records)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.Int("run.records", len(result.Records)),
		attribute.Int("run.insights", len(result.Insights)),
		attribute.Int("run.warnings", len(result.Warnings)),
	)
	s.log.Infof("run %s: wrote %s and %s (%d records, %d insights, %d warnings)",
		runID, runPath, snapshotPath, len(result.Records), len(result.Insights), len(result.Warnings))
	return result, nil
}

// buildMetricTable turns the retained entry and sleep record for each
// logical date into one row of the insight engine's input.
func buildMetricTable(metrics *MetricsResult) []domain.DayMetrics {
	durations := make(map[string]float64, len(metrics.Records))
	for _, r := range metrics.Records {
		if r.DurationHours != nil {
			durations[r.Date] = *r.DurationHours
		}
	}

	dates := make([]string, 0, len(metrics.Retained))
	for date := range metrics.Retained {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	days := make([]domain.DayMetrics, 0, len(dates))
	for _, date := range dates {
		entry := metrics.Retained[date]
		values := make(map[string]float64)

		if entry.Mood != nil {
			values[domain.MetricMood] = float64(*entry.Mood)
		}
		if entry.Energy != nil {
			values[domain.MetricEnergy] = float64(*entry.Energy)
		}
		if entry.Mood != nil && entry.Energy != nil {
			values[domain.MetricWellbeing] = (float64(*entry.Mood) + float64(*entry.Energy)) / 2
		}
		if entry.SleepQuality != nil {
			values[domain.MetricSleepQuality] = float64(*entry.SleepQuality)
		}
		if entry.ScreenMinutes != nil {
			values[domain.MetricScreenMinutes] = *entry.ScreenMinutes
		}
		if d, ok := durations[date]; ok {
			values[domain.MetricSleepDuration] = d
		}

		days = append(days, domain.DayMetrics{
			Date:       date,
			Values:     values,
			Activities: entry.Activities,
		})
	}
	return days
}
