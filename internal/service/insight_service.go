package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mlenart/diary-insights/internal/config"
	"github.com/mlenart/diary-insights/internal/domain"
	"github.com/mlenart/diary-insights/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// outcomeMetrics are the next-day outcomes every predictor is tested
// against, in deterministic order.
var outcomeMetrics = []string{domain.MetricEnergy, domain.MetricMood, domain.MetricWellbeing}

// InsightService ranks statistically significant predictor→next-day
// outcome relationships.
type InsightService interface {
	// Rank computes correlation and significance for every candidate
	// pair and returns the top-K surviving insights. The result is
	// deterministic and independent of input row order.
	Rank(ctx context.Context, days []domain.DayMetrics) domain.InsightSet
}

type insightService struct {
	cfg *config.Config
	log logging.Logger
}

// NewInsightService creates a new InsightService.
func NewInsightService(cfg *config.Config, log logging.Logger) InsightService {
	return &insightService{cfg: cfg, log: log}
}

func (s *insightService) Rank(ctx context.Context, days []domain.DayMetrics) domain.InsightSet {
	tracer := otel.Tracer("diary-insights/insight")
	_, span := tracer.Start(ctx, "InsightService.Rank",
		trace.WithAttributes(attribute.Int("days.count", len(days))),
	)
	defer span.End()

	byDate := make(map[string]domain.DayMetrics, len(days))
	for _, d := range days {
		byDate[d.Date] = d
	}

	activities, metrics := predictorNames(days)

	var candidates []domain.InsightCandidate
	for _, predictor := range append(activities, metrics...) {
		isActivity := contains(activities, predictor)
		for _, outcome := range outcomeMetrics {
			x, y := pairedSeries(byDate, predictor, isActivity, outcome)
			if c, ok := s.testPair(predictor, outcome, isActivity, x, y); ok {
				candidates = append(candidates, c)
			}
		}
	}

	// Rank by absolute effect size; ties broken by larger sample, then
	// lexical predictor name. Explicit on purpose: input ordering
	// carries no meaning.
	sort.Slice(candidates, func(i, j int) bool {
		ai, aj := math.Abs(candidates[i].EffectSize), math.Abs(candidates[j].EffectSize)
		if ai != aj {
			return ai > aj
		}
		if candidates[i].SampleSize != candidates[j].SampleSize {
			return candidates[i].SampleSize > candidates[j].SampleSize
		}
		return candidates[i].Predictor < candidates[j].Predictor
	})

	if len(candidates) > s.cfg.TopInsights {
		candidates = candidates[:s.cfg.TopInsights]
	}

	span.SetAttributes(attribute.Int("insights.count", len(candidates)))
	// Encodes as [] rather than null when nothing survives.
	if candidates == nil {
		candidates = []domain.InsightCandidate{}
	}
	return domain.InsightSet(candidates)
}

// testPair runs the significance test for one predictor/outcome pair.
// Pairs below the sample threshold are excluded regardless of p-value;
// small samples produce spurious significance.
func (s *insightService) testPair(predictor, outcome string, isActivity bool, x, y []float64) (domain.InsightCandidate, bool) {
	n := len(x)
	if n < s.cfg.MinSampleSize || n < 3 {
		return domain.InsightCandidate{}, false
	}

	r, ok := pearson(x, y)
	if !ok {
		// Constant predictor or outcome; no relationship to test.
		return domain.InsightCandidate{}, false
	}

	p := twoSidedP(r, n)
	if p >= s.cfg.SignificanceLevel {
		return domain.InsightCandidate{}, false
	}

	c := domain.InsightCandidate{
		Predictor:  predictor,
		Outcome:    outcome,
		EffectSize: r,
		SampleSize: n,
		PValue:     p,
		Confidence: confidenceLabel(p),
	}
	if isActivity {
		c.Summary = activitySummary(predictor, outcome, meanDifference(x, y), n)
	} else {
		c.Summary = metricSummary(predictor, outcome, r, n)
	}
	return c, true
}

// pairedSeries aligns predictor values on day d with outcome values on
// day d+1. Activity indicators are defined (0 or 1) for every observed
// day; continuous predictors only when the metric was recorded.
func pairedSeries(byDate map[string]domain.DayMetrics, predictor string, isActivity bool, outcome string) (x, y []float64) {
	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		day := byDate[date]

		next, ok := nextDay(byDate, date)
		if !ok {
			continue
		}
		outcomeVal, ok := next.Values[outcome]
		if !ok {
			continue
		}

		var predictorVal float64
		if isActivity {
			if contains(day.Activities, predictor) {
				predictorVal = 1
			}
		} else {
			v, ok := day.Values[predictor]
			if !ok {
				continue
			}
			predictorVal = v
		}

		x = append(x, predictorVal)
		y = append(y, outcomeVal)
	}
	return x, y
}

func nextDay(byDate map[string]domain.DayMetrics, date string) (domain.DayMetrics, bool) {
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return domain.DayMetrics{}, false
	}
	next, ok := byDate[t.AddDate(0, 0, 1).Format(domain.DateLayout)]
	return next, ok
}

// predictorNames returns the sorted activity names and continuous
// metric names observed anywhere in the table. Outcome-only metrics
// also serve as predictors of the following day.
func predictorNames(days []domain.DayMetrics) (activities, metrics []string) {
	actSet := make(map[string]struct{})
	metSet := make(map[string]struct{})
	for _, d := range days {
		for _, a := range d.Activities {
			actSet[a] = struct{}{}
		}
		for name := range d.Values {
			if name == domain.MetricWellbeing {
				// Derived from mood and energy; testing it as a
				// predictor would duplicate its components.
				continue
			}
			metSet[name] = struct{}{}
		}
	}
	for a := range actSet {
		activities = append(activities, a)
	}
	for m := range metSet {
		metrics = append(metrics, m)
	}
	sort.Strings(activities)
	sort.Strings(metrics)
	return activities, metrics
}

func confidenceLabel(p float64) string {
	switch {
	case p < 0.001:
		return "very strong"
	case p < 0.01:
		return "strong"
	default:
		return "moderate"
	}
}

func activitySummary(predictor, outcome string, diff float64, n int) string {
	direction := "increases"
	if diff < 0 {
		direction = "decreases"
	}
	return fmt.Sprintf("%s %s by %.1f points the day after %s (n=%d)",
		outcome, direction, math.Abs(diff), predictor, n)
}

func metricSummary(predictor, outcome string, r float64, n int) string {
	direction := "higher"
	if r < 0 {
		direction = "lower"
	}
	return fmt.Sprintf("higher %s is followed by %s next-day %s (r=%.2f, n=%d)",
		predictor, direction, outcome, r, n)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
