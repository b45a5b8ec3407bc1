package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries every tunable for a run. It is built once at startup
// and passed explicitly into each component, so parallel runs (and
// tests) can use different versions in the same process.
type Config struct {
	Port        string
	ArtifactDir string
	LogLevel    string

	// MetricsVersion accompanies every artifact. Bump it when duration
	// semantics change, a persisted column is added, or correlation
	// results enter the downstream metadata. Never for cosmetics.
	MetricsVersion string

	// CutoffHour is the early-morning adjustment boundary: entries
	// timestamped before this hour belong to the previous calendar day.
	CutoffHour int

	// Unusual-duration band used by metrics computation (soft signal).
	AnomalyMinMinutes int
	AnomalyMaxMinutes int

	// Wider plausibility band enforced by upstream validation. Kept
	// distinct from the anomaly band; the two disagree in the source
	// material and are deliberately not unified (see DESIGN.md).
	PlausibleMinMinutes int
	PlausibleMaxMinutes int

	// Insight engine thresholds.
	MinSampleSize     int
	SignificanceLevel float64
	TopInsights       int

	// OTLP trace exporter configuration (empty disables tracing).
	OTLPEndpointURL string
	TraceEnv        string
}

func Load() *Config {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		ArtifactDir: getEnv("ARTIFACT_DIR", "./artifacts"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		MetricsVersion: getEnv("METRICS_VERSION", "m1"),

		CutoffHour: getEnvInt("LOGICAL_DAY_CUTOFF_HOUR", 6),

		AnomalyMinMinutes: getEnvInt("ANOMALY_MIN_MINUTES", 60),
		AnomalyMaxMinutes: getEnvInt("ANOMALY_MAX_MINUTES", 900),

		PlausibleMinMinutes: getEnvInt("PLAUSIBLE_MIN_MINUTES", 120),
		PlausibleMaxMinutes: getEnvInt("PLAUSIBLE_MAX_MINUTES", 960),

		MinSampleSize:     getEnvInt("INSIGHT_MIN_SAMPLE", 10),
		SignificanceLevel: getEnvFloat("INSIGHT_ALPHA", 0.05),
		TopInsights:       getEnvInt("INSIGHT_TOP_K", 3),

		OTLPEndpointURL: getEnv("OTLP_ENDPOINT_URL", ""),
		TraceEnv:        getEnv("TRACE_ENV", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
