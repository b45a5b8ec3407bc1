// Package artifact persists flat per-run outputs: a JSON document per
// run and a rolling CSV snapshot of the latest run's full history.
package artifact

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mlenart/diary-insights/internal/domain"
)

// snapshotName is the rolling snapshot file, fully overwritten each run.
const snapshotName = "sleep-latest.csv"

var snapshotHeader = []string{
	"date", "bed_minutes", "wake_minutes",
	"duration_minutes", "duration_hours", "midpoint_minutes", "anomaly_flag",
}

// RunArtifact is the JSON document written once per run.
type RunArtifact struct {
	RunID          string               `json:"run_id"`
	MetricsVersion string               `json:"metrics_version"`
	GeneratedAt    time.Time            `json:"generated_at"`
	Rows           []domain.SleepRecord `json:"rows"`
}

// Writer persists and retrieves run artifacts.
type Writer interface {
	// WriteRun writes sleep-run-<run_id>.json and returns its path.
	WriteRun(a *RunArtifact) (string, error)
	// WriteSnapshot overwrites the rolling CSV snapshot.
	WriteSnapshot(rows []domain.SleepRecord) (string, error)
	// ReadRun loads a previously written run artifact.
	ReadRun(runID string) (*RunArtifact, error)
	// ReadSnapshot loads the rolling snapshot back into records.
	ReadSnapshot() ([]domain.SleepRecord, error)
}

type fileWriter struct {
	dir string
}

// NewFileWriter creates a Writer rooted at dir.
func NewFileWriter(dir string) Writer {
	return &fileWriter{dir: dir}
}

func (w *fileWriter) WriteRun(a *RunArtifact) (string, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run artifact: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(w.dir, runFilename(a.RunID))
	if err := w.writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func (w *fileWriter) WriteSnapshot(rows []domain.SleepRecord) (string, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(snapshotHeader); err != nil {
		return "", fmt.Errorf("write snapshot header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(snapshotRow(r)); err != nil {
			return "", fmt.Errorf("write snapshot row %s: %w", r.Date, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush snapshot: %w", err)
	}

	path := filepath.Join(w.dir, snapshotName)
	if err := w.writeAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

func (w *fileWriter) ReadRun(runID string) (*RunArtifact, error) {
	data, err := os.ReadFile(filepath.Join(w.dir, runFilename(runID)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read run artifact: %w", err)
	}
	var a RunArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("unmarshal run artifact: %w", err)
	}
	return &a, nil
}

func (w *fileWriter) ReadSnapshot() ([]domain.SleepRecord, error) {
	f, err := os.Open(filepath.Join(w.dir, snapshotName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	lines, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(lines) == 0 {
		return nil, nil
	}

	records := make([]domain.SleepRecord, 0, len(lines)-1)
	for _, line := range lines[1:] { // skip header
		r, err := recordFromRow(line)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot row: %w", err)
		}
		records = append(records, r)
	}
	return records, nil
}

// AttachSummary adds the sleepSummary block to a downstream metadata
// map. The block is additive: a nil summary leaves meta untouched and
// no pre-existing key is ever overwritten or removed.
func AttachSummary(meta map[string]any, s *domain.SleepSummary) {
	if s == nil {
		return
	}
	meta["sleepSummary"] = s
}

// writeAtomic writes via a temp file and rename so a concurrent
// dashboard reader never observes a partially written artifact.
func (w *fileWriter) writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, ".tmp-artifact-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename artifact into place: %w", err)
	}
	return nil
}

func runFilename(runID string) string {
	return fmt.Sprintf("sleep-run-%s.json", runID)
}

func snapshotRow(r domain.SleepRecord) []string {
	return []string{
		r.Date,
		intField(r.BedMinutes),
		intField(r.WakeMinutes),
		intField(r.DurationMinutes),
		floatField(r.DurationHours),
		intField(r.MidpointMinutes),
		stringField(r.AnomalyFlag),
	}
}

func recordFromRow(row []string) (domain.SleepRecord, error) {
	if len(row) != len(snapshotHeader) {
		return domain.SleepRecord{}, fmt.Errorf("expected %d columns, got %d", len(snapshotHeader), len(row))
	}
	r := domain.SleepRecord{Date: row[0]}
	var err error
	if r.BedMinutes, err = parseIntField(row[1]); err != nil {
		return r, err
	}
	if r.WakeMinutes, err = parseIntField(row[2]); err != nil {
		return r, err
	}
	if r.DurationMinutes, err = parseIntField(row[3]); err != nil {
		return r, err
	}
	if r.DurationHours, err = parseFloatField(row[4]); err != nil {
		return r, err
	}
	if r.MidpointMinutes, err = parseIntField(row[5]); err != nil {
		return r, err
	}
	if row[6] != "" {
		flag := row[6]
		r.AnomalyFlag = &flag
	}
	return r, nil
}

func intField(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatField(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func stringField(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func parseIntField(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseFloatField(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
