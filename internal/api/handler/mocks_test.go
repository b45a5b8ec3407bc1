package handler

import (
	"context"

	"github.com/mlenart/diary-insights/internal/artifact"
	"github.com/mlenart/diary-insights/internal/domain"
	"github.com/mlenart/diary-insights/internal/service"
)

type mockPipeline struct {
	RunFunc func(ctx context.Context, entries []domain.RawEntry) (*service.RunResult, error)
}

func (m *mockPipeline) Run(ctx context.Context, entries []domain.RawEntry) (*service.RunResult, error) {
	return m.RunFunc(ctx, entries)
}

type mockWriter struct {
	WriteRunFunc      func(a *artifact.RunArtifact) (string, error)
	WriteSnapshotFunc func(rows []domain.SleepRecord) (string, error)
	ReadRunFunc       func(runID string) (*artifact.RunArtifact, error)
	ReadSnapshotFunc  func() ([]domain.SleepRecord, error)
}

func (m *mockWriter) WriteRun(a *artifact.RunArtifact) (string, error) {
	return m.WriteRunFunc(a)
}

func (m *mockWriter) WriteSnapshot(rows []domain.SleepRecord) (string, error) {
	return m.WriteSnapshotFunc(rows)
}

func (m *mockWriter) ReadRun(runID string) (*artifact.RunArtifact, error) {
	return m.ReadRunFunc(runID)
}

func (m *mockWriter) ReadSnapshot() ([]domain.SleepRecord, error) {
	return m.ReadSnapshotFunc()
}
