package health

import (
	"context"
	"errors"
	"testing"
)

type mockPinger struct{ err error }

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

type mockEmbChecker struct{ err error }

func (m *mockEmbChecker) HealthCheck(ctx context.Context) error { return m.err }

type mockIndex struct{ n int }

func (m *mockIndex) Len() int { return m.n }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockEmbChecker{}, &mockIndex{n: 42})
	report := svc.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("status = %s, want %s", report.Status, Healthy)
	}
	if report.Checks["database"] != CheckOK || report.Checks["embedding"] != CheckOK {
		t.Errorf("checks = %v", report.Checks)
	}
	if report.IndexSize != 42 {
		t.Errorf("index size = %d, want 42", report.IndexSize)
	}
}

func TestCheck_DatabaseDownIsUnhealthy(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("refused")}, &mockEmbChecker{}, &mockIndex{})
	report := svc.Check(context.Background())

	if report.Status != Unhealthy {
		t.Errorf("status = %s, want %s", report.Status, Unhealthy)
	}
	if report.Checks["database"] != CheckError {
		t.Errorf("checks = %v", report.Checks)
	}
}

func TestCheck_EmbeddingDownOnlyDegrades(t *testing.T) {
	svc := New(&mockPinger{}, &mockEmbChecker{err: errors.New("rate limited")}, &mockIndex{})
	report := svc.Check(context.Background())

	if report.Status != Degraded {
		t.Errorf("status = %s, want %s", report.Status, Degraded)
	}
	if report.Checks["embedding"] != CheckError {
		t.Errorf("checks = %v", report.Checks)
	}
}

func TestCheck_BothDownStaysUnhealthy(t *testing.T) {
	svc := New(
		&mockPinger{err: errors.New("refused")},
		&mockEmbChecker{err: errors.New("rate limited")},
		nil,
	)
	report := svc.Check(context.Background())

	if report.Status != Unhealthy {
		t.Errorf("status = %s, want %s", report.Status, Unhealthy)
	}
}

func TestCheck_NilEmbeddingSkipped(t *testing.T) {
	svc := New(&mockPinger{}, nil, nil)
	report := svc.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("status = %s", report.Status)
	}
	if _, ok := report.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when no checker is configured")
	}
}
