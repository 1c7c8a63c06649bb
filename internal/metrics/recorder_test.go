package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MrSnakeDoc/skylog/internal/domain"
	"github.com/MrSnakeDoc/skylog/internal/observation"
	"github.com/MrSnakeDoc/skylog/internal/store/memory"
)

func TestRecorderCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	r.ObservationAdded(domain.CategoryGalaxy)
	r.ObservationAdded(domain.CategoryGalaxy)
	r.ValidationFailed(domain.ErrMissingPhoto.Code)
	r.SnapshotWritten(128, nil)
	r.SnapshotWritten(0, errors.New("boom"))
	r.SnapshotDecodeFailed()
	r.ObservationCount(2)

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"added galaxy", r.added.WithLabelValues("Galaxy"), 2},
		{"added nebula", r.added.WithLabelValues("Nebula"), 0},
		{"missing photo", r.validation.WithLabelValues("missing_photo"), 1},
		{"writes ok", r.writes.WithLabelValues("ok"), 1},
		{"writes error", r.writes.WithLabelValues("error"), 1},
		{"write bytes", r.writeBytes, 128},
		{"decode failures", r.decodeFailures, 1},
		{"count", r.count, 2},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRecorderDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewRecorder(reg); err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}
	if _, err := NewRecorder(reg); err == nil {
		t.Error("registering twice on the same registry should fail")
	}
}

func TestRecorderWiredToStore(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}
	s := observation.New(memory.New("observations"), observation.WithMetrics(r))

	ctx := context.Background()
	_, _ = s.Add(ctx, domain.Candidate{PhotoData: "imgA", Date: "2024-05-01", Category: "Nebula"})
	_, _ = s.Add(ctx, domain.Candidate{PhotoData: "imgA", Date: "05/01/2024"})

	expected := `
# HELP skylog_observations Observations currently held in memory.
# TYPE skylog_observations gauge
skylog_observations 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "skylog_observations"); err != nil {
		t.Error(err)
	}
	if got := testutil.ToFloat64(r.validation.WithLabelValues("invalid_date")); got != 1 {
		t.Errorf("invalid_date failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.added.WithLabelValues("Nebula")); got != 1 {
		t.Errorf("nebula added = %v, want 1", got)
	}
}
