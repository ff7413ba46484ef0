package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

func histogramSampleCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("Write histogram metric: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func histogramVecSampleCount(t *testing.T, v *prometheus.HistogramVec, label string) uint64 {
	t.Helper()
	obs, err := v.GetMetricWithLabelValues(label)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%q): %v", label, err)
	}
	h, ok := obs.(prometheus.Histogram)
	if !ok {
		t.Fatalf("observer for label %q is not a Histogram", label)
	}
	return histogramSampleCount(t, h)
}

func TestTimerDurationGrowsAndNeverGoesBackward(t *testing.T) {
	timer := NewTimer()

	first := timer.Duration()
	time.Sleep(10 * time.Millisecond)
	second := timer.Duration()

	if second <= first {
		t.Errorf("Duration() should increase between calls: first=%v, second=%v", first, second)
	}
}

func TestTimerObserveDurationRecordsIntoSnapshotHistogram(t *testing.T) {
	before := histogramSampleCount(t, SnapshotDuration)

	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	timer.ObserveDuration(SnapshotDuration)

	after := histogramSampleCount(t, SnapshotDuration)
	if after != before+1 {
		t.Errorf("SnapshotDuration sample count = %d, want %d", after, before+1)
	}
}

func TestTimerObserveDurationVecRecordsPerCommand(t *testing.T) {
	before := histogramVecSampleCount(t, CommandDuration, "SET")

	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	timer.ObserveDurationVec(CommandDuration, "SET")

	after := histogramVecSampleCount(t, CommandDuration, "SET")
	if after != before+1 {
		t.Errorf("CommandDuration{verb=SET} sample count = %d, want %d", after, before+1)
	}
}
