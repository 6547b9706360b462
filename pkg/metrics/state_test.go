package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStateMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStateMetrics(reg)

	metrics.ObserveUsageDelivery("delivered", 120*time.Millisecond)
	metrics.ObserveUsageDelivery("timeout", 3*time.Second)
	metrics.IncMirrorWriteFailure("cart_save")
	metrics.IncEventPublishFailure("theme_changed")
	metrics.SubscriberAttached()
	metrics.SubscriberAttached()
	metrics.SubscriberDetached()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "usage_notify_total", "outcome", "delivered"); err != nil {
		t.Fatalf("fetch delivered: %v", err)
	} else if got != 1 {
		t.Fatalf("expected delivered=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "usage_notify_total", "outcome", "timeout"); err != nil {
		t.Fatalf("fetch timeout: %v", err)
	} else if got != 1 {
		t.Fatalf("expected timeout=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "mirror_write_failures_total", "op", "cart_save"); err != nil {
		t.Fatalf("fetch mirror failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected mirror failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "usage_notify_duration_seconds", "outcome", "delivered"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got := fetchGaugeValue(mfs, "session_event_subscribers"); got != 1 {
		t.Fatalf("expected one live subscriber, got %f", got)
	}
}

func TestStateMetricsNilRegisterer(t *testing.T) {
	metrics := NewStateMetrics(nil)
	// all recorders must be safe no-ops
	metrics.ObserveUsageDelivery("delivered", time.Second)
	metrics.IncMirrorWriteFailure("cart_save")
	metrics.IncEventPublishFailure("")
	metrics.SubscriberAttached()
	metrics.SubscriberDetached()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func fetchGaugeValue(mfs []*dto.MetricFamily, name string) float64 {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return -1
	}
	for _, metric := range mf.GetMetric() {
		return metric.GetGauge().GetValue()
	}
	return -1
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
