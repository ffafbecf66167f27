package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := c.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func TestNewSalesMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewSalesMetricsWithRegisterer(reg)
	second := NewSalesMetricsWithRegisterer(reg)

	if first.ordersCreated != second.ordersCreated {
		t.Fatal("expected second constructor to reuse registered counter")
	}
	if NewSalesMetrics() == nil {
		t.Fatal("NewSalesMetrics should not return nil")
	}
}

func TestRecordOrderCreated(t *testing.T) {
	m := NewSalesMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordOrderCreated(decimal.NewFromInt(1480), decimal.NewFromInt(100), 2)
	m.RecordOrderCreated(decimal.RequireFromString("20.5"), decimal.Zero, 1)

	if got := counterValue(t, m.ordersCreated); got != 2 {
		t.Errorf("expected 2 orders, got %f", got)
	}
	if got := counterValue(t, m.orderAmount); got != 1500.5 {
		t.Errorf("expected amount 1500.5, got %f", got)
	}
	if got := counterValue(t, m.orderUnits); got != 3 {
		t.Errorf("expected 3 units, got %f", got)
	}
	if got := counterValue(t, m.depositAmount); got != 100 {
		t.Errorf("expected deposits 100, got %f", got)
	}
}

func TestRecordPaymentAndFailures(t *testing.T) {
	m := NewSalesMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordPaymentRecorded(decimal.NewFromInt(50))
	m.RecordWriteFailure(OperationCreateOrder, "conflict")
	m.RecordWriteFailure(OperationCreateOrder, "conflict")

	if got := counterValue(t, m.paymentAmount); got != 50 {
		t.Errorf("expected payment amount 50, got %f", got)
	}

	failure, err := m.writeFailures.GetMetricWithLabelValues(OperationCreateOrder, "conflict")
	if err != nil {
		t.Fatalf("failed to get labeled counter: %v", err)
	}
	if got := counterValue(t, failure); got != 2 {
		t.Errorf("expected 2 failures, got %f", got)
	}
}

func TestWriteStarted(t *testing.T) {
	m := NewSalesMetricsWithRegisterer(prometheus.NewRegistry())

	done := m.WriteStarted(OperationRecordPayment)

	gauge := &dto.Metric{}
	if err := m.writesActive.Write(gauge); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	if gauge.Gauge.GetValue() != 1 {
		t.Errorf("expected 1 write in flight, got %f", gauge.Gauge.GetValue())
	}

	done()

	hist := &dto.Metric{}
	observer := m.writeDuration.WithLabelValues(OperationRecordPayment)
	if err := observer.(prometheus.Histogram).Write(hist); err != nil {
		t.Fatalf("failed to write histogram: %v", err)
	}
	if hist.Histogram.GetSampleCount() != 1 {
		t.Errorf("expected 1 sample, got %d", hist.Histogram.GetSampleCount())
	}
	if err := m.writesActive.Write(gauge); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	if gauge.Gauge.GetValue() != 0 {
		t.Errorf("expected 0 writes in flight, got %f", gauge.Gauge.GetValue())
	}
}
