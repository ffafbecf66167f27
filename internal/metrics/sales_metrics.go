package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Операции записи для лейблов.
const (
	OperationCreateOrder   = "create_order"
	OperationRecordPayment = "record_payment"
)

// SalesMetrics содержит метрики продаж и поступлений в кассы.
type SalesMetrics struct {
	ordersCreated prometheus.Counter
	orderAmount   prometheus.Counter
	orderUnits    prometheus.Counter
	depositAmount prometheus.Counter

	paymentsRecorded prometheus.Counter
	paymentAmount    prometheus.Counter

	writeFailures *prometheus.CounterVec
	writeDuration *prometheus.HistogramVec
	writesActive  prometheus.Gauge
}

// NewSalesMetrics создаёт метрики в DefaultRegisterer.
func NewSalesMetrics() *SalesMetrics {
	return NewSalesMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewSalesMetricsWithRegisterer создаёт метрики в заданном registerer (удобно для тестов).
func NewSalesMetricsWithRegisterer(registerer prometheus.Registerer) *SalesMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &SalesMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "wholesale_orders_created_total",
			Help: "Total number of orders persisted",
		}),
		orderAmount: registerCounter(registerer, prometheus.CounterOpts{
			Name: "wholesale_order_amount_total",
			Help: "Sum of order totals",
		}),
		orderUnits: registerCounter(registerer, prometheus.CounterOpts{
			Name: "wholesale_order_units_total",
			Help: "Total number of sales units ordered",
		}),
		depositAmount: registerCounter(registerer, prometheus.CounterOpts{
			Name: "wholesale_deposit_amount_total",
			Help: "Sum of deposits collected at order time",
		}),
		paymentsRecorded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "wholesale_payments_recorded_total",
			Help: "Total number of stand-alone payments",
		}),
		paymentAmount: registerCounter(registerer, prometheus.CounterOpts{
			Name: "wholesale_payment_amount_total",
			Help: "Sum of stand-alone payments",
		}),
		writeFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "wholesale_write_failures_total",
			Help: "Failed writes grouped by operation and error category",
		}, []string{"operation", "reason"}),
		writeDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "wholesale_write_duration_seconds",
			Help:    "Duration of order and payment writes in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"operation"}),
		writesActive: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "wholesale_writes_in_flight",
			Help: "Number of writes currently running",
		}),
	}
}

// RecordOrderCreated учитывает сохранённый заказ.
func (m *SalesMetrics) RecordOrderCreated(total, deposit decimal.Decimal, units int64) {
	m.ordersCreated.Inc()
	m.orderAmount.Add(total.InexactFloat64())
	m.orderUnits.Add(float64(units))
	if deposit.IsPositive() {
		m.depositAmount.Add(deposit.InexactFloat64())
	}
}

// RecordPaymentRecorded учитывает отдельную оплату.
func (m *SalesMetrics) RecordPaymentRecorded(amount decimal.Decimal) {
	m.paymentsRecorded.Inc()
	m.paymentAmount.Add(amount.InexactFloat64())
}

// RecordWriteFailure увеличивает счётчик неудачных записей.
func (m *SalesMetrics) RecordWriteFailure(operation, reason string) {
	m.writeFailures.WithLabelValues(operation, reason).Inc()
}

// WriteStarted отмечает начало записи и возвращает функцию её завершения.
func (m *SalesMetrics) WriteStarted(operation string) func() {
	m.writesActive.Inc()
	started := time.Now()
	return func() {
		m.writesActive.Dec()
		m.writeDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	}
}
