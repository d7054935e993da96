// Package metrics 提供 Prometheus helper，聚合费用引擎常用指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	// 费用计算执行计数（按结果区分）
	CalculationsTotal *prometheus.CounterVec
	// 费用计算耗时
	CalculationDuration prometheus.Histogram
	// 校验失败计数（按检查项区分）
	ValidationFailures *prometheus.CounterVec
	// 合成方程使用计数
	SynthesizedEquations prometheus.Counter
	// 账本写入计数
	LedgerWritesTotal prometheus.Counter

	registry *prometheus.Registry
}

// New 创建指标实例并注册
func New(serviceName string) *Metrics {
	m := &Metrics{
		CalculationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "investorportal",
			Subsystem: serviceName,
			Name:      "fee_calculations_total",
			Help:      "Total fee calculations executed",
		}, []string{"result"}),
		CalculationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "investorportal",
			Subsystem: serviceName,
			Name:      "fee_calculation_duration_seconds",
			Help:      "Fee calculation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "investorportal",
			Subsystem: serviceName,
			Name:      "fee_validation_failures_total",
			Help:      "Total fee validation check failures",
		}, []string{"check"}),
		SynthesizedEquations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "investorportal",
			Subsystem: serviceName,
			Name:      "synthesized_equations_total",
			Help:      "Calculations that fell back to a synthesized equation",
		}),
		LedgerWritesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "investorportal",
			Subsystem: serviceName,
			Name:      "ledger_writes_total",
			Help:      "Fee ledger persistence operations",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.CalculationsTotal,
		m.CalculationDuration,
		m.ValidationFailures,
		m.SynthesizedEquations,
		m.LedgerWritesTotal,
	)
	return m
}

// Handler 返回 /metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
