// Package metrics 人力推荐服务的 Prometheus 指标。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// RunsTotal 排班运行总次数
var RunsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "staffing",
	Name:      "runs_total",
	Help:      "Total number of staffing recommendation runs",
})

// RunErrorsTotal 失败的排班运行次数
var RunErrorsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "staffing",
	Name:      "run_errors_total",
	Help:      "Total number of staffing runs that failed",
})

// ShiftsGenerated 最近一次运行生成的班次数
var ShiftsGenerated = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "staffing",
	Name:      "shifts_generated",
	Help:      "Number of shifts generated in the most recent schedule run",
})

// ShiftsFullyCovered 最近一次运行中满覆盖的班次数
var ShiftsFullyCovered = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "staffing",
	Name:      "shifts_fully_covered",
	Help:      "Number of fully covered shifts in the most recent schedule run",
})

// UnmetStaffingDemand 最近一次运行中未满足的人力缺口（需求人数减已分配人数）
var UnmetStaffingDemand = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "staffing",
	Name:      "unmet_demand",
	Help:      "Total staffing shortfall across shifts in the most recent schedule run",
})

// LastConfidenceScore 最近一次运行的整周排班置信度
var LastConfidenceScore = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "staffing",
	Name:      "last_confidence_score",
	Help:      "Confidence score of the most recent generated schedule (0-100)",
})

// ResidentsAnalyzed 最近一次运行分析的住户数
var ResidentsAnalyzed = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "staffing",
	Name:      "residents_analyzed",
	Help:      "Number of residents analyzed in the most recent run",
})

// RunDurationSeconds 单次排班运行耗时
var RunDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "staffing",
	Name:      "run_duration_seconds",
	Help:      "Time taken for a full staffing recommendation run",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
})

// Handler 返回暴露本注册表的 HTTP handler
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
