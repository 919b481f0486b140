// Package metrics exposes Prometheus metrics for tool calls and script executions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "browsermcp"

const (
	StatusSuccess = "success"
	StatusError   = "error"

	OutcomeSuccess      = "success"
	OutcomeCompileError = "compile_error"
	OutcomeExecuteError = "execute_error"
)

var (
	// toolCallsTotal is a counter of tool calls.
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls",
		},
		[]string{"tool", "status"}, // status: success, error
	)

	// toolCallDuration is a histogram of tool call duration.
	toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Duration of tool calls in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"tool"},
	)

	// scriptExecutionsTotal is a counter of browser_playwright_code executions.
	scriptExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "script_executions_total",
			Help:      "Total number of code executions against a page",
		},
		[]string{"outcome"}, // outcome: success, compile_error, execute_error
	)

	allMetrics = []prometheus.Collector{
		toolCallsTotal,
		toolCallDuration,
		scriptExecutionsTotal,
	}

	registry = newRegistry()
)

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(allMetrics...)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// RecordToolCall records a completed tool call.
func RecordToolCall(toolName, status string, duration time.Duration) {
	toolCallsTotal.WithLabelValues(toolName, status).Inc()
	toolCallDuration.WithLabelValues(toolName).Observe(duration.Seconds())
}

// RecordScriptExecution records the outcome of one code execution.
func RecordScriptExecution(outcome string) {
	scriptExecutionsTotal.WithLabelValues(outcome).Inc()
}

// Registry returns the registry holding all server metrics.
func Registry() *prometheus.Registry {
	return registry
}

// Handler returns an http.Handler serving the metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
