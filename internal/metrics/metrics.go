// Package metrics exposes Prometheus counters for the billing batches.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts domain events. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	marks          *prometheus.CounterVec
	autoMarked     prometheus.Counter
	autoMarkRuns   *prometheus.CounterVec
	bills          *prometheus.CounterVec
	billRuns       *prometheus.CounterVec
	batchFailures  *prometheus.CounterVec
	operationFails *prometheus.CounterVec
}

// New builds a Recorder on its own registry, with the Go runtime and process
// collectors attached.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		marks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mess",
			Name:      "attendance_marks_total",
			Help:      "Attendance marks written by administrators.",
		}, []string{"attended"}),
		autoMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mess",
			Name:      "drinks_auto_marked_total",
			Help:      "Drink attendance rows set by auto-mark sweeps.",
		}),
		autoMarkRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mess",
			Name:      "auto_mark_runs_total",
			Help:      "Auto-mark sweeps by whether the UTC fallback was used.",
		}, []string{"fallback"}),
		bills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mess",
			Name:      "bills_written_total",
			Help:      "Bills written by generation runs.",
		}, []string{"outcome"}),
		billRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mess",
			Name:      "bill_runs_total",
			Help:      "Bill generation runs by period.",
		}, []string{"period"}),
		batchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mess",
			Name:      "batch_user_failures_total",
			Help:      "Per-user failures skipped inside batch operations.",
		}, []string{"batch"}),
		operationFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mess",
			Name:      "operation_failures_total",
			Help:      "Failed operations by kind.",
		}, []string{"operation", "kind"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.marks, r.autoMarked, r.autoMarkRuns, r.bills, r.billRuns, r.batchFailures, r.operationFails,
	)
	return r
}

// Registry is exposed for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) Mark(attended bool) {
	if r == nil {
		return
	}
	label := "false"
	if attended {
		label = "true"
	}
	r.marks.WithLabelValues(label).Inc()
}

func (r *Recorder) AutoMark(marked, failures int, fallback bool) {
	if r == nil {
		return
	}
	label := "false"
	if fallback {
		label = "true"
	}
	r.autoMarkRuns.WithLabelValues(label).Inc()
	r.autoMarked.Add(float64(marked))
	r.batchFailures.WithLabelValues("auto_mark").Add(float64(failures))
}

func (r *Recorder) BillRun(period string, created, updated, skipped, failures int) {
	if r == nil {
		return
	}
	r.billRuns.WithLabelValues(period).Inc()
	r.bills.WithLabelValues("created").Add(float64(created))
	r.bills.WithLabelValues("updated").Add(float64(updated))
	r.bills.WithLabelValues("skipped").Add(float64(skipped))
	r.batchFailures.WithLabelValues("bill_run").Add(float64(failures))
}

func (r *Recorder) Failure(operation, kind string) {
	if r == nil {
		return
	}
	r.operationFails.WithLabelValues(operation, kind).Inc()
}
