// Package metrics counts what a scan did and writes it out in the
// Prometheus text format, for node_exporter's textfile collector.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is safe to use as a nil pointer; every method is then a no-op.
type Recorder struct {
	registry *prometheus.Registry

	fetches     *prometheus.CounterVec
	dishes      *prometheus.CounterVec
	sheets      prometheus.Counter
	rows        prometheus.Counter
	lastSuccess prometheus.Gauge
	duration    prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dishtap_fetches_total",
				Help: "Search requests by HTTP status (0 = transport error)",
			},
			[]string{"status"},
		),
		dishes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dishtap_dishes_total",
				Help: "Dish rows by pipeline stage",
			},
			[]string{"stage"},
		),
		sheets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dishtap_sheets_written_total",
			Help: "Query sheets written to the workbook",
		}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dishtap_rows_written_total",
			Help: "Rows written across all sheets",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dishtap_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dishtap_last_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
	}
	r.registry.MustRegister(r.fetches, r.dishes, r.sheets, r.rows, r.lastSuccess, r.duration)
	return r
}

func (r *Recorder) Fetch(status int) {
	if r == nil {
		return
	}
	r.fetches.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (r *Recorder) Found(n int) {
	if r == nil {
		return
	}
	r.dishes.WithLabelValues("found").Add(float64(n))
}

func (r *Recorder) Duplicates(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.dishes.WithLabelValues("duplicate").Add(float64(n))
}

func (r *Recorder) SheetWritten(rows int) {
	if r == nil {
		return
	}
	r.sheets.Inc()
	r.rows.Add(float64(rows))
	r.dishes.WithLabelValues("kept").Add(float64(rows))
}

// Finish stamps the run end time and duration.
func (r *Recorder) Finish(started time.Time) {
	if r == nil {
		return
	}
	now := time.Now()
	r.lastSuccess.Set(float64(now.Unix()))
	r.duration.Set(now.Sub(started).Seconds())
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteFile writes all metrics to path atomically.
func (r *Recorder) WriteFile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
