// Package metrics records cascade and page outcome metrics in a private
// Prometheus registry that can be written to a node-exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/MeKo-Tech/lexocr/internal/cascade"
	"github.com/MeKo-Tech/lexocr/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempt results.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Recorder implements cascade.Observer and pipeline.Observer.
type Recorder struct {
	registry      *prometheus.Registry
	minValidWords int

	attemptsTotal     *prometheus.CounterVec
	recognizeDuration *prometheus.HistogramVec
	pageOutcomesTotal *prometheus.CounterVec
	validWords        prometheus.Histogram
	sinkErrorsTotal   prometheus.Counter
}

var (
	_ cascade.Observer  = (*Recorder)(nil)
	_ pipeline.Observer = (*Recorder)(nil)
)

// New creates a recorder with its own registry. minValidWords is the
// acceptance bar used to label attempts.
func New(minValidWords int) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry:      reg,
		minValidWords: minValidWords,
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexocr_cascade_attempts_total",
				Help: "Total number of recognition attempts",
			},
			[]string{"phase", "threshold", "result"},
		),
		recognizeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lexocr_recognize_duration_seconds",
				Help:    "Duration of one binarize and recognize attempt in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"phase"},
		),
		pageOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexocr_page_outcomes_total",
				Help: "Total number of pages by final status",
			},
			[]string{"status"},
		),
		validWords: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lexocr_valid_words",
				Help:    "Valid words per recognition attempt",
				Buckets: validWordBuckets(minValidWords),
			},
		),
		sinkErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "lexocr_sink_errors_total",
				Help: "Total number of pages the output sink failed to write",
			},
		),
	}
}

// validWordBuckets places a bucket boundary just below the acceptance bar.
func validWordBuckets(minValidWords int) []float64 {
	buckets := []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}
	if minValidWords <= 1 {
		return buckets
	}
	bar := float64(minValidWords - 1)
	for i, b := range buckets {
		if b == bar {
			return buckets
		}
		if b > bar {
			return append(buckets[:i:i], append([]float64{bar}, buckets[i:]...)...)
		}
	}
	return append(buckets, bar)
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveAttempt records one cascade attempt.
func (r *Recorder) ObserveAttempt(a cascade.Attempt) {
	result := ResultRejected
	switch {
	case a.Err != nil:
		result = ResultError
	case a.ValidWords >= r.minValidWords:
		result = ResultAccepted
	}

	phase := a.Phase.String()
	r.attemptsTotal.WithLabelValues(phase, strconv.Itoa(int(a.Threshold)), result).Inc()
	r.recognizeDuration.WithLabelValues(phase).Observe(a.Duration.Seconds())
	if a.Err == nil {
		r.validWords.Observe(float64(a.ValidWords))
	}
}

// ObserveOutcome records the final status of a page.
func (r *Recorder) ObserveOutcome(o pipeline.PageOutcome) {
	r.pageOutcomesTotal.WithLabelValues(o.Status.String()).Inc()
}

// ObserveSinkError records a page the sink failed to write.
func (r *Recorder) ObserveSinkError(pipeline.PageOutcome, error) {
	r.sinkErrorsTotal.Inc()
}

// WriteTextfile writes every metric to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
