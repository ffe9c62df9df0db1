package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry          *prometheus.Registry
	PagesFetchedTotal prometheus.Counter
	RecordsTotal      *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	ErrorsTotal       *prometheus.CounterVec
	ChallengesTotal   *prometheus.CounterVec
	QRGeneratedTotal  prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pagesFetched := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_listing_pages_fetched_total",
			Help: "Total listing pages fetched during pagination.",
		},
	)
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_records_total",
			Help: "Project records by outcome.",
		},
		[]string{"outcome"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for scraper requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)
	challenges := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_challenges_total",
			Help: "Anti-bot interstitials by recovery outcome.",
		},
		[]string{"outcome"},
	)
	qrGenerated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_qr_generated_total",
			Help: "QR codes generated for accepted records.",
		},
	)

	registry.MustRegister(pagesFetched, records, requestDuration, errorsTotal, challenges, qrGenerated)

	return &Metrics{
		Registry:          registry,
		PagesFetchedTotal: pagesFetched,
		RecordsTotal:      records,
		RequestDuration:   requestDuration,
		ErrorsTotal:       errorsTotal,
		ChallengesTotal:   challenges,
		QRGeneratedTotal:  qrGenerated,
	}
}

// IncPage increments the listing-page counter.
func (m *Metrics) IncPage() {
	if m == nil {
		return
	}
	m.PagesFetchedTotal.Inc()
}

// IncRecord increments the record counter for an outcome label.
func (m *Metrics) IncRecord(outcome string) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncChallenge increments the challenge counter for an outcome label.
func (m *Metrics) IncChallenge(outcome string) {
	if m == nil {
		return
	}
	m.ChallengesTotal.WithLabelValues(outcome).Inc()
}

// IncQR increments the generated QR counter.
func (m *Metrics) IncQR() {
	if m == nil {
		return
	}
	m.QRGeneratedTotal.Inc()
}
