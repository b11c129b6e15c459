// Package metrics provides Prometheus metrics for blogscraper.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch kinds.
const (
	KindListing = "listing"
	KindArticle = "article"
)

var (
	// FetchTotal counts page fetches by kind and status.
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogscraper",
			Name:      "fetch_total",
			Help:      "Total number of page fetches",
		},
		[]string{"kind", "status"},
	)

	// FetchDuration measures page fetch duration.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blogscraper",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of page fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// ContentOutcomes counts article content extractions by outcome.
	ContentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogscraper",
			Name:      "content_extractions_total",
			Help:      "Total number of article content extractions by outcome",
		},
		[]string{"outcome"},
	)

	// BatchRuns counts batch scrape runs by status.
	BatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogscraper",
			Name:      "batch_runs_total",
			Help:      "Total number of batch scrape runs",
		},
		[]string{"status"},
	)

	// BatchDuration measures batch scrape duration.
	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "blogscraper",
			Name:      "batch_duration_seconds",
			Help:      "Duration of batch scrape runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// ArticlesSaved counts persisted articles by action.
	ArticlesSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogscraper",
			Name:      "articles_saved_total",
			Help:      "Total number of articles written by batch scrapes",
		},
		[]string{"action"},
	)
)

// RecordFetch records one fetch of the given kind.
func RecordFetch(kind string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	FetchTotal.WithLabelValues(kind, status).Inc()
	FetchDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordContentOutcome records how an article content extraction ended.
func RecordContentOutcome(outcome string) {
	ContentOutcomes.WithLabelValues(outcome).Inc()
}

// RecordBatch records a finished batch scrape run.
func RecordBatch(err error, duration time.Duration, created, updated int) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	BatchRuns.WithLabelValues(status).Inc()
	BatchDuration.Observe(duration.Seconds())
	if created > 0 {
		ArticlesSaved.WithLabelValues("created").Add(float64(created))
	}
	if updated > 0 {
		ArticlesSaved.WithLabelValues("updated").Add(float64(updated))
	}
}
