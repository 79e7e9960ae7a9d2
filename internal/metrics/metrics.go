package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// GalleryUploads считает загрузки выбранных файлов при сохранении галереи
	GalleryUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_uploads_total",
			Help: "Staged gallery images uploaded to object storage, by result",
		},
		[]string{"result"},
	)

	GalleryEditSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_edit_sessions_active",
			Help: "Open gallery editing sessions",
		},
	)

	SweeperRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_sweeper_removed_total",
			Help: "Objects and previews removed by the storage sweeper",
		},
		[]string{"kind"},
	)
)
