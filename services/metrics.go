package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	qrGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boozebuddy_qr_artifacts_generated_total",
		Help: "QR code pairs whose SVG and info.json were both written.",
	})
	qrSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boozebuddy_qr_pairs_skipped_total",
		Help: "Pairs skipped because they were already distributed.",
	})
	qrFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boozebuddy_qr_pairs_failed_total",
		Help: "Pairs that failed during distribution, by stage.",
	}, []string{"stage"})
	distributionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "boozebuddy_distribution_duration_seconds",
		Help:    "Wall time of a distribute or repair call.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"op"})
	scansRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boozebuddy_scans_recorded_total",
		Help: "QR scans recorded, by counting scheme.",
	}, []string{"scheme"})
)
