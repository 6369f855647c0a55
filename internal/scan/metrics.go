package scan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrattend_frames_processed_total",
		Help: "Frames run through the scan pipeline.",
	})
	decodeHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qrattend_decode_hits_total",
		Help: "Frames in which a QR code was decoded.",
	})
	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qrattend_scan_outcomes_total",
		Help: "Ledger outcomes by kind for admitted scan events.",
	}, []string{"outcome"})
)
