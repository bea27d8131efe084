package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placementd_scans_total",
		Help: "Scan verifications by outcome.",
	}, []string{"outcome"})

	confirmsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placementd_confirms_total",
		Help: "Attendance confirmations by outcome.",
	}, []string{"outcome"})
)
