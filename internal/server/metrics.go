package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	estimatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carbonacre_estimates_total",
		Help: "Single-tree estimates computed.",
	})
	exportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carbonacre_mrv_exports_total",
		Help: "MRV packages exported.",
	})
	verificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carbonacre_mrv_verifications_total",
		Help: "MRV package verifications performed.",
	})
	verifyMismatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carbonacre_mrv_verify_mismatches_total",
		Help: "Verifications whose recomputed hash did not match.",
	})
)
