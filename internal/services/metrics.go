package services

import "github.com/prometheus/client_golang/prometheus"

// documentSaves counts document writes by kind: full, noop, snapshot, submit.
var documentSaves = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "document_saves_total",
		Help: "Document save operations by kind.",
	},
	[]string{"kind"},
)

func init() {
	prometheus.MustRegister(documentSaves)
}
