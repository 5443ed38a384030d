package assistant

import "github.com/prometheus/client_golang/prometheus"

var (
	// replyOutcomes counts stored assistant replies by how they were produced.
	replyOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_replies_total",
			Help: "Assistant replies by outcome.",
		},
		[]string{"outcome"},
	)

	// jobResults counts reply jobs by dispatcher and result.
	jobResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_jobs_total",
			Help: "Assistant reply jobs by dispatcher and result.",
		},
		[]string{"dispatcher", "result"},
	)
)

func init() {
	prometheus.MustRegister(replyOutcomes, jobResults)
}

func observeJob(dispatcher string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	jobResults.WithLabelValues(dispatcher, result).Inc()
}
