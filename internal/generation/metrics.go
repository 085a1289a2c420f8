package generation

import "github.com/prometheus/client_golang/prometheus"

var generationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "ptmt",
		Subsystem: "generation",
		Name:      "results_total",
		Help:      "Terminal outcomes of generation jobs",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(generationsTotal)
}
