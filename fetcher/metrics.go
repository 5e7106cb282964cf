package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
)

// fetcherMetrics counts per-lineage outcomes and webserver reloads across
// the process lifetime. In watch mode they accumulate over passes.
type fetcherMetrics struct {
	results        *prometheus.CounterVec
	reloads        prometheus.Counter
	reloadFailures prometheus.Counter
}

func newMetrics(stats prometheus.Registerer) *fetcherMetrics {
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "staple_results",
		Help: "Number of processed lineages by result.",
	}, []string{"result"})
	stats.MustRegister(results)

	reloads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webserver_reloads",
		Help: "Number of webserver reloads triggered by staple updates.",
	})
	stats.MustRegister(reloads)

	reloadFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webserver_reload_failures",
		Help: "Number of webserver reloads that did not succeed.",
	})
	stats.MustRegister(reloadFailures)

	return &fetcherMetrics{
		results:        results,
		reloads:        reloads,
		reloadFailures: reloadFailures,
	}
}
