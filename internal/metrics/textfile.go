package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/restrain/internal/optim"
)

// WriteTextfile writes the metrics of one minimization in the Prometheus
// text format, for pickup by node_exporter's textfile collector.
func WriteTextfile(path, scene string, ms []Metric, res optim.Result) error {
	reg := prometheus.NewRegistry()

	values := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restrain_minimize_metric",
			Help: "Summary metrics of the last minimization per scene",
		},
		[]string{"scene", "metric"},
	)
	steps := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restrain_minimize_steps",
			Help: "Steps taken by the last minimization",
		},
		[]string{"scene"},
	)
	converged := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restrain_minimize_converged",
			Help: "1 if the last minimization converged",
		},
		[]string{"scene", "reason"},
	)
	reg.MustRegister(values, steps, converged)

	for _, m := range ms {
		values.WithLabelValues(scene, m.Name()).Set(m.Value())
	}
	steps.WithLabelValues(scene).Set(float64(res.Steps))
	c := 0.0
	if res.Converged {
		c = 1
	}
	converged.WithLabelValues(scene, res.Reason).Set(c)

	return prometheus.WriteToTextfile(path, reg)
}
