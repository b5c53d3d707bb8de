// Package metrics exports population progress as prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"evolvable/internal/evo"
)

const namespace = "evolvable"

// Recorder owns a private registry so several recorders can coexist in one
// process and in tests.
type Recorder struct {
	registry *prometheus.Registry

	generations *prometheus.CounterVec
	bestScore   *prometheus.GaugeVec
	meanScore   *prometheus.GaugeVec
	bestFitness *prometheus.GaugeVec
	size        *prometheus.GaugeVec
	goalMet     *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	labels := []string{"population"}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Completed evolution steps.",
		}, labels),
		bestScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_score",
			Help:      "Goal score of the best evolvable in the last evaluation.",
		}, labels),
		meanScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mean_score",
			Help:      "Mean goal score of the last evaluation.",
		}, labels),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_fitness",
			Help:      "Fitness of the best evolvable in the last evaluation.",
		}, labels),
		size: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "population_size",
			Help:      "Evolvables evaluated in the last generation.",
		}, labels),
		goalMet: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "goal_met",
			Help:      "1 once the best evolvable meets the goal.",
		}, labels),
	}
	r.registry.MustRegister(r.generations, r.bestScore, r.meanScore, r.bestFitness, r.size, r.goalMet)
	return r
}

// Hooks returns lifecycle hooks that feed the recorder. Chain them onto a
// population's own hooks through evo.Config.Hooks.
func (r *Recorder) Hooks() evo.Hooks {
	return evo.Hooks{
		BeforeEvolution: r.observe,
		AfterEvolution: func(p *evo.Population) {
			r.generations.WithLabelValues(p.ID()).Inc()
		},
	}
}

func (r *Recorder) observe(p *evo.Population) {
	diag, ok := p.LastDiagnostics()
	if !ok {
		return
	}
	id := p.ID()
	r.bestScore.WithLabelValues(id).Set(diag.BestScore)
	r.meanScore.WithLabelValues(id).Set(diag.MeanScore)
	r.bestFitness.WithLabelValues(id).Set(diag.BestFitness)
	r.size.WithLabelValues(id).Set(float64(diag.Size))
	met := 0.0
	if diag.GoalMet {
		met = 1
	}
	r.goalMet.WithLabelValues(id).Set(met)
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the recorder's registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
