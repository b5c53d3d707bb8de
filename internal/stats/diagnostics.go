package stats

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"evolvable/internal/model"
)

// Summarize describes one evaluated generation from its scores, which are
// expected in ascending order.
func Summarize(generation int, scores []float64) model.GenerationDiagnostics {
	diag := model.GenerationDiagnostics{Generation: generation, Size: len(scores)}
	if len(scores) == 0 {
		return diag
	}
	diag.BestScore = floats.Max(scores)
	diag.MinScore = floats.Min(scores)
	diag.MeanScore, diag.StdDevScore = stat.MeanStdDev(scores, nil)
	if len(scores) == 1 {
		diag.StdDevScore = 0
	}
	return diag
}

// RunSummary aggregates the diagnostics of one run.
type RunSummary struct {
	Generations     int     `json:"generations"`
	GoalMet         bool    `json:"goal_met"`
	FinalBestScore  float64 `json:"final_best_score"`
	FinalBestFit    float64 `json:"final_best_fitness"`
	MeanBestScore   float64 `json:"mean_best_score"`
	StdDevBestScore float64 `json:"stddev_best_score"`
	MedianBestScore float64 `json:"median_best_score"`
	Improvements    int     `json:"improvements"`
}

// SummarizeRun condenses per-generation diagnostics.
func SummarizeRun(history []model.GenerationDiagnostics) RunSummary {
	if len(history) == 0 {
		return RunSummary{}
	}

	best := make([]float64, len(history))
	improvements := 0
	for i, diag := range history {
		best[i] = diag.BestScore
		if i > 0 && diag.BestScore > history[i-1].BestScore {
			improvements++
		}
	}
	last := history[len(history)-1]

	summary := RunSummary{
		Generations:    len(history),
		GoalMet:        last.GoalMet,
		FinalBestScore: last.BestScore,
		FinalBestFit:   last.BestFitness,
		Improvements:   improvements,
	}
	summary.MeanBestScore, summary.StdDevBestScore = stat.MeanStdDev(best, nil)
	if len(best) == 1 {
		summary.StdDevBestScore = 0
	}
	sorted := append([]float64(nil), best...)
	sort.Float64s(sorted)
	summary.MedianBestScore = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return summary
}
