package evo

import (
	"cmp"
	"fmt"

	"golang.org/x/exp/slices"
)

// Evaluation orders a population by its goal.
type Evaluation struct {
	Goal Goal

	scores []float64
}

// NewEvaluation wraps goal. A nil goal maximizes.
func NewEvaluation(goal Goal) *Evaluation {
	if goal == nil {
		goal = NewMaximize()
	}
	return &Evaluation{Goal: goal}
}

type scoredEvolvable struct {
	evolvable Evolvable
	score     float64
}

// Call stable-sorts the population ascending by score, so the best evolvable
// ends up last. The population is left untouched when any score fails.
func (ev *Evaluation) Call(p *Population) error {
	ranked := make([]scoredEvolvable, 0, len(p.evolvables))
	for i, e := range p.evolvables {
		score, err := ev.Goal.Evaluate(e)
		if err != nil {
			return fmt.Errorf("evaluate evolvable %d: %w", i, err)
		}
		ranked = append(ranked, scoredEvolvable{evolvable: e, score: score})
	}
	slices.SortStableFunc(ranked, func(a, b scoredEvolvable) int {
		return cmp.Compare(a.score, b.score)
	})

	sorted := make([]Evolvable, len(ranked))
	scores := make([]float64, len(ranked))
	for i, item := range ranked {
		sorted[i] = item.evolvable
		scores[i] = item.score
	}
	p.evolvables = sorted
	ev.scores = scores
	return nil
}

// Scores returns the scores computed by the last Call, aligned with the
// sorted evolvables.
func (ev *Evaluation) Scores() []float64 {
	return slices.Clone(ev.scores)
}

// BestEvolvable scores every evolvable again and returns the highest scoring
// one regardless of the current order. It returns nil for an empty population.
func (ev *Evaluation) BestEvolvable(p *Population) (Evolvable, error) {
	var (
		best      Evolvable
		bestScore float64
	)
	for i, e := range p.evolvables {
		score, err := ev.Goal.Evaluate(e)
		if err != nil {
			return nil, fmt.Errorf("evaluate evolvable %d: %w", i, err)
		}
		if best == nil || score > bestScore {
			best, bestScore = e, score
		}
	}
	return best, nil
}

// MetGoal reports whether the last evolvable meets the goal.
func (ev *Evaluation) MetGoal(p *Population) (bool, error) {
	if len(p.evolvables) == 0 {
		return false, nil
	}
	return ev.Goal.Met(p.evolvables[len(p.evolvables)-1])
}
