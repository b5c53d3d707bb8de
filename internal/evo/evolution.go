package evo

import "fmt"

// Evolution runs selection, combination and mutation, in that order, as one
// generational step.
type Evolution struct {
	Selection   Stage
	Combination Stage
	Mutation    Stage
}

// NewEvolution fills unset stages with the defaults: truncation selection of
// two parents, gene combination and 3% single-gene mutation.
func NewEvolution(selection, combination, mutation Stage) *Evolution {
	if selection == nil {
		selection = &Selection{Size: DefaultSelectionSize}
	}
	if combination == nil {
		combination = GeneCombination{}
	}
	if mutation == nil {
		mutation = NewMutation()
	}
	return &Evolution{Selection: selection, Combination: combination, Mutation: mutation}
}

func (e *Evolution) Call(p *Population) error {
	stages := []struct {
		name  string
		stage Stage
	}{
		{"selection", e.Selection},
		{"combination", e.Combination},
		{"mutation", e.Mutation},
	}
	for _, s := range stages {
		if s.stage == nil {
			continue
		}
		if err := s.stage.Call(p); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}
