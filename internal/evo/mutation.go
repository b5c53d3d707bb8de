package evo

import (
	"fmt"
	"math/rand"

	"evolvable/internal/genotype"
)

const DefaultMutationProbability = 0.03

// MutationConfig holds optional mutation settings. A rate without a
// probability touches every evolvable.
type MutationConfig struct {
	Probability *float64
	Rate        *float64
}

func (c MutationConfig) Build() (*Mutation, error) {
	m := &Mutation{Probability: DefaultMutationProbability}
	if c.Rate != nil {
		m.Probability = 1
		rate := *c.Rate
		if rate < 0 || rate > 1 {
			return nil, fmt.Errorf("mutation rate must be in [0, 1]: got %v", rate)
		}
		m.Rate = &rate
	}
	if c.Probability != nil {
		m.Probability = *c.Probability
	}
	if m.Probability < 0 || m.Probability > 1 {
		return nil, fmt.Errorf("mutation probability must be in [0, 1]: got %v", m.Probability)
	}
	return m, nil
}

// Mutation replaces genes with freshly sampled genes of the same type.
// Probability is the chance an evolvable is touched at all. Rate is the chance
// each gene of a touched evolvable is replaced; without a rate exactly one
// gene per group is replaced.
type Mutation struct {
	Probability float64
	Rate        *float64
}

func NewMutation() *Mutation {
	return &Mutation{Probability: DefaultMutationProbability}
}

func (m *Mutation) Call(p *Population) error {
	if m.Probability == 0 {
		return nil
	}
	m.MutateEvolvables(p.rng, p.evolvables)
	return nil
}

func (m *Mutation) MutateEvolvables(rng *rand.Rand, evolvables []Evolvable) {
	if m.Probability == 0 {
		return
	}
	for _, e := range evolvables {
		if rng.Float64() > m.Probability {
			continue
		}
		genome := e.instance().genome
		if genome == nil {
			continue
		}
		genome.Each(func(_ string, group *genotype.Group) {
			m.mutateGroup(rng, group)
		})
	}
}

func (m *Mutation) mutateGroup(rng *rand.Rand, group *genotype.Group) {
	if len(group.Genes) == 0 {
		return
	}
	if m.Rate == nil {
		i := rng.Intn(len(group.Genes))
		group.Genes[i] = group.Type.NewGene(rng)
		return
	}
	for i := range group.Genes {
		if rng.Float64() <= *m.Rate {
			group.Genes[i] = group.Type.NewGene(rng)
		}
	}
}
