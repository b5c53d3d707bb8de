package evo

import (
	"math/rand"
	"testing"

	"evolvable/internal/genotype"
)

type digit struct {
	V int `json:"v"`
}

var digitGene = genotype.TypeOf("Digit", func(rng *rand.Rand) *digit {
	return &digit{V: rng.Intn(10)}
}, nil)

// digits sums its genes; larger is fitter.
type digits struct {
	Instance
}

func (d *digits) Fitness() float64 {
	total := 0
	for _, gene := range d.FindGenes("digits", "extra") {
		total += gene.(*digit).V
	}
	return float64(total)
}

// stub reports a fixed fitness.
type stub struct {
	Instance
	value float64
}

func (s *stub) Fitness() float64 { return s.value }

// silent has no fitness accessor.
type silent struct {
	Instance
}

func digitRegistry() *genotype.Registry {
	return genotype.NewRegistry().MustRegister(digitGene)
}

func digitsType(count any) Type {
	return TypeFor[digits]("Digits", [][]any{{"digits", "Digit", count}})
}

func newDigitsPopulation(t *testing.T, cfg Config) *Population {
	t.Helper()
	if cfg.Type.New == nil {
		cfg.Type = digitsType("2..8")
	}
	if cfg.Registry == nil {
		cfg.Registry = digitRegistry()
	}
	p, err := NewPopulation(cfg)
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	return p
}

func newStubPopulation(t *testing.T, goal Goal, values ...float64) *Population {
	t.Helper()
	seeds := make([]Evolvable, len(values))
	for i, v := range values {
		seeds[i] = &stub{value: v}
	}
	p, err := NewPopulation(Config{
		Type:       TypeFor[stub]("Stub", nil),
		Size:       len(values),
		Goal:       goal,
		Evolvables: seeds,
		Seed:       1,
	})
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	return p
}

func fitnessOf(t *testing.T, e Evolvable) float64 {
	t.Helper()
	f, err := Fitness(e)
	if err != nil {
		t.Fatalf("fitness: %v", err)
	}
	return f
}

func digitGenome(count int, offset int) *genotype.Genome {
	g := genotype.NewGenome()
	g.Set("digits", genotype.BuildGroup(digitGene, genotype.NewRigidCount(count), func(i int) genotype.Gene {
		return &digit{V: offset + i}
	}))
	return g
}

func assertGroupInvariant(t *testing.T, e Evolvable) {
	t.Helper()
	genome := InstanceOf(e).Genome()
	if genome == nil {
		t.Fatal("evolvable has no genome")
	}
	genome.Each(func(key string, group *genotype.Group) {
		if len(group.Genes) != group.Count.Count() {
			t.Fatalf("group %s holds %d genes for count %d", key, len(group.Genes), group.Count.Count())
		}
	})
}
