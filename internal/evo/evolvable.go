package evo

import (
	"errors"
	"fmt"

	"evolvable/internal/genotype"
)

// Evolvable is a candidate solution managed by a population. Host types
// satisfy it by embedding Instance:
//
//	type Phrase struct {
//		evo.Instance
//	}
type Evolvable interface {
	instance() *Instance
}

// Instance is the engine-owned state of an evolvable.
type Instance struct {
	genome          *genotype.Genome
	population      *Population
	generationIndex int
}

func (i *Instance) instance() *Instance { return i }

func (i *Instance) Genome() *genotype.Genome { return i.genome }

func (i *Instance) Population() *Population { return i.population }

// GenerationIndex is the evolvable's position in the generation that bred it.
func (i *Instance) GenerationIndex() int { return i.generationIndex }

func (i *Instance) FindGene(key string) genotype.Gene {
	if i.genome == nil {
		return nil
	}
	return i.genome.FindGene(key)
}

func (i *Instance) FindGenes(keys ...string) []genotype.Gene {
	if i.genome == nil {
		return nil
	}
	return i.genome.FindGenes(keys...)
}

func (i *Instance) FindGenesCount(key string) int {
	if i.genome == nil {
		return 0
	}
	return i.genome.FindGenesCount(key)
}

// Hook observes a population at a fixed point of the generation loop.
type Hook func(p *Population)

// Hooks are the lifecycle callbacks of the generation loop. Unset hooks are
// no-ops.
type Hooks struct {
	BeforeEvaluation Hook
	BeforeEvolution  Hook
	AfterEvolution   Hook
}

// Chain returns hooks that run h first and then next.
func (h Hooks) Chain(next Hooks) Hooks {
	return Hooks{
		BeforeEvaluation: chainHook(h.BeforeEvaluation, next.BeforeEvaluation),
		BeforeEvolution:  chainHook(h.BeforeEvolution, next.BeforeEvolution),
		AfterEvolution:   chainHook(h.AfterEvolution, next.AfterEvolution),
	}
}

func chainHook(first, second Hook) Hook {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	}
	return func(p *Population) {
		first(p)
		second(p)
	}
}

func (h Hook) call(p *Population) {
	if h != nil {
		h(p)
	}
}

// Type describes a host evolvable type: how to construct a blank instance,
// the gene configuration its search space is built from, and its hooks.
type Type struct {
	Name        string
	New         func() Evolvable
	SearchSpace any
	Hooks       Hooks
}

// TypeFor builds a Type whose instances are zero values of T.
func TypeFor[T any, PT interface {
	*T
	Evolvable
}](name string, searchSpace any) Type {
	return Type{
		Name:        name,
		New:         func() Evolvable { return PT(new(T)) },
		SearchSpace: searchSpace,
	}
}

func (t Type) validate() error {
	if t.New == nil {
		return errors.New("evolvable type constructor is required")
	}
	return nil
}

func (t Type) construct() (Evolvable, error) {
	e := t.New()
	if e == nil {
		return nil, fmt.Errorf("evolvable type %s constructed a nil evolvable", t.Name)
	}
	return e, nil
}

// InstanceOf exposes the engine state embedded in e.
func InstanceOf(e Evolvable) *Instance {
	return e.instance()
}
