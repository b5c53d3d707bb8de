package genotype

import (
	"errors"
	"fmt"
	"math/rand"
)

// Gene is a single sampled trait. The engine never inspects gene values; it
// only constructs, combines, and replaces them through their Type.
type Gene any

// Type describes a host gene type: how to sample a fresh gene and how two
// genes of the type combine during recombination.
type Type struct {
	Name    string
	New     func(rng *rand.Rand) Gene
	Combine func(rng *rand.Rand, a, b Gene) Gene
}

// NewGene samples a fresh gene of the type.
func (t *Type) NewGene(rng *rand.Rand) Gene {
	return t.New(rng)
}

// CombineGenes combines two genes of the type. Types without a Combine
// function fall back to PickOne.
func (t *Type) CombineGenes(rng *rand.Rand, a, b Gene) Gene {
	if t.Combine != nil {
		return t.Combine(rng, a, b)
	}
	return PickOne(rng, a, b)
}

func (t *Type) validate() error {
	if t == nil {
		return errors.New("gene type is required")
	}
	if t.Name == "" {
		return errors.New("gene type name is required")
	}
	if t.New == nil {
		return fmt.Errorf("gene type %s: constructor is required", t.Name)
	}
	return nil
}

// PickOne uniformly picks one of the two genes, ignoring absent values.
func PickOne(rng *rand.Rand, a, b Gene) Gene {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case rng.Intn(2) == 0:
		return a
	default:
		return b
	}
}

// TypeOf builds a Type from typed constructor and combine functions. combine
// may be nil.
func TypeOf[G any](name string, newFn func(rng *rand.Rand) G, combine func(rng *rand.Rand, a, b G) G) *Type {
	t := &Type{
		Name: name,
		New: func(rng *rand.Rand) Gene {
			return newFn(rng)
		},
	}
	if combine != nil {
		t.Combine = func(rng *rand.Rand, a, b Gene) Gene {
			ga, okA := a.(G)
			gb, okB := b.(G)
			if !okA || !okB {
				return PickOne(rng, a, b)
			}
			return combine(rng, ga, gb)
		}
	}
	return t
}
