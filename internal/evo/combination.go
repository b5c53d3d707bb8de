package evo

import (
	"errors"
	"fmt"
	"math/rand"

	"evolvable/internal/genotype"
)

var ErrTooFewParents = errors.New("combination requires at least two parents")

// Stage is one step of an evolution pipeline.
type Stage interface {
	Call(p *Population) error
}

// Combination breeds offspring from the population's parents.
type Combination interface {
	Stage
	Name() string
	NewEvolvables(p *Population, count int) ([]Evolvable, error)
}

// GenomeCycle endlessly enumerates every pair of parent genomes.
type GenomeCycle struct {
	genomes []*genotype.Genome
	pairs   [][2]int
	next    int
}

// Next returns the next pair, wrapping around after the last one.
func (c *GenomeCycle) Next() (*genotype.Genome, *genotype.Genome) {
	pair := c.pairs[c.next]
	c.next = (c.next + 1) % len(c.pairs)
	return c.genomes[pair[0]], c.genomes[pair[1]]
}

// Len is the number of distinct pairs in one cycle.
func (c *GenomeCycle) Len() int {
	return len(c.pairs)
}

func newGenomeCycle(rng *rand.Rand, genomes []*genotype.Genome) (*GenomeCycle, error) {
	if len(genomes) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewParents, len(genomes))
	}
	shuffled := append([]*genotype.Genome(nil), genomes...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	pairs := make([][2]int, 0, len(shuffled)*(len(shuffled)-1)/2)
	for i := 0; i < len(shuffled); i++ {
		for j := i + 1; j < len(shuffled); j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return &GenomeCycle{genomes: shuffled, pairs: pairs}, nil
}

// pairBreeder produces offspring genomes from one parent pair.
type pairBreeder func(rng *rand.Rand, a, b *genotype.Genome) []*genotype.Genome

// breed cycles parent pairs until count offspring exist. Offspring beyond
// count from the final pair are dropped.
func breed(p *Population, count int, fn pairBreeder) ([]Evolvable, error) {
	if count <= 0 {
		return []Evolvable{}, nil
	}
	cycle, err := p.ParentGenomeCycle()
	if err != nil {
		return nil, err
	}

	out := make([]Evolvable, 0, count)
	for len(out) < count {
		a, b := cycle.Next()
		for _, genome := range fn(p.rng, a, b) {
			if len(out) == count {
				break
			}
			e, err := p.instantiate(genome, len(out))
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
	}
	return out, nil
}

// combineGroups builds an offspring genome over the union of both parents'
// keys. Each group's size comes from combining the parents' count genes;
// slot i is filled by fill, or by a fresh gene when fill returns nil.
func combineGroups(rng *rand.Rand, a, b *genotype.Genome, fill func(t *genotype.Type, i int, genesA, genesB []genotype.Gene) genotype.Gene) *genotype.Genome {
	out := genotype.NewGenome()
	for _, key := range unionKeys(a, b) {
		groupA, okA := a.Group(key)
		groupB, okB := b.Group(key)
		switch {
		case !okA:
			groupA = groupB
		case !okB:
			groupB = groupA
		}

		count := groupA.Count.Combine(rng, groupB.Count)
		genesA, genesB := groupA.Genes, groupB.Genes
		if !okA {
			genesA = nil
		}
		if !okB {
			genesB = nil
		}
		t := groupA.Type
		out.Set(key, genotype.BuildGroup(t, count, func(i int) genotype.Gene {
			if gene := fill(t, i, genesA, genesB); gene != nil {
				return gene
			}
			return t.NewGene(rng)
		}))
	}
	return out
}

func unionKeys(a, b *genotype.Genome) []string {
	keys := a.Keys()
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		seen[key] = struct{}{}
	}
	for _, key := range b.Keys() {
		if _, ok := seen[key]; !ok {
			keys = append(keys, key)
		}
	}
	return keys
}

func geneAt(genes []genotype.Gene, i int) genotype.Gene {
	if i < len(genes) {
		return genes[i]
	}
	return nil
}

// GeneCombination defers to the gene type's own combine rule wherever both
// parents hold a gene at a position.
type GeneCombination struct{}

func (GeneCombination) Name() string { return "gene" }

func (c GeneCombination) Call(p *Population) error {
	return replaceWithOffspring(p, c)
}

func (c GeneCombination) NewEvolvables(p *Population, count int) ([]Evolvable, error) {
	return breed(p, count, func(rng *rand.Rand, a, b *genotype.Genome) []*genotype.Genome {
		return []*genotype.Genome{c.CombineGenomes(rng, a, b)}
	})
}

func (GeneCombination) CombineGenomes(rng *rand.Rand, a, b *genotype.Genome) *genotype.Genome {
	return combineGroups(rng, a, b, func(t *genotype.Type, i int, genesA, genesB []genotype.Gene) genotype.Gene {
		geneA, geneB := geneAt(genesA, i), geneAt(genesB, i)
		if geneA != nil && geneB != nil {
			return t.CombineGenes(rng, geneA, geneB)
		}
		if geneA != nil {
			return geneA
		}
		return geneB
	})
}

// UniformCrossover takes each position from a randomly chosen parent, falling
// back to the other parent when the chosen one has no gene there.
type UniformCrossover struct{}

func (UniformCrossover) Name() string { return "uniform" }

func (c UniformCrossover) Call(p *Population) error {
	return replaceWithOffspring(p, c)
}

func (c UniformCrossover) NewEvolvables(p *Population, count int) ([]Evolvable, error) {
	return breed(p, count, func(rng *rand.Rand, a, b *genotype.Genome) []*genotype.Genome {
		return []*genotype.Genome{c.CombineGenomes(rng, a, b)}
	})
}

func (UniformCrossover) CombineGenomes(rng *rand.Rand, a, b *genotype.Genome) *genotype.Genome {
	return combineGroups(rng, a, b, func(_ *genotype.Type, i int, genesA, genesB []genotype.Gene) genotype.Gene {
		first, second := geneAt(genesA, i), geneAt(genesB, i)
		if rng.Intn(2) == 1 {
			first, second = second, first
		}
		if first != nil {
			return first
		}
		return second
	})
}

func replaceWithOffspring(p *Population, c Combination) error {
	offspring, err := c.NewEvolvables(p, p.size)
	if err != nil {
		return err
	}
	p.evolvables = offspring
	return nil
}
