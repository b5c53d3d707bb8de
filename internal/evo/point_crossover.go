package evo

import (
	"fmt"
	"math/rand"
	"sort"

	"evolvable/internal/genotype"
)

// PointCrossover is classic k-point crossover. Each parent pair yields two
// complementary offspring; the parents are never modified.
type PointCrossover struct {
	PointsCount int
}

func NewPointCrossover(pointsCount int) (*PointCrossover, error) {
	if pointsCount < 1 {
		return nil, fmt.Errorf("points count must be >= 1: got %d", pointsCount)
	}
	return &PointCrossover{PointsCount: pointsCount}, nil
}

func (*PointCrossover) Name() string { return "point" }

func (c *PointCrossover) Call(p *Population) error {
	return replaceWithOffspring(p, c)
}

func (c *PointCrossover) NewEvolvables(p *Population, count int) ([]Evolvable, error) {
	return breed(p, count, func(rng *rand.Rand, a, b *genotype.Genome) []*genotype.Genome {
		first, second := c.CrossoverGenomes(rng, a, b)
		return []*genotype.Genome{first, second}
	})
}

// CrossoverGenomes cuts every group at the same random points and swaps
// alternate segments. The first offspring starts with a's segment, the second
// with b's. Positions beyond a parent's list fall back to the other parent,
// then to a fresh gene.
func (c *PointCrossover) CrossoverGenomes(rng *rand.Rand, a, b *genotype.Genome) (*genotype.Genome, *genotype.Genome) {
	first := genotype.NewGenome()
	second := genotype.NewGenome()
	for _, key := range unionKeys(a, b) {
		groupA, okA := a.Group(key)
		groupB, okB := b.Group(key)
		switch {
		case !okA:
			groupA = groupB
		case !okB:
			groupB = groupA
		}
		var genesA, genesB []genotype.Gene
		if okA {
			genesA = groupA.Genes
		}
		if okB {
			genesB = groupB.Genes
		}

		countA := groupA.Count.Combine(rng, groupB.Count)
		countB := groupB.Count.Combine(rng, groupA.Count)
		span := countA.Count()
		if countB.Count() > span {
			span = countB.Count()
		}
		cuts := c.cutPoints(rng, span)

		t := groupA.Type
		first.Set(key, genotype.BuildGroup(t, countA, func(i int) genotype.Gene {
			return pickSegment(rng, t, i, cuts, genesA, genesB)
		}))
		second.Set(key, genotype.BuildGroup(groupB.Type, countB, func(i int) genotype.Gene {
			return pickSegment(rng, groupB.Type, i, cuts, genesB, genesA)
		}))
	}
	return first, second
}

// cutPoints picks up to PointsCount distinct cut positions in [1, span).
func (c *PointCrossover) cutPoints(rng *rand.Rand, span int) []int {
	if span < 2 {
		return nil
	}
	n := c.PointsCount
	if n <= 0 {
		n = 1
	}
	if n > span-1 {
		n = span - 1
	}
	cuts := rng.Perm(span - 1)[:n]
	for i := range cuts {
		cuts[i]++
	}
	sort.Ints(cuts)
	return cuts
}

func pickSegment(rng *rand.Rand, t *genotype.Type, i int, cuts []int, own, other []genotype.Gene) genotype.Gene {
	segment := sort.SearchInts(cuts, i+1)
	source, fallback := own, other
	if segment%2 == 1 {
		source, fallback = other, own
	}
	if gene := geneAt(source, i); gene != nil {
		return gene
	}
	if gene := geneAt(fallback, i); gene != nil {
		return gene
	}
	return t.NewGene(rng)
}
