package evo

import (
	"errors"
	"math/rand"
	"testing"

	"evolvable/internal/genotype"
)

func TestGenomeCycle(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	genomes := []*genotype.Genome{digitGenome(1, 0), digitGenome(1, 10), digitGenome(1, 20)}
	cycle, err := newGenomeCycle(rng, genomes)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if cycle.Len() != 3 {
		t.Fatalf("pairs=%d want 3", cycle.Len())
	}

	seen := map[[2]*genotype.Genome]int{}
	for i := 0; i < 9; i++ {
		a, b := cycle.Next()
		if a == b {
			t.Fatal("pair repeats a genome")
		}
		if _, ok := seen[[2]*genotype.Genome{b, a}]; ok {
			t.Fatal("pair enumerated in both orders")
		}
		seen[[2]*genotype.Genome{a, b}]++
	}
	if len(seen) != 3 {
		t.Fatalf("distinct pairs=%d want 3", len(seen))
	}
	for pair, n := range seen {
		if n != 3 {
			t.Fatalf("pair %v seen %d times, want 3", pair, n)
		}
	}

	if _, err := newGenomeCycle(rng, genomes[:1]); !errors.Is(err, ErrTooFewParents) {
		t.Fatalf("expected ErrTooFewParents, got %v", err)
	}
}

func TestPointCrossoverPartitionsParents(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	c := &PointCrossover{PointsCount: 1}
	for trial := 0; trial < 25; trial++ {
		a, b := digitGenome(6, 0), digitGenome(6, 100)
		genesA, genesB := a.FindGenes("digits"), b.FindGenes("digits")

		first, second := c.CrossoverGenomes(rng, a, b)
		childA, childB := first.FindGenes("digits"), second.FindGenes("digits")
		if len(childA) != 6 || len(childB) != 6 {
			t.Fatalf("offspring sizes %d/%d want 6/6", len(childA), len(childB))
		}

		switches := 0
		for i := 0; i < 6; i++ {
			fromA := childA[i] == genesA[i] && childB[i] == genesB[i]
			fromB := childA[i] == genesB[i] && childB[i] == genesA[i]
			if !fromA && !fromB {
				t.Fatalf("position %d is not a partition of the parents", i)
			}
			if i > 0 && (childA[i] == genesA[i]) != (childA[i-1] == genesA[i-1]) {
				switches++
			}
		}
		if switches != 1 {
			t.Fatalf("one-point crossover switched %d times", switches)
		}
		if childA[0] != genesA[0] {
			t.Fatal("first offspring must start with the first parent's segment")
		}

		for i, gene := range a.FindGenes("digits") {
			if gene.(*digit).V != i {
				t.Fatal("crossover modified a parent")
			}
		}
	}
}

func TestPointCrossoverMultiplePoints(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	c := &PointCrossover{PointsCount: 3}
	a, b := digitGenome(10, 0), digitGenome(10, 100)
	first, _ := c.CrossoverGenomes(rng, a, b)
	genes := first.FindGenes("digits")
	switches := 0
	for i := 1; i < len(genes); i++ {
		if (genes[i].(*digit).V < 100) != (genes[i-1].(*digit).V < 100) {
			switches++
		}
	}
	if switches != 3 {
		t.Fatalf("three-point crossover switched %d times", switches)
	}

	short := c.cutPoints(rng, 2)
	if len(short) != 1 || short[0] != 1 {
		t.Fatalf("expected cut points capped to [1], got %v", short)
	}
}

func TestPointCrossoverDropsSurplus(t *testing.T) {
	p := newDigitsPopulation(t, Config{Seed: 3})
	for _, offset := range []int{0, 100} {
		if _, err := p.NewEvolvable(digitGenome(6, offset)); err != nil {
			t.Fatalf("new evolvable: %v", err)
		}
	}
	p.SetParentEvolvables(p.Evolvables())

	offspring, err := (&PointCrossover{PointsCount: 1}).NewEvolvables(p, 5)
	if err != nil {
		t.Fatalf("breed: %v", err)
	}
	if len(offspring) != 5 {
		t.Fatalf("offspring=%d want 5", len(offspring))
	}
	for i, e := range offspring {
		if InstanceOf(e).GenerationIndex() != i {
			t.Fatalf("offspring %d has generation index %d", i, InstanceOf(e).GenerationIndex())
		}
		if InstanceOf(e).Population() != p {
			t.Fatal("offspring lacks population back-reference")
		}
		assertGroupInvariant(t, e)
	}
}

func TestCombinationsRespectCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	mk := func(count, lo, hi, offset int) *genotype.Genome {
		g := genotype.NewGenome()
		g.Set("digits", genotype.BuildGroup(digitGene, genotype.RangeCountOf(lo, hi, count), func(i int) genotype.Gene {
			return &digit{V: offset + i}
		}))
		return g
	}
	strategies := []interface {
		CombineGenomes(rng *rand.Rand, a, b *genotype.Genome) *genotype.Genome
	}{GeneCombination{}, UniformCrossover{}}

	for _, strategy := range strategies {
		for i := 0; i < 200; i++ {
			a, b := mk(2, 2, 6, 0), mk(6, 0, 10, 100)
			child := strategy.CombineGenomes(rng, a, b)
			group, ok := child.Group("digits")
			if !ok {
				t.Fatal("missing digits group")
			}
			if n := group.Count.Count(); n < 2 || n > 6 {
				t.Fatalf("%T count %d escaped 2..6", strategy, n)
			}
			if len(group.Genes) != group.Count.Count() {
				t.Fatalf("%T holds %d genes for count %d", strategy, len(group.Genes), group.Count.Count())
			}
			for j, gene := range group.Genes {
				if gene == nil {
					t.Fatalf("%T left position %d empty", strategy, j)
				}
			}
		}
	}
}

func TestGeneCombinationUsesTypeCombine(t *testing.T) {
	summed := genotype.TypeOf("Summed", func(*rand.Rand) *digit { return &digit{} },
		func(_ *rand.Rand, a, b *digit) *digit { return &digit{V: a.V + b.V} })
	mk := func(values ...int) *genotype.Genome {
		g := genotype.NewGenome()
		g.Set("digits", genotype.BuildGroup(summed, genotype.NewRigidCount(len(values)), func(i int) genotype.Gene {
			return &digit{V: values[i]}
		}))
		return g
	}
	child := GeneCombination{}.CombineGenomes(rand.New(rand.NewSource(1)), mk(1, 2, 3), mk(10, 20))
	genes := child.FindGenes("digits")
	want := []int{11, 22, 3}
	if len(genes) != len(want) {
		t.Fatalf("genes=%d want %d", len(genes), len(want))
	}
	for i, w := range want {
		if genes[i].(*digit).V != w {
			t.Fatalf("position %d = %d want %d", i, genes[i].(*digit).V, w)
		}
	}
}

func TestUniformCrossoverPicksFromParents(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	a, b := digitGenome(32, 0), digitGenome(32, 100)
	child := UniformCrossover{}.CombineGenomes(rng, a, b)
	fromA, fromB := 0, 0
	for i, gene := range child.FindGenes("digits") {
		switch gene {
		case a.FindGenes("digits")[i]:
			fromA++
		case b.FindGenes("digits")[i]:
			fromB++
		default:
			t.Fatalf("position %d came from neither parent", i)
		}
	}
	if fromA == 0 || fromB == 0 {
		t.Fatalf("expected genes from both parents, got %d/%d", fromA, fromB)
	}
}

func TestCombinationUnionsKeys(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := digitGenome(2, 0)
	b := digitGenome(2, 10)
	b.Set("extra", genotype.BuildGroup(digitGene, genotype.NewRigidCount(3), func(i int) genotype.Gene {
		return &digit{V: 50 + i}
	}))

	for _, child := range []*genotype.Genome{
		GeneCombination{}.CombineGenomes(rng, a, b),
		UniformCrossover{}.CombineGenomes(rng, a, b),
	} {
		if got := child.Keys(); len(got) != 2 || got[0] != "digits" || got[1] != "extra" {
			t.Fatalf("unexpected keys: %v", got)
		}
		if got := child.FindGenesCount("extra"); got != 3 {
			t.Fatalf("extra count=%d want 3", got)
		}
	}
	first, second := (&PointCrossover{PointsCount: 1}).CrossoverGenomes(rng, a, b)
	if first.FindGenesCount("extra") != 3 || second.FindGenesCount("extra") != 3 {
		t.Fatal("point crossover dropped a key present in one parent")
	}
}

func TestCombinationRequiresParents(t *testing.T) {
	p := newDigitsPopulation(t, Config{Size: 4, Seed: 1})
	p.SetParentEvolvables(p.Evolvables()[:1])
	if _, err := (GeneCombination{}).NewEvolvables(p, 4); !errors.Is(err, ErrTooFewParents) {
		t.Fatalf("expected ErrTooFewParents, got %v", err)
	}
	offspring, err := (GeneCombination{}).NewEvolvables(p, 0)
	if err != nil || len(offspring) != 0 {
		t.Fatalf("expected no offspring and no error, got %d %v", len(offspring), err)
	}
}
