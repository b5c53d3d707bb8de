package main

import (
	"math/rand"
	"strings"
	"unicode/utf8"

	"evolvable/internal/evo"
	"evolvable/internal/genotype"
)

const charset = " abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789.,;:!?'-"

type char struct {
	R rune `json:"r"`
}

var charGene = genotype.TypeOf("Char", func(rng *rand.Rand) *char {
	return &char{R: rune(charset[rng.Intn(len(charset))])}
}, nil)

// lengthPenalty is charged per missing or surplus character.
const lengthPenalty = 100

// phrase is the demo evolvable: its genes spell a string whose fitness is the
// distance to a target phrase, so it is evolved with the minimize goal.
type phrase struct {
	evo.Instance
	target string
}

func (p *phrase) String() string {
	var b strings.Builder
	for _, gene := range p.Genome().Genes() {
		b.WriteRune(gene.(*char).R)
	}
	return b.String()
}

func (p *phrase) Fitness() float64 {
	got := []rune(p.String())
	want := []rune(p.target)
	distance := 0
	for i := 0; i < len(got) && i < len(want); i++ {
		d := int(got[i]) - int(want[i])
		if d < 0 {
			d = -d
		}
		distance += d
	}
	diff := len(got) - len(want)
	if diff < 0 {
		diff = -diff
	}
	return float64(distance + diff*lengthPenalty)
}

func phraseRegistry() *genotype.Registry {
	return genotype.NewRegistry().MustRegister(charGene)
}

// phraseType builds the demo type. space is the TOML search space table; an
// empty table sizes a single "chars" group to the target.
func phraseType(target string, space map[string]any) evo.Type {
	if len(space) == 0 {
		space = map[string]any{
			"chars": map[string]any{"type": "Char", "count": utf8.RuneCountInString(target)},
		}
	}
	return evo.Type{
		Name: "Phrase",
		New: func() evo.Evolvable {
			return &phrase{target: target}
		},
		SearchSpace: space,
	}
}
