package evo

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

const DefaultSelectionSize = 2

var ErrSelectionSize = errors.New("selection size must be >= 2")

// Selector chooses parents from evolvables sorted ascending by score.
type Selector interface {
	Name() string
	Select(rng *rand.Rand, sorted []Evolvable) []Evolvable
}

// Selection keeps the Size best evolvables, which sit at the tail of the
// sorted population.
type Selection struct {
	Size int
}

// NewSelection validates size. Zero selects DefaultSelectionSize.
func NewSelection(size int) (*Selection, error) {
	if size == 0 {
		size = DefaultSelectionSize
	}
	if size < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrSelectionSize, size)
	}
	return &Selection{Size: size}, nil
}

func (*Selection) Name() string {
	return "truncation"
}

func (s *Selection) Select(_ *rand.Rand, sorted []Evolvable) []Evolvable {
	n := s.Size
	if n > len(sorted) {
		n = len(sorted)
	}
	return append([]Evolvable(nil), sorted[len(sorted)-n:]...)
}

func (s *Selection) Call(p *Population) error {
	return applySelection(p, s)
}

// TournamentSelection fills Size parent slots, each with the best of
// TournamentSize evolvables drawn from the not yet selected pool.
type TournamentSelection struct {
	Size           int
	TournamentSize int
}

func NewTournamentSelection(size, tournamentSize int) (*TournamentSelection, error) {
	if size == 0 {
		size = DefaultSelectionSize
	}
	if size < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrSelectionSize, size)
	}
	if tournamentSize < 0 {
		return nil, fmt.Errorf("tournament size must be >= 0: got %d", tournamentSize)
	}
	return &TournamentSelection{Size: size, TournamentSize: tournamentSize}, nil
}

func (*TournamentSelection) Name() string {
	return "tournament"
}

func (s *TournamentSelection) Select(rng *rand.Rand, sorted []Evolvable) []Evolvable {
	tournamentSize := s.TournamentSize
	if tournamentSize <= 0 {
		tournamentSize = 3
	}

	pool := make([]int, len(sorted))
	for i := range pool {
		pool[i] = i
	}
	winners := make([]int, 0, s.Size)
	for len(winners) < s.Size && len(pool) > 0 {
		best := rng.Intn(len(pool))
		for i := 1; i < tournamentSize; i++ {
			candidate := rng.Intn(len(pool))
			if pool[candidate] > pool[best] {
				best = candidate
			}
		}
		winners = append(winners, pool[best])
		pool = append(pool[:best], pool[best+1:]...)
	}

	sort.Ints(winners)
	out := make([]Evolvable, 0, len(winners))
	for _, idx := range winners {
		out = append(out, sorted[idx])
	}
	return out
}

func (s *TournamentSelection) Call(p *Population) error {
	return applySelection(p, s)
}

// applySelection promotes the host-selected evolvables, or the selector's
// picks when none were set, to parents and clears the working lists.
func applySelection(p *Population, s Selector) error {
	parents := p.selected
	if len(parents) == 0 {
		parents = s.Select(p.rng, p.evolvables)
	}
	p.parents = parents
	p.selected = nil
	p.evolvables = nil
	return nil
}
