package genotype

import (
	"fmt"
	"math/rand"

	"golang.org/x/exp/constraints"
)

// CountGene governs how many genes a group holds.
type CountGene interface {
	Count() int
	Bounds() (lo, hi int)
	Combine(rng *rand.Rand, other CountGene) CountGene
}

// CountFactory builds a fresh count gene for a new genome.
type CountFactory func(rng *rand.Rand) CountGene

// RigidCount is a fixed cardinality that never drifts across generations.
type RigidCount struct {
	n int
}

func NewRigidCount(n int) *RigidCount {
	return &RigidCount{n: n}
}

func (c *RigidCount) Count() int { return c.n }

func (c *RigidCount) Bounds() (int, int) { return c.n, c.n }

// Combine always returns the receiver.
func (c *RigidCount) Combine(_ *rand.Rand, _ CountGene) CountGene {
	return c
}

func (c *RigidCount) String() string {
	return fmt.Sprintf("count(%d)", c.n)
}

// RangeCount is an evolvable cardinality bounded by [min, max].
type RangeCount struct {
	min   int
	max   int
	count int
}

// NewRangeCount samples a count within [min, max]. The sampled count is cached
// on the gene.
func NewRangeCount(rng *rand.Rand, lo, hi int) (*RangeCount, error) {
	if lo < 0 || hi < lo {
		return nil, fmt.Errorf("invalid count range %d..%d", lo, hi)
	}
	return &RangeCount{min: lo, max: hi, count: lo + rng.Intn(hi-lo+1)}, nil
}

// RangeCountOf rebuilds a range count gene with a known count, clamped to the range.
func RangeCountOf(lo, hi, count int) *RangeCount {
	return &RangeCount{min: lo, max: hi, count: clamp(count, lo, hi)}
}

func (c *RangeCount) Count() int { return c.count }

func (c *RangeCount) Bounds() (int, int) { return c.min, c.max }

// Combine picks either a random walk from one parent's count or the average of
// both counts, clamped to the receiver's range.
func (c *RangeCount) Combine(rng *rand.Rand, other CountGene) CountGene {
	if other == nil {
		return RangeCountOf(c.min, c.max, c.count)
	}
	var count int
	if rng.Intn(2) == 0 {
		base := c.count
		if rng.Intn(2) == 1 {
			base = other.Count()
		}
		count = base + rng.Intn(3) - 1
	} else {
		count = (c.count + other.Count()) / 2
	}
	return RangeCountOf(c.min, c.max, count)
}

func (c *RangeCount) String() string {
	return fmt.Sprintf("count(%d in %d..%d)", c.count, c.min, c.max)
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
