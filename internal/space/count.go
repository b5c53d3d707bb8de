package space

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"evolvable/internal/genotype"
)

// CountSpec describes how a group's count gene is created.
type CountSpec interface {
	NewCount(rng *rand.Rand) genotype.CountGene
	String() string
}

// Fixed creates a RigidCount.
type Fixed int

func (f Fixed) NewCount(_ *rand.Rand) genotype.CountGene {
	return genotype.NewRigidCount(int(f))
}

func (f Fixed) String() string { return strconv.Itoa(int(f)) }

// Range creates a RangeCount sampled within [Min, Max].
type Range struct {
	Min int
	Max int
}

func (r Range) NewCount(rng *rand.Rand) genotype.CountGene {
	return genotype.RangeCountOf(r.Min, r.Max, r.Min+rng.Intn(r.Max-r.Min+1))
}

func (r Range) String() string { return fmt.Sprintf("%d..%d", r.Min, r.Max) }

// Custom wraps a host count gene factory.
type Custom struct {
	Name    string
	Factory genotype.CountFactory
}

func (c Custom) NewCount(rng *rand.Rand) genotype.CountGene {
	return c.Factory(rng)
}

func (c Custom) String() string {
	if c.Name == "" {
		return "custom"
	}
	return c.Name
}

func (s *SearchSpace) parseCount(v any) (CountSpec, error) {
	switch c := v.(type) {
	case nil:
		return Fixed(1), nil
	case Fixed:
		return checkFixed(int(c))
	case Range:
		return checkRange(c.Min, c.Max)
	case Custom:
		if c.Factory == nil {
			return nil, fmt.Errorf("%w: custom count %q has no factory", ErrMalformedConfig, c.Name)
		}
		return c, nil
	case genotype.CountFactory:
		if c == nil {
			return nil, fmt.Errorf("%w: nil count factory", ErrMalformedConfig)
		}
		return Custom{Factory: c}, nil
	case func(*rand.Rand) genotype.CountGene:
		if c == nil {
			return nil, fmt.Errorf("%w: nil count factory", ErrMalformedConfig)
		}
		return Custom{Factory: c}, nil
	case [2]int:
		return checkRange(c[0], c[1])
	case []int:
		if len(c) != 2 {
			return nil, fmt.Errorf("%w: count range needs 2 bounds, got %d", ErrMalformedConfig, len(c))
		}
		return checkRange(c[0], c[1])
	case []any:
		if len(c) != 2 {
			return nil, fmt.Errorf("%w: count range needs 2 bounds, got %d", ErrMalformedConfig, len(c))
		}
		lo, okLo := toInt(c[0])
		hi, okHi := toInt(c[1])
		if !okLo || !okHi {
			return nil, fmt.Errorf("%w: count range bounds must be integers: %v", ErrMalformedConfig, c)
		}
		return checkRange(lo, hi)
	case string:
		return s.parseCountString(c)
	}
	if n, ok := toInt(v); ok {
		return checkFixed(n)
	}
	return nil, fmt.Errorf("%w: unsupported count %v (%T)", ErrMalformedConfig, v, v)
}

func (s *SearchSpace) parseCountString(v string) (CountSpec, error) {
	v = strings.TrimSpace(v)
	if lo, hi, ok := strings.Cut(v, ".."); ok {
		min, errLo := strconv.Atoi(strings.TrimSpace(lo))
		max, errHi := strconv.Atoi(strings.TrimSpace(hi))
		if errLo != nil || errHi != nil {
			return nil, fmt.Errorf("%w: bad count range %q", ErrMalformedConfig, v)
		}
		return checkRange(min, max)
	}
	if n, err := strconv.Atoi(v); err == nil {
		return checkFixed(n)
	}
	if factory, ok := s.registry.LookupCount(v); ok {
		return Custom{Name: v, Factory: factory}, nil
	}
	return nil, fmt.Errorf("%w: count type %q", genotype.ErrTypeNotFound, v)
}

func minMaxCount(min, max *int) (CountSpec, error) {
	lo := 1
	if min != nil {
		lo = *min
	}
	hi := lo * 10
	if max != nil {
		hi = *max
	}
	return checkRange(lo, hi)
}

func checkFixed(n int) (CountSpec, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative count %d", ErrMalformedConfig, n)
	}
	return Fixed(n), nil
}

func checkRange(min, max int) (CountSpec, error) {
	if min < 0 || max < min {
		return nil, fmt.Errorf("%w: invalid count range %d..%d", ErrMalformedConfig, min, max)
	}
	return Range{Min: min, Max: max}, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case float32:
		if n != float32(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
