// Package space normalizes declarative gene configuration into a search space:
// the ordered table of gene descriptors an evolvable type draws its genomes
// from.
//
// Accepted configuration forms:
//
//	map[string]GeneConfig{"chars": {Type: "CharGene", Count: space.Range{Min: 1, Max: 40}}}
//	map[string]any{"chars": map[string]any{"type": "CharGene", "count": "1..40"}}
//	[][]any{{"chars", "CharGene", space.Range{Min: 1, Max: 40}}}
//	[]any{"CharGene", space.Range{Min: 1, Max: 40}}
//	space.NewSchema().Gene("chars", "CharGene", space.Range{Min: 1, Max: 40})
package space

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"evolvable/internal/genotype"
)

var (
	ErrDuplicateGene    = errors.New("duplicate gene name")
	ErrClusterCollision = errors.New("cluster name collides with gene name")
	ErrMalformedConfig  = errors.New("malformed search space config")
)

// Descriptor is the canonical form of one declared gene group.
type Descriptor struct {
	Key     string
	Type    *genotype.Type
	Count   CountSpec
	Cluster string
}

// GeneConfig is the typed hash form of a gene declaration. Type is a registered
// identifier or a *genotype.Type. MinCount and MaxCount take precedence over
// Count when either is set.
type GeneConfig struct {
	Type     any
	Count    any
	MinCount *int
	MaxCount *int
}

// SearchSpace is the immutable blueprint genomes are built from.
type SearchSpace struct {
	registry    *genotype.Registry
	descriptors []Descriptor
	index       map[string]int
}

// Build normalizes config. A config that is already a *SearchSpace is returned
// unchanged; reg is attached to it only when it has none.
func Build(config any, reg *genotype.Registry) (*SearchSpace, error) {
	if existing, ok := config.(*SearchSpace); ok && existing != nil {
		if existing.registry == nil {
			existing.registry = reg
		}
		return existing, nil
	}

	s := &SearchSpace{registry: reg, index: make(map[string]int)}
	descriptors, err := s.normalize(config)
	if err != nil {
		return nil, err
	}
	s.putAll(descriptors)
	if err := checkClusters(s.descriptors); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SearchSpace) Registry() *genotype.Registry {
	return s.registry
}

// NewGenome builds a genome with a fresh count gene and exactly count fresh
// genes for every declared key.
func (s *SearchSpace) NewGenome(rng *rand.Rand) *genotype.Genome {
	genome := genotype.NewGenome()
	for _, d := range s.descriptors {
		genome.Set(d.Key, genotype.NewGroup(rng, d.Type, d.Count.NewCount(rng)))
	}
	return genome
}

func (s *SearchSpace) Descriptors() []Descriptor {
	return append([]Descriptor(nil), s.descriptors...)
}

func (s *SearchSpace) Descriptor(key string) (Descriptor, bool) {
	i, ok := s.index[key]
	if !ok {
		return Descriptor{}, false
	}
	return s.descriptors[i], true
}

func (s *SearchSpace) Keys() []string {
	keys := make([]string, 0, len(s.descriptors))
	for _, d := range s.descriptors {
		keys = append(keys, d.Key)
	}
	return keys
}

// ClusterKeys lists the keys declared under cluster name, in declaration order.
func (s *SearchSpace) ClusterKeys(name string) []string {
	var keys []string
	for _, d := range s.descriptors {
		if d.Cluster == name {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

func (s *SearchSpace) Len() int {
	return len(s.descriptors)
}

// Merge returns a new search space holding the receiver's entries overwritten
// and extended by other's.
func (s *SearchSpace) Merge(other any) (*SearchSpace, error) {
	out := s.clone()
	if err := out.MergeInPlace(other); err != nil {
		return nil, err
	}
	return out, nil
}

// MergeInPlace overwrites and extends the receiver with other's entries.
func (s *SearchSpace) MergeInPlace(other any) error {
	descriptors, err := s.normalize(other)
	if err != nil {
		return err
	}
	merged := s.clone()
	merged.putAll(descriptors)
	if err := checkClusters(merged.descriptors); err != nil {
		return err
	}
	s.descriptors = merged.descriptors
	s.index = merged.index
	return nil
}

func (s *SearchSpace) clone() *SearchSpace {
	out := &SearchSpace{
		registry:    s.registry,
		descriptors: append([]Descriptor(nil), s.descriptors...),
		index:       make(map[string]int, len(s.index)),
	}
	for k, v := range s.index {
		out.index[k] = v
	}
	return out
}

func (s *SearchSpace) putAll(descriptors []Descriptor) {
	for _, d := range descriptors {
		if i, exists := s.index[d.Key]; exists {
			s.descriptors[i] = d
			continue
		}
		s.index[d.Key] = len(s.descriptors)
		s.descriptors = append(s.descriptors, d)
	}
}

func (s *SearchSpace) normalize(config any) ([]Descriptor, error) {
	switch c := config.(type) {
	case nil:
		return nil, nil
	case *SearchSpace:
		if c == nil {
			return nil, nil
		}
		return c.Descriptors(), nil
	case *Schema:
		return s.fromSchema(c)
	case []Descriptor:
		return s.fromDescriptors(c)
	case map[string]GeneConfig:
		out := make([]Descriptor, 0, len(c))
		for _, key := range sortedKeys(c) {
			d, err := s.fromGeneConfig(key, c[key])
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	case map[string]any:
		out := make([]Descriptor, 0, len(c))
		for _, key := range sortedKeys(c) {
			d, err := s.fromHashEntry(key, c[key])
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	case [][]any:
		return s.fromTuples(c)
	case []any:
		if len(c) == 0 {
			return nil, nil
		}
		if _, nested := c[0].([]any); nested {
			tuples := make([][]any, 0, len(c))
			for i, item := range c {
				tuple, ok := item.([]any)
				if !ok {
					return nil, fmt.Errorf("%w: entry %d is %T, want a tuple", ErrMalformedConfig, i, item)
				}
				tuples = append(tuples, tuple)
			}
			return s.fromTuples(tuples)
		}
		d, err := s.fromTuple(c)
		if err != nil {
			return nil, err
		}
		return []Descriptor{d}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported config type %T", ErrMalformedConfig, config)
	}
}

func (s *SearchSpace) fromDescriptors(in []Descriptor) ([]Descriptor, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]Descriptor, 0, len(in))
	for _, d := range in {
		if d.Key == "" || d.Type == nil {
			return nil, fmt.Errorf("%w: descriptor needs a key and a type: %+v", ErrMalformedConfig, d)
		}
		if _, dup := seen[d.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGene, d.Key)
		}
		seen[d.Key] = struct{}{}
		if d.Count == nil {
			d.Count = Fixed(1)
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *SearchSpace) fromGeneConfig(key string, cfg GeneConfig) (Descriptor, error) {
	if cfg.Type == nil {
		return Descriptor{}, fmt.Errorf("%w: gene %s has no type", ErrMalformedConfig, key)
	}
	t, err := s.resolveType(cfg.Type)
	if err != nil {
		return Descriptor{}, fmt.Errorf("gene %s: %w", key, err)
	}
	var count CountSpec
	if cfg.MinCount != nil || cfg.MaxCount != nil {
		count, err = minMaxCount(cfg.MinCount, cfg.MaxCount)
	} else {
		count, err = s.parseCount(cfg.Count)
	}
	if err != nil {
		return Descriptor{}, fmt.Errorf("gene %s: %w", key, err)
	}
	return Descriptor{Key: key, Type: t, Count: count}, nil
}

func (s *SearchSpace) fromHashEntry(key string, entry any) (Descriptor, error) {
	switch e := entry.(type) {
	case GeneConfig:
		return s.fromGeneConfig(key, e)
	case map[string]any:
		var cfg GeneConfig
		for field, value := range e {
			switch field {
			case "type":
				cfg.Type = value
			case "count":
				cfg.Count = value
			case "min_count", "max_count":
				n, ok := toInt(value)
				if !ok {
					return Descriptor{}, fmt.Errorf("%w: gene %s: %s must be an integer, got %v", ErrMalformedConfig, key, field, value)
				}
				if field == "min_count" {
					cfg.MinCount = &n
				} else {
					cfg.MaxCount = &n
				}
			default:
				return Descriptor{}, fmt.Errorf("%w: gene %s: unknown field %q", ErrMalformedConfig, key, field)
			}
		}
		return s.fromGeneConfig(key, cfg)
	default:
		return Descriptor{}, fmt.Errorf("%w: gene %s: entry is %T, want a table", ErrMalformedConfig, key, entry)
	}
}

func (s *SearchSpace) fromTuples(tuples [][]any) ([]Descriptor, error) {
	out := make([]Descriptor, 0, len(tuples))
	seen := make(map[string]struct{}, len(tuples))
	for _, tuple := range tuples {
		d, err := s.fromTuple(tuple)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[d.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGene, d.Key)
		}
		seen[d.Key] = struct{}{}
		out = append(out, d)
	}
	return out, nil
}

// fromTuple accepts [type], [type, count], [name, type] and [name, type, count].
// A first element that does not resolve to a known type is read as a name.
func (s *SearchSpace) fromTuple(tuple []any) (Descriptor, error) {
	switch len(tuple) {
	case 1:
		t, err := s.resolveType(tuple[0])
		if err != nil {
			return Descriptor{}, err
		}
		return Descriptor{Key: t.Name, Type: t, Count: Fixed(1)}, nil
	case 2:
		if t, ok := s.tryType(tuple[0]); ok {
			if _, secondIsType := s.tryType(tuple[1]); !secondIsType {
				count, err := s.parseCount(tuple[1])
				if err != nil {
					return Descriptor{}, fmt.Errorf("gene %s: %w", t.Name, err)
				}
				return Descriptor{Key: t.Name, Type: t, Count: count}, nil
			}
		}
		return s.namedTuple(tuple[0], tuple[1], nil)
	case 3:
		return s.namedTuple(tuple[0], tuple[1], tuple[2])
	default:
		return Descriptor{}, fmt.Errorf("%w: tuple must have 1 to 3 elements, got %d: %v", ErrMalformedConfig, len(tuple), tuple)
	}
}

func (s *SearchSpace) namedTuple(name, typ, count any) (Descriptor, error) {
	key, ok := name.(string)
	if !ok || key == "" {
		return Descriptor{}, fmt.Errorf("%w: gene name must be a non-empty string, got %v (%T)", ErrMalformedConfig, name, name)
	}
	t, err := s.resolveType(typ)
	if err != nil {
		return Descriptor{}, fmt.Errorf("gene %s: %w", key, err)
	}
	spec, err := s.parseCount(count)
	if err != nil {
		return Descriptor{}, fmt.Errorf("gene %s: %w", key, err)
	}
	return Descriptor{Key: key, Type: t, Count: spec}, nil
}

func (s *SearchSpace) tryType(v any) (*genotype.Type, bool) {
	switch t := v.(type) {
	case *genotype.Type:
		return t, t != nil
	case string:
		found, err := s.registry.Lookup(t)
		return found, err == nil
	default:
		return nil, false
	}
}

func (s *SearchSpace) resolveType(v any) (*genotype.Type, error) {
	switch t := v.(type) {
	case *genotype.Type:
		if t == nil {
			return nil, fmt.Errorf("%w: nil gene type", ErrMalformedConfig)
		}
		return t, nil
	case string:
		return s.registry.Lookup(t)
	default:
		return nil, fmt.Errorf("%w: gene type must be an identifier or *genotype.Type, got %T", ErrMalformedConfig, v)
	}
}

func checkClusters(descriptors []Descriptor) error {
	keys := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		keys[d.Key] = struct{}{}
	}
	for _, d := range descriptors {
		if d.Cluster == "" {
			continue
		}
		if _, clash := keys[d.Cluster]; clash {
			return fmt.Errorf("%w: %s", ErrClusterCollision, d.Cluster)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
