package space

import (
	"errors"
	"fmt"

	"evolvable/internal/genotype"
)

type schemaEntry struct {
	key     string
	typ     any
	count   any
	cluster string
}

// Schema is an explicit, ordered gene declaration list. Builder errors are
// deferred until the schema is normalized by Build or Merge.
type Schema struct {
	entries []schemaEntry
	errs    []error
}

func NewSchema() *Schema {
	return &Schema{}
}

// Gene declares a gene group. typ is a registered identifier or a
// *genotype.Type; count accepts every form a search space config accepts.
func (s *Schema) Gene(name string, typ any, count any) *Schema {
	if name == "" {
		s.errs = append(s.errs, fmt.Errorf("%w: gene name is required", ErrMalformedConfig))
		return s
	}
	s.entries = append(s.entries, schemaEntry{key: name, typ: typ, count: count})
	return s
}

// Cluster applies every gene of c under name. Cluster genes are keyed
// "name-gene".
func (s *Schema) Cluster(name string, c *Schema) *Schema {
	if name == "" || c == nil {
		s.errs = append(s.errs, fmt.Errorf("%w: cluster needs a name and a schema", ErrMalformedConfig))
		return s
	}
	s.errs = append(s.errs, c.errs...)
	for _, e := range c.entries {
		s.entries = append(s.entries, schemaEntry{
			key:     name + "-" + e.key,
			typ:     e.typ,
			count:   e.count,
			cluster: name,
		})
	}
	return s
}

func (s *SearchSpace) fromSchema(schema *Schema) ([]Descriptor, error) {
	if schema == nil {
		return nil, nil
	}
	if len(schema.errs) > 0 {
		return nil, errors.Join(schema.errs...)
	}

	seen := make(map[string]struct{}, len(schema.entries))
	out := make([]Descriptor, 0, len(schema.entries))
	for _, e := range schema.entries {
		if _, dup := seen[e.key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGene, e.key)
		}
		seen[e.key] = struct{}{}

		t, err := s.resolveType(e.typ)
		if err != nil {
			return nil, fmt.Errorf("gene %s: %w", e.key, err)
		}
		count, err := s.parseCount(e.count)
		if err != nil {
			return nil, fmt.Errorf("gene %s: %w", e.key, err)
		}
		out = append(out, Descriptor{Key: e.key, Type: t, Count: count, Cluster: e.cluster})
	}
	return out, nil
}

// ClusterGenes returns the genes of every key declared under cluster name.
func (s *SearchSpace) ClusterGenes(genome *genotype.Genome, name string) []genotype.Gene {
	return genome.FindGenes(s.ClusterKeys(name)...)
}
