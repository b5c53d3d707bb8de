package genotype

import (
	"math/rand"

	"golang.org/x/exp/slices"
)

// Group holds every gene sharing one key together with the count gene that
// governs its cardinality.
type Group struct {
	Type  *Type
	Count CountGene
	Genes []Gene
}

// NewGroup samples count.Count() fresh genes of t.
func NewGroup(rng *rand.Rand, t *Type, count CountGene) *Group {
	genes := make([]Gene, count.Count())
	for i := range genes {
		genes[i] = t.NewGene(rng)
	}
	return &Group{Type: t, Count: count, Genes: genes}
}

// BuildGroup sizes the gene list from count and fills each slot with fill(i).
func BuildGroup(t *Type, count CountGene, fill func(i int) Gene) *Group {
	genes := make([]Gene, count.Count())
	for i := range genes {
		genes[i] = fill(i)
	}
	return &Group{Type: t, Count: count, Genes: genes}
}

func (g *Group) clone() *Group {
	return &Group{Type: g.Type, Count: g.Count, Genes: slices.Clone(g.Genes)}
}

// Genome is the ordered set of gene groups of one evolvable.
type Genome struct {
	keys   []string
	groups map[string]*Group
}

func NewGenome() *Genome {
	return &Genome{groups: make(map[string]*Group)}
}

// Set stores group under key, keeping the key's original position when it
// already exists.
func (g *Genome) Set(key string, group *Group) {
	if _, exists := g.groups[key]; !exists {
		g.keys = append(g.keys, key)
	}
	g.groups[key] = group
}

func (g *Genome) Group(key string) (*Group, bool) {
	group, ok := g.groups[key]
	return group, ok
}

// FindGene returns the first gene stored under key, or nil.
func (g *Genome) FindGene(key string) Gene {
	group, ok := g.groups[key]
	if !ok || len(group.Genes) == 0 {
		return nil
	}
	return group.Genes[0]
}

// FindGenes concatenates the genes of every key in order. Unknown keys
// contribute nothing.
func (g *Genome) FindGenes(keys ...string) []Gene {
	out := make([]Gene, 0)
	for _, key := range keys {
		if group, ok := g.groups[key]; ok {
			out = append(out, group.Genes...)
		}
	}
	return out
}

// FindGenesCount returns the cardinality of key as reported by its count gene.
func (g *Genome) FindGenesCount(key string) int {
	count := g.FindCountGene(key)
	if count == nil {
		return 0
	}
	return count.Count()
}

func (g *Genome) FindCountGene(key string) CountGene {
	group, ok := g.groups[key]
	if !ok {
		return nil
	}
	return group.Count
}

// Each visits groups in key order.
func (g *Genome) Each(fn func(key string, group *Group)) {
	for _, key := range g.keys {
		fn(key, g.groups[key])
	}
}

func (g *Genome) Keys() []string {
	return slices.Clone(g.keys)
}

// Genes flattens every group in key order.
func (g *Genome) Genes() []Gene {
	out := make([]Gene, 0)
	for _, key := range g.keys {
		out = append(out, g.groups[key].Genes...)
	}
	return out
}

func (g *Genome) Len() int {
	return len(g.keys)
}

// Merge overwrites the receiver's groups with every group present in other.
func (g *Genome) Merge(other *Genome) {
	if other == nil {
		return
	}
	other.Each(func(key string, group *Group) {
		g.Set(key, group)
	})
}

// Clone copies the key order and every gene list. Gene values and count genes
// are shared.
func (g *Genome) Clone() *Genome {
	out := &Genome{
		keys:   slices.Clone(g.keys),
		groups: make(map[string]*Group, len(g.groups)),
	}
	for key, group := range g.groups {
		out.groups[key] = group.clone()
	}
	return out
}
