package genotype

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"reflect"

	"evolvable/internal/model"
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Serializer is the opaque wire format used by Dump and LoadGenome.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Record converts the genome into its persistent form. Gene values are encoded
// with encoding/json, so only exported fields survive.
func (g *Genome) Record() (model.GenomeRecord, error) {
	rec := model.GenomeRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: model.CurrentSchemaVersion,
			CodecVersion:  model.CurrentCodecVersion,
		},
		Groups: make([]model.GroupRecord, 0, len(g.keys)),
	}
	for _, key := range g.keys {
		group := g.groups[key]
		genes := make([]json.RawMessage, 0, len(group.Genes))
		for i, gene := range group.Genes {
			payload, err := json.Marshal(gene)
			if err != nil {
				return model.GenomeRecord{}, fmt.Errorf("encode gene %s[%d]: %w", key, i, err)
			}
			genes = append(genes, payload)
		}
		rec.Groups = append(rec.Groups, model.GroupRecord{
			Key:   key,
			Type:  group.Type.Name,
			Count: countRecord(group.Count),
			Genes: genes,
		})
	}
	return rec, nil
}

// FromRecord rebuilds a genome, resolving gene types through reg. Fresh genes
// are sampled from rng and then overwritten by the stored values.
func FromRecord(rec model.GenomeRecord, reg *Registry, rng *rand.Rand) (*Genome, error) {
	if rec.SchemaVersion != model.CurrentSchemaVersion || rec.CodecVersion != model.CurrentCodecVersion {
		return nil, fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, rec.SchemaVersion, rec.CodecVersion)
	}

	genome := NewGenome()
	for _, groupRec := range rec.Groups {
		t, err := reg.Lookup(groupRec.Type)
		if err != nil {
			return nil, fmt.Errorf("load group %s: %w", groupRec.Key, err)
		}
		count := countFromRecord(groupRec.Count)
		if count.Count() != len(groupRec.Genes) {
			return nil, fmt.Errorf("load group %s: count %d does not match %d stored genes", groupRec.Key, count.Count(), len(groupRec.Genes))
		}
		genes := make([]Gene, len(groupRec.Genes))
		for i, payload := range groupRec.Genes {
			gene, err := decodeGene(t, rng, payload)
			if err != nil {
				return nil, fmt.Errorf("decode gene %s[%d]: %w", groupRec.Key, i, err)
			}
			genes[i] = gene
		}
		genome.Set(groupRec.Key, &Group{Type: t, Count: count, Genes: genes})
	}
	return genome, nil
}

// Dump encodes the genome with s.
func (g *Genome) Dump(s Serializer) ([]byte, error) {
	rec, err := g.Record()
	if err != nil {
		return nil, err
	}
	return s.Marshal(rec)
}

// LoadGenome decodes a genome previously written by Dump.
func LoadGenome(data []byte, s Serializer, reg *Registry, rng *rand.Rand) (*Genome, error) {
	var rec model.GenomeRecord
	if err := s.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return FromRecord(rec, reg, rng)
}

func decodeGene(t *Type, rng *rand.Rand, payload json.RawMessage) (Gene, error) {
	fresh := t.NewGene(rng)
	v := reflect.ValueOf(fresh)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		if err := json.Unmarshal(payload, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}
	if !v.IsValid() {
		return nil, fmt.Errorf("gene type %s constructed a nil gene", t.Name)
	}
	target := reflect.New(v.Type())
	if err := json.Unmarshal(payload, target.Interface()); err != nil {
		return nil, err
	}
	return target.Elem().Interface(), nil
}

func countRecord(c CountGene) model.CountRecord {
	lo, hi := c.Bounds()
	_, rigid := c.(*RigidCount)
	return model.CountRecord{Rigid: rigid, Count: c.Count(), Min: lo, Max: hi}
}

// countFromRecord restores rigid counts as RigidCount and every other count
// gene as a RangeCount over its recorded bounds.
func countFromRecord(rec model.CountRecord) CountGene {
	if rec.Rigid {
		return NewRigidCount(rec.Count)
	}
	return RangeCountOf(rec.Min, rec.Max, rec.Count)
}
