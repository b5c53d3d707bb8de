package storage

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"

	"evolvable/internal/genotype"
	"evolvable/internal/model"
)

const (
	CurrentSchemaVersion = model.CurrentSchemaVersion
	CurrentCodecVersion  = model.CurrentCodecVersion
)

// ErrVersionMismatch is shared with genome loading so callers check one value.
var ErrVersionMismatch = genotype.ErrVersionMismatch

// Codec is a named serializer. Both built-in codecs satisfy
// genotype.Serializer and can be handed to Genome.Dump directly.
type Codec interface {
	genotype.Serializer
	Name() string
}

type JSONCodec struct{}

func (JSONCodec) Name() string                       { return "json" }
func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type GobCodec struct{}

func (GobCodec) Name() string { return "gob" }

func (GobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GobCodec) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// NewCodec resolves a codec by name; empty selects JSON.
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "gob":
		return GobCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported codec: %s", name)
	}
}

func EncodePopulation(c Codec, p model.PopulationRecord) ([]byte, error) {
	return c.Marshal(p)
}

func DecodePopulation(c Codec, data []byte) (model.PopulationRecord, error) {
	var population model.PopulationRecord
	if err := c.Unmarshal(data, &population); err != nil {
		return model.PopulationRecord{}, err
	}
	if err := checkVersion(population.VersionedRecord); err != nil {
		return model.PopulationRecord{}, err
	}
	for i, genome := range population.Genomes {
		if err := checkVersion(genome.VersionedRecord); err != nil {
			return model.PopulationRecord{}, fmt.Errorf("genome %d: %w", i, err)
		}
	}
	return population, nil
}

func EncodeGenerationDiagnostics(c Codec, diagnostics []model.GenerationDiagnostics) ([]byte, error) {
	return c.Marshal(diagnostics)
}

func DecodeGenerationDiagnostics(c Codec, data []byte) ([]model.GenerationDiagnostics, error) {
	var diagnostics []model.GenerationDiagnostics
	if err := c.Unmarshal(data, &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
