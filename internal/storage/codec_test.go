package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"evolvable/internal/model"
)

func samplePopulation(id string) model.PopulationRecord {
	target := 12.5
	version := model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
	return model.PopulationRecord{
		VersionedRecord: version,
		ID:              id,
		Name:            "sample",
		Type:            "Digits",
		Size:            2,
		EvolutionsCount: 7,
		Goal:            model.GoalRecord{Name: "equalize", Target: &target, HasTarget: true},
		Evolution: &model.EvolutionRecord{
			Selection:   &model.StageRecord{Name: "tournament", Size: 3, TournamentSize: 4},
			Combination: &model.StageRecord{Name: "point", Points: 2},
			Mutation:    &model.StageRecord{Name: "mutation", Probability: 0.4, HasRate: true},
		},
		Genomes: []model.GenomeRecord{
			{
				VersionedRecord: version,
				Groups: []model.GroupRecord{{
					Key:   "digits",
					Type:  "Digit",
					Count: model.CountRecord{Rigid: true, Count: 2, Min: 2, Max: 2},
					Genes: []json.RawMessage{json.RawMessage(`{"V":1}`), json.RawMessage(`{"V":2}`)},
				}},
			},
			{
				VersionedRecord: version,
				Groups: []model.GroupRecord{{
					Key:   "digits",
					Type:  "Digit",
					Count: model.CountRecord{Count: 1, Min: 1, Max: 4},
					Genes: []json.RawMessage{json.RawMessage(`{"V":5}`)},
				}},
			},
		},
	}
}

func TestDecodePopulationFixture(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "population_v1.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	population, err := DecodePopulation(JSONCodec{}, data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if population.ID != "population-minimal-1" || population.EvolutionsCount != 4 {
		t.Fatalf("unexpected population: %+v", population)
	}
	if population.Goal.Name != "equalize" || population.Goal.Target == nil || *population.Goal.Target != 34 {
		t.Fatalf("unexpected goal: %+v", population.Goal)
	}
	if len(population.Genomes) != 2 || len(population.Genomes[0].Groups[0].Genes) != 2 {
		t.Fatalf("unexpected genomes: %+v", population.Genomes)
	}
}

func TestPopulationCodecRoundTrip(t *testing.T) {
	for _, codec := range []Codec{JSONCodec{}, GobCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			input := samplePopulation("p1")
			data, err := EncodePopulation(codec, input)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			output, err := DecodePopulation(codec, data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(input, output) {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", output, input)
			}
		})
	}
}

func TestGobKeepsZeroGoalTarget(t *testing.T) {
	zero := 0.0
	input := samplePopulation("p1")
	input.Goal = model.GoalRecord{Name: "minimize", Target: &zero, HasTarget: true}
	data, err := EncodePopulation(GobCodec{}, input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	output, err := DecodePopulation(GobCodec{}, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !output.Goal.HasTarget {
		t.Fatalf("expected zero target flagged after gob decode: %+v", output.Goal)
	}
}

func TestDecodePopulationRejectsVersionMismatch(t *testing.T) {
	input := samplePopulation("p1")
	input.SchemaVersion = CurrentSchemaVersion + 1
	data, err := EncodePopulation(JSONCodec{}, input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodePopulation(JSONCodec{}, data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}

	input = samplePopulation("p1")
	input.Genomes[1].CodecVersion = 0
	data, err = EncodePopulation(GobCodec{}, input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodePopulation(GobCodec{}, data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected genome version mismatch, got %v", err)
	}
}

func TestGenerationDiagnosticsCodecRoundTrip(t *testing.T) {
	input := []model.GenerationDiagnostics{
		{Generation: 0, Size: 4, BestScore: -3, MeanScore: -5.5, MinScore: -9, BestFitness: 31, StdDevScore: 2.5},
		{Generation: 1, Size: 4, BestScore: 0, MeanScore: -2, MinScore: -4, BestFitness: 34, GoalMet: true},
	}
	for _, codec := range []Codec{JSONCodec{}, GobCodec{}} {
		data, err := EncodeGenerationDiagnostics(codec, input)
		if err != nil {
			t.Fatalf("%s encode: %v", codec.Name(), err)
		}
		output, err := DecodeGenerationDiagnostics(codec, data)
		if err != nil {
			t.Fatalf("%s decode: %v", codec.Name(), err)
		}
		if !reflect.DeepEqual(input, output) {
			t.Fatalf("%s round trip mismatch: %+v", codec.Name(), output)
		}
	}
}

func TestNewCodec(t *testing.T) {
	for name, want := range map[string]string{"": "json", "json": "json", "gob": "gob"} {
		codec, err := NewCodec(name)
		if err != nil {
			t.Fatalf("codec %q: %v", name, err)
		}
		if codec.Name() != want {
			t.Fatalf("codec %q resolved to %s", name, codec.Name())
		}
	}
	if _, err := NewCodec("yaml"); err == nil {
		t.Fatal("expected unsupported codec error")
	}
}
