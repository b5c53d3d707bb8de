package storage

import (
	"context"
	"testing"

	"evolvable/internal/model"
)

func TestMemoryStorePopulationRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, id := range []string{"p2", "p1"} {
		if err := store.SavePopulation(ctx, samplePopulation(id)); err != nil {
			t.Fatalf("save population %s: %v", id, err)
		}
	}

	loaded, ok, err := store.GetPopulation(ctx, "p1")
	if err != nil {
		t.Fatalf("get population: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted population")
	}
	if loaded.EvolutionsCount != 7 || len(loaded.Genomes) != 2 {
		t.Fatalf("unexpected population: %+v", loaded)
	}

	loaded.Genomes[0] = model.GenomeRecord{}
	again, _, _ := store.GetPopulation(ctx, "p1")
	if len(again.Genomes[0].Groups) != 1 {
		t.Fatal("caller mutation leaked into the store")
	}

	summaries, err := store.ListPopulations(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 || summaries[0].ID != "p1" || summaries[1].ID != "p2" {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
	if summaries[0].Goal != "equalize" || summaries[0].Type != "Digits" {
		t.Fatalf("unexpected summary: %+v", summaries[0])
	}

	if err := store.DeletePopulation(ctx, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.GetPopulation(ctx, "p1"); ok {
		t.Fatal("expected population to be deleted")
	}
}

func TestMemoryStoreGenerationDiagnosticsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := []model.GenerationDiagnostics{
		{Generation: 0, Size: 4, BestScore: 0.8, MeanScore: 0.6, MinScore: 0.2},
		{Generation: 1, Size: 4, BestScore: 0.9, MeanScore: 0.7, MinScore: 0.3, GoalMet: true},
	}
	if err := store.SaveGenerationDiagnostics(ctx, "p1", input); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	input[0].BestScore = -1

	output, ok, err := store.GetGenerationDiagnostics(ctx, "p1")
	if err != nil {
		t.Fatalf("get diagnostics: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted diagnostics")
	}
	if len(output) != 2 || output[0].BestScore != 0.8 || !output[1].GoalMet {
		t.Fatalf("unexpected diagnostics: %+v", output)
	}

	if _, ok, _ := store.GetGenerationDiagnostics(ctx, "missing"); ok {
		t.Fatal("expected no diagnostics for unknown population")
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SavePopulation(context.Background(), samplePopulation("p1")); err == nil {
		t.Fatal("expected error before init")
	}
}
