//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"evolvable/internal/model"
)

func TestSQLiteStorePopulationRoundTrip(t *testing.T) {
	for _, codec := range []Codec{JSONCodec{}, GobCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			ctx := context.Background()
			dbPath := filepath.Join(t.TempDir(), "evolvable.db")

			store := NewSQLiteStore(dbPath, codec)
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			t.Cleanup(func() {
				_ = store.Close()
			})

			input := samplePopulation("p1")
			if err := store.SavePopulation(ctx, input); err != nil {
				t.Fatalf("save population: %v", err)
			}
			input.EvolutionsCount = 9
			if err := store.SavePopulation(ctx, input); err != nil {
				t.Fatalf("upsert population: %v", err)
			}

			loaded, ok, err := store.GetPopulation(ctx, "p1")
			if err != nil {
				t.Fatalf("get population: %v", err)
			}
			if !ok {
				t.Fatal("expected population p1")
			}
			if !reflect.DeepEqual(input, loaded) {
				t.Fatalf("unexpected population loaded: %+v", loaded)
			}

			summaries, err := store.ListPopulations(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(summaries) != 1 || summaries[0].EvolutionsCount != 9 || summaries[0].Goal != "equalize" {
				t.Fatalf("unexpected summaries: %+v", summaries)
			}

			diagnostics := []model.GenerationDiagnostics{{Generation: 0, Size: 2, BestScore: -1, GoalMet: false}}
			if err := store.SaveGenerationDiagnostics(ctx, "p1", diagnostics); err != nil {
				t.Fatalf("save diagnostics: %v", err)
			}
			loadedDiagnostics, ok, err := store.GetGenerationDiagnostics(ctx, "p1")
			if err != nil || !ok {
				t.Fatalf("get diagnostics: ok=%t err=%v", ok, err)
			}
			if !reflect.DeepEqual(diagnostics, loadedDiagnostics) {
				t.Fatalf("unexpected diagnostics: %+v", loadedDiagnostics)
			}

			if err := store.DeletePopulation(ctx, "p1"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, ok, _ := store.GetPopulation(ctx, "p1"); ok {
				t.Fatal("expected population to be deleted")
			}
			if _, ok, _ := store.GetGenerationDiagnostics(ctx, "p1"); ok {
				t.Fatal("expected diagnostics to be deleted")
			}
		})
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "evolvable.db"), nil)
	if _, _, err := store.GetPopulation(context.Background(), "p1"); err == nil {
		t.Fatal("expected error before init")
	}
	if err := NewSQLiteStore("", nil).Init(context.Background()); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore("sqlite", filepath.Join(t.TempDir(), "evolvable.db"), "gob")
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
}
