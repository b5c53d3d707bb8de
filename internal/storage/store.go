package storage

import (
	"context"

	"evolvable/internal/model"
)

// Store persists population snapshots and their per-generation diagnostics.
type Store interface {
	Init(ctx context.Context) error
	SavePopulation(ctx context.Context, population model.PopulationRecord) error
	GetPopulation(ctx context.Context, id string) (model.PopulationRecord, bool, error)
	ListPopulations(ctx context.Context) ([]model.PopulationSummary, error)
	DeletePopulation(ctx context.Context, id string) error
	SaveGenerationDiagnostics(ctx context.Context, populationID string, diagnostics []model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, populationID string) ([]model.GenerationDiagnostics, bool, error)
}
