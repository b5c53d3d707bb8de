// Package evolvable is the public entry point for host programs: it re-exports
// the engine's types and adds a Client that persists populations to a store.
package evolvable

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"evolvable/internal/evo"
	"evolvable/internal/genotype"
	"evolvable/internal/model"
	"evolvable/internal/space"
	"evolvable/internal/stats"
	"evolvable/internal/storage"
)

type (
	Gene      = genotype.Gene
	GeneType  = genotype.Type
	CountGene = genotype.CountGene
	Genome    = genotype.Genome
	Group     = genotype.Group
	Registry  = genotype.Registry

	SearchSpace = space.SearchSpace
	Schema      = space.Schema
	Descriptor  = space.Descriptor
	GeneConfig  = space.GeneConfig
	Range       = space.Range

	Evolvable     = evo.Evolvable
	Instance      = evo.Instance
	Type          = evo.Type
	Hooks         = evo.Hooks
	Population    = evo.Population
	Config        = evo.Config
	EvolveOptions = evo.EvolveOptions
	Goal          = evo.Goal
	Stage         = evo.Stage

	MutationConfig = evo.MutationConfig

	Diagnostics       = model.GenerationDiagnostics
	PopulationSummary = model.PopulationSummary
	RunSummary        = stats.RunSummary
)

var (
	ErrUnimplemented   = evo.ErrUnimplemented
	ErrTooFewParents   = evo.ErrTooFewParents
	ErrTypeNotFound    = genotype.ErrTypeNotFound
	ErrDuplicateGene   = space.ErrDuplicateGene
	ErrMalformedConfig = space.ErrMalformedConfig
	ErrVersionMismatch = genotype.ErrVersionMismatch
	ErrNotFound        = errors.New("population not found")
)

func NewRegistry() *Registry { return genotype.NewRegistry() }

// GeneTypeOf builds a gene type from typed constructors. A nil combine picks
// one parent gene at random.
func GeneTypeOf[G any](name string, newFn func(rng *rand.Rand) G, combine func(rng *rand.Rand, a, b G) G) *GeneType {
	return genotype.TypeOf(name, newFn, combine)
}

// TypeFor describes the host type T, which must embed Instance through a
// pointer receiver.
func TypeFor[T any, PT interface {
	*T
	Evolvable
}](name string, searchSpace any) Type {
	return evo.TypeFor[T, PT](name, searchSpace)
}

func NewSchema() *Schema { return space.NewSchema() }

func BuildSearchSpace(config any, reg *Registry) (*SearchSpace, error) {
	return space.Build(config, reg)
}

func NewPopulation(cfg Config) (*Population, error) { return evo.NewPopulation(cfg) }

// ParseGoal resolves maximize, minimize or equalize. A nil target keeps the
// goal's default.
func ParseGoal(name string, target *float64) (Goal, error) { return evo.ParseGoal(name, target) }

func Summarize(p *Population) RunSummary { return stats.SummarizeRun(p.Diagnostics()) }

type Options struct {
	StoreKind string
	DBPath    string
	Codec     string
}

// Client saves and restores populations through a storage backend.
type Client struct {
	store storage.Store
}

func New(opts Options) (*Client, error) {
	store, err := storage.NewStore(opts.StoreKind, opts.DBPath, opts.Codec)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Save stores the population snapshot together with its diagnostics history.
func (c *Client) Save(ctx context.Context, p *Population) error {
	rec, err := p.Record()
	if err != nil {
		return fmt.Errorf("record population %s: %w", p.ID(), err)
	}
	if err := c.store.SavePopulation(ctx, rec); err != nil {
		return err
	}
	return c.store.SaveGenerationDiagnostics(ctx, p.ID(), p.Diagnostics())
}

// Load restores population id. cfg supplies everything a snapshot does not
// carry: the host type, registry, strategies, hooks and logger.
func (c *Client) Load(ctx context.Context, id string, cfg Config) (*Population, error) {
	rec, ok, err := c.store.GetPopulation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return evo.Restore(rec, cfg)
}

func (c *Client) Populations(ctx context.Context) ([]PopulationSummary, error) {
	return c.store.ListPopulations(ctx)
}

func (c *Client) Diagnostics(ctx context.Context, id string) ([]Diagnostics, error) {
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return diagnostics, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.store.DeletePopulation(ctx, id)
}

// Export writes the stored population and its diagnostics as JSON and CSV
// files under outDir/<id> and returns that directory.
func (c *Client) Export(ctx context.Context, id, outDir string) (string, error) {
	rec, ok, err := c.store.GetPopulation(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	diagnostics, _, err := c.store.GetGenerationDiagnostics(ctx, id)
	if err != nil {
		return "", err
	}
	return stats.WriteRunArtifacts(outDir, stats.RunArtifacts{Population: rec, Diagnostics: diagnostics})
}
