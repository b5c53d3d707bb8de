package evo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"evolvable/internal/genotype"
	"evolvable/internal/model"
	"evolvable/internal/space"
	"evolvable/internal/stats"
)

var ErrNoBreeder = errors.New("combination stage cannot breed evolvables")

// Mutator is implemented by mutation stages that can mutate offspring bred
// outside the evolution pipeline.
type Mutator interface {
	MutateEvolvables(rng *rand.Rand, evolvables []Evolvable)
}

// Config configures a population. Unset fields take the documented defaults.
type Config struct {
	Type Type
	// Registry resolves gene type identifiers in Type.SearchSpace.
	Registry *genotype.Registry

	ID              string
	Name            string
	Size            int
	EvolutionsCount int

	// Goal defaults to Maximize.
	Goal Goal
	// Selection, Combination and Mutation default to the stages of
	// NewEvolution. SelectionSize is used only when Selection is nil.
	Selection     Stage
	SelectionSize int
	Combination   Stage
	Mutation      Stage

	// Rand takes precedence over Seed.
	Seed   int64
	Rand   *rand.Rand
	Logger *slog.Logger
	Hooks  Hooks

	// Evolvables seed the first generation; the remainder up to Size is
	// bred from ParentEvolvables when set, else sampled from the search space.
	Evolvables       []Evolvable
	ParentEvolvables []Evolvable
}

// Population evolves a set of evolvables of one type. It is not safe for
// concurrent use.
type Population struct {
	id              string
	name            string
	typ             Type
	size            int
	evolutionsCount int

	space      *space.SearchSpace
	evaluation *Evaluation
	evolution  *Evolution

	evolvables []Evolvable
	parents    []Evolvable
	selected   []Evolvable

	rng         *rand.Rand
	logger      *slog.Logger
	hooks       Hooks
	diagnostics []model.GenerationDiagnostics
}

// NewPopulation validates cfg, builds the search space and fills the first
// generation.
func NewPopulation(cfg Config) (*Population, error) {
	p, err := newPopulation(cfg)
	if err != nil {
		return nil, err
	}
	if err := p.fill(cfg.Evolvables); err != nil {
		return nil, err
	}
	return p, nil
}

func newPopulation(cfg Config) (*Population, error) {
	if err := cfg.Type.validate(); err != nil {
		return nil, err
	}
	if cfg.Size < 0 {
		return nil, fmt.Errorf("population size must be >= 0: got %d", cfg.Size)
	}
	if cfg.EvolutionsCount < 0 {
		return nil, fmt.Errorf("evolutions count must be >= 0: got %d", cfg.EvolutionsCount)
	}

	searchSpace, err := space.Build(cfg.Type.SearchSpace, cfg.Registry)
	if err != nil {
		return nil, fmt.Errorf("build search space for %s: %w", cfg.Type.Name, err)
	}

	selection := cfg.Selection
	if selection == nil {
		s, err := NewSelection(cfg.SelectionSize)
		if err != nil {
			return nil, err
		}
		selection = s
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(cfg.Seed))
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &Population{
		id:              cfg.ID,
		name:            cfg.Name,
		typ:             cfg.Type,
		size:            cfg.Size,
		evolutionsCount: cfg.EvolutionsCount,
		space:           searchSpace,
		evaluation:      NewEvaluation(cfg.Goal),
		evolution:       NewEvolution(selection, cfg.Combination, cfg.Mutation),
		parents:         append([]Evolvable(nil), cfg.ParentEvolvables...),
		rng:             cfg.Rand,
		logger:          cfg.Logger.With("population", cfg.ID),
		hooks:           cfg.Type.Hooks.Chain(cfg.Hooks),
	}, nil
}

// fill adopts seeds and tops the population up to its size.
func (p *Population) fill(seeds []Evolvable) error {
	p.evolvables = make([]Evolvable, 0, max(p.size, len(seeds)))
	for _, seed := range seeds {
		if seed == nil {
			return errors.New("seed evolvable is nil")
		}
		inst := seed.instance()
		if inst.genome == nil {
			inst.genome = p.space.NewGenome(p.rng)
		}
		inst.population = p
		inst.generationIndex = len(p.evolvables)
		p.evolvables = append(p.evolvables, seed)
	}

	missing := p.size - len(p.evolvables)
	if missing <= 0 {
		return nil
	}
	if len(p.parents) == 0 {
		for i := 0; i < missing; i++ {
			e, err := p.instantiate(p.space.NewGenome(p.rng), len(p.evolvables))
			if err != nil {
				return err
			}
			p.evolvables = append(p.evolvables, e)
		}
		return nil
	}
	bred, err := p.breed(missing)
	if err != nil {
		return err
	}
	for _, e := range bred {
		e.instance().generationIndex = len(p.evolvables)
		p.evolvables = append(p.evolvables, e)
	}
	return nil
}

func (p *Population) instantiate(genome *genotype.Genome, index int) (Evolvable, error) {
	e, err := p.typ.construct()
	if err != nil {
		return nil, err
	}
	inst := e.instance()
	inst.genome = genome
	inst.population = p
	inst.generationIndex = index
	return e, nil
}

// breed produces count mutated offspring of the current parents.
func (p *Population) breed(count int) ([]Evolvable, error) {
	breeder, ok := p.evolution.Combination.(Combination)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNoBreeder, p.evolution.Combination)
	}
	offspring, err := breeder.NewEvolvables(p, count)
	if err != nil {
		return nil, err
	}
	if m, ok := p.evolution.Mutation.(Mutator); ok {
		m.MutateEvolvables(p.rng, offspring)
	}
	return offspring, nil
}

// EvolveOptions bounds a call to Evolve. Count <= 0 runs until the goal is
// met or the context is done. GoalValue overrides the goal's target.
type EvolveOptions struct {
	Count     int
	GoalValue *float64
}

// Evolve runs generations. Each generation calls BeforeEvaluation, sorts the
// population, records diagnostics and calls BeforeEvolution; it then stops
// when the goal is met, or evolves, advances the generation counter and calls
// AfterEvolution. The context is checked before each generation. A failed
// step leaves the population as it was before that step.
func (p *Population) Evolve(ctx context.Context, opts EvolveOptions) error {
	if opts.GoalValue != nil {
		p.evaluation.Goal.SetTarget(*opts.GoalValue)
	}

	for i := 0; opts.Count <= 0 || i < opts.Count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.hooks.BeforeEvaluation.call(p)
		if err := p.evaluation.Call(p); err != nil {
			return fmt.Errorf("generation %d: %w", p.evolutionsCount, err)
		}
		met, err := p.evaluation.MetGoal(p)
		if err != nil {
			return fmt.Errorf("generation %d: %w", p.evolutionsCount, err)
		}
		diag := p.recordDiagnostics(met)
		p.logger.Debug("generation evaluated",
			"generation", diag.Generation,
			"best_score", diag.BestScore,
			"mean_score", diag.MeanScore,
		)

		p.hooks.BeforeEvolution.call(p)
		if met, err = p.evaluation.MetGoal(p); err != nil {
			return fmt.Errorf("generation %d: %w", p.evolutionsCount, err)
		}
		if met {
			p.logger.Info("goal met",
				"generation", p.evolutionsCount,
				"goal", p.evaluation.Goal.Name(),
				"target", p.evaluation.Goal.Target(),
			)
			return nil
		}

		if err := p.step(); err != nil {
			return fmt.Errorf("generation %d: %w", p.evolutionsCount, err)
		}
		p.evolutionsCount++
		p.hooks.AfterEvolution.call(p)
	}
	return nil
}

// EvolveSelected breeds the next generation from selected, bypassing
// evaluation and the goal check.
func (p *Population) EvolveSelected(selected []Evolvable) error {
	p.SetSelectedEvolvables(selected)
	if err := p.step(); err != nil {
		return fmt.Errorf("generation %d: %w", p.evolutionsCount, err)
	}
	p.evolutionsCount++
	p.hooks.AfterEvolution.call(p)
	return nil
}

// step runs the evolution pipeline and restores the working lists on failure.
func (p *Population) step() error {
	evolvables, parents, selected := p.evolvables, p.parents, p.selected
	if err := p.evolution.Call(p); err != nil {
		p.evolvables, p.parents, p.selected = evolvables, parents, selected
		return err
	}
	return nil
}

func (p *Population) recordDiagnostics(met bool) model.GenerationDiagnostics {
	diag := stats.Summarize(p.evolutionsCount, p.evaluation.Scores())
	diag.GoalMet = met
	if n := len(p.evolvables); n > 0 {
		if f, err := Fitness(p.evolvables[n-1]); err == nil {
			diag.BestFitness = f
		}
	}
	p.diagnostics = append(p.diagnostics, diag)
	return diag
}

// BestEvolvable returns the highest scoring evolvable, or nil when the
// population is empty.
func (p *Population) BestEvolvable() (Evolvable, error) {
	return p.evaluation.BestEvolvable(p)
}

// MetGoal reports whether the last evolvable meets the goal. It reflects the
// order of the most recent evaluation.
func (p *Population) MetGoal() (bool, error) {
	return p.evaluation.MetGoal(p)
}

// NewEvolvable appends an evolvable holding genome. A nil genome is bred
// from the parents when there are any, else sampled from the search space.
func (p *Population) NewEvolvable(genome *genotype.Genome) (Evolvable, error) {
	var (
		e   Evolvable
		err error
	)
	switch {
	case genome != nil:
		e, err = p.instantiate(genome, len(p.evolvables))
	case len(p.parents) > 0:
		var bred []Evolvable
		bred, err = p.breed(1)
		if err == nil {
			e = bred[0]
			e.instance().generationIndex = len(p.evolvables)
		}
	default:
		e, err = p.instantiate(p.space.NewGenome(p.rng), len(p.evolvables))
	}
	if err != nil {
		return nil, err
	}
	p.evolvables = append(p.evolvables, e)
	return e, nil
}

// ResetEvolvables discards the current generation and refills it.
func (p *Population) ResetEvolvables() error {
	p.evolvables = nil
	return p.fill(nil)
}

// ParentGenomeCycle shuffles the parents' genomes and cycles through every
// pair of them. Parents built by the host without a genome are given one
// sampled from the search space, as seeds are.
func (p *Population) ParentGenomeCycle() (*GenomeCycle, error) {
	genomes := make([]*genotype.Genome, 0, len(p.parents))
	for i, parent := range p.parents {
		if parent == nil {
			return nil, fmt.Errorf("parent evolvable %d is nil", i)
		}
		inst := parent.instance()
		if inst.genome == nil {
			inst.genome = p.space.NewGenome(p.rng)
		}
		genomes = append(genomes, inst.genome)
	}
	return newGenomeCycle(p.rng, genomes)
}

func (p *Population) ID() string                      { return p.id }
func (p *Population) Name() string                    { return p.name }
func (p *Population) TypeName() string                { return p.typ.Name }
func (p *Population) Size() int                       { return p.size }
func (p *Population) EvolutionsCount() int            { return p.evolutionsCount }
func (p *Population) SearchSpace() *space.SearchSpace { return p.space }
func (p *Population) Evaluation() *Evaluation         { return p.evaluation }
func (p *Population) Evolution() *Evolution           { return p.evolution }
func (p *Population) Goal() Goal                      { return p.evaluation.Goal }
func (p *Population) Rand() *rand.Rand                { return p.rng }
func (p *Population) Logger() *slog.Logger            { return p.logger }

// SetSize changes the size used by the next generation.
func (p *Population) SetSize(size int) error {
	if size < 0 {
		return fmt.Errorf("population size must be >= 0: got %d", size)
	}
	p.size = size
	return nil
}

func (p *Population) Evolvables() []Evolvable {
	return append([]Evolvable(nil), p.evolvables...)
}

// SetEvolvables replaces the working list. Stages implemented outside this
// package use it to publish offspring.
func (p *Population) SetEvolvables(evolvables []Evolvable) {
	p.evolvables = append([]Evolvable(nil), evolvables...)
}

func (p *Population) ParentEvolvables() []Evolvable {
	return append([]Evolvable(nil), p.parents...)
}

func (p *Population) SetParentEvolvables(parents []Evolvable) {
	p.parents = append([]Evolvable(nil), parents...)
}

func (p *Population) SelectedEvolvables() []Evolvable {
	return append([]Evolvable(nil), p.selected...)
}

// SetSelectedEvolvables overrides the selector's picks for the next
// selection step.
func (p *Population) SetSelectedEvolvables(selected []Evolvable) {
	p.selected = append([]Evolvable(nil), selected...)
}

// Diagnostics returns one entry per evaluated generation.
func (p *Population) Diagnostics() []model.GenerationDiagnostics {
	return append([]model.GenerationDiagnostics(nil), p.diagnostics...)
}

// LastDiagnostics returns the most recent diagnostics entry.
func (p *Population) LastDiagnostics() (model.GenerationDiagnostics, bool) {
	if len(p.diagnostics) == 0 {
		return model.GenerationDiagnostics{}, false
	}
	return p.diagnostics[len(p.diagnostics)-1], true
}
