package evo

import (
	"fmt"
	"math"

	"evolvable/internal/genotype"
	"evolvable/internal/model"
)

// Record snapshots the population's identity, goal, built-in evolution stages
// and current genomes.
func (p *Population) Record() (model.PopulationRecord, error) {
	rec := model.PopulationRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: model.CurrentSchemaVersion,
			CodecVersion:  model.CurrentCodecVersion,
		},
		ID:              p.id,
		Name:            p.name,
		Type:            p.typ.Name,
		Size:            p.size,
		EvolutionsCount: p.evolutionsCount,
		Goal:            goalRecord(p.evaluation.Goal),
		Evolution:       evolutionRecord(p.evolution),
		Genomes:         make([]model.GenomeRecord, 0, len(p.evolvables)),
	}
	for i, e := range p.evolvables {
		genome := e.instance().genome
		if genome == nil {
			return model.PopulationRecord{}, fmt.Errorf("evolvable %d has no genome", i)
		}
		genomeRec, err := genome.Record()
		if err != nil {
			return model.PopulationRecord{}, fmt.Errorf("record evolvable %d: %w", i, err)
		}
		rec.Genomes = append(rec.Genomes, genomeRec)
	}
	return rec, nil
}

// Restore rebuilds a population from rec. The record's identity, size,
// generation counter, goal and recorded stages override cfg. A cfg.Goal with
// the recorded name is kept so host goals survive a restore. Everything else,
// including the evolvable type, gene registry and host-defined stages, comes
// from cfg.
func Restore(rec model.PopulationRecord, cfg Config) (*Population, error) {
	if rec.SchemaVersion != model.CurrentSchemaVersion || rec.CodecVersion != model.CurrentCodecVersion {
		return nil, fmt.Errorf("%w: schema=%d codec=%d", genotype.ErrVersionMismatch, rec.SchemaVersion, rec.CodecVersion)
	}
	if cfg.Type.Name != "" && rec.Type != "" && cfg.Type.Name != rec.Type {
		return nil, fmt.Errorf("population %s holds %s evolvables, not %s", rec.ID, rec.Type, cfg.Type.Name)
	}

	target := rec.Goal.Target
	if target == nil && rec.Goal.HasTarget {
		zero := 0.0
		target = &zero
	}
	goal := cfg.Goal
	if goal != nil && goal.Name() == rec.Goal.Name {
		if target != nil {
			goal.SetTarget(*target)
		}
	} else {
		parsed, err := ParseGoal(rec.Goal.Name, target)
		if err != nil {
			return nil, err
		}
		goal = parsed
	}
	cfg.ID = rec.ID
	cfg.Name = rec.Name
	cfg.Size = rec.Size
	cfg.EvolutionsCount = rec.EvolutionsCount
	cfg.Goal = goal
	cfg.Evolvables = nil
	if err := restoreStages(rec.Evolution, &cfg); err != nil {
		return nil, fmt.Errorf("restore population %s: %w", rec.ID, err)
	}

	p, err := newPopulation(cfg)
	if err != nil {
		return nil, err
	}
	registry := p.space.Registry()
	for i, genomeRec := range rec.Genomes {
		genome, err := genotype.FromRecord(genomeRec, registry, p.rng)
		if err != nil {
			return nil, fmt.Errorf("restore evolvable %d: %w", i, err)
		}
		e, err := p.instantiate(genome, i)
		if err != nil {
			return nil, err
		}
		p.evolvables = append(p.evolvables, e)
	}
	if err := p.fill(p.evolvables); err != nil {
		return nil, err
	}
	return p, nil
}

func goalRecord(g Goal) model.GoalRecord {
	rec := model.GoalRecord{Name: g.Name()}
	if target := g.Target(); !math.IsInf(target, 0) && !math.IsNaN(target) {
		rec.Target = &target
		rec.HasTarget = true
	}
	return rec
}

func evolutionRecord(e *Evolution) *model.EvolutionRecord {
	rec := &model.EvolutionRecord{
		Selection:   stageRecord(e.Selection),
		Combination: stageRecord(e.Combination),
		Mutation:    stageRecord(e.Mutation),
	}
	if rec.Selection == nil && rec.Combination == nil && rec.Mutation == nil {
		return nil
	}
	return rec
}

// stageRecord returns nil for stages that cannot be rebuilt from a name,
// such as host stages or unregistered combinations.
func stageRecord(stage Stage) *model.StageRecord {
	switch s := stage.(type) {
	case *Selection:
		return &model.StageRecord{Name: s.Name(), Size: s.Size}
	case *TournamentSelection:
		return &model.StageRecord{Name: s.Name(), Size: s.Size, TournamentSize: s.TournamentSize}
	case *PointCrossover:
		return &model.StageRecord{Name: s.Name(), Points: s.PointsCount}
	case Combination:
		if _, err := NewCombination(s.Name()); err != nil {
			return nil
		}
		return &model.StageRecord{Name: s.Name()}
	case *Mutation:
		rec := &model.StageRecord{Name: mutationStageName, Probability: s.Probability}
		if s.Rate != nil {
			rec.Rate, rec.HasRate = *s.Rate, true
		}
		return rec
	}
	return nil
}

const mutationStageName = "mutation"

func restoreStages(rec *model.EvolutionRecord, cfg *Config) error {
	if rec == nil {
		return nil
	}
	if rec.Selection != nil {
		s, err := selectionFromRecord(*rec.Selection)
		if err != nil {
			return err
		}
		cfg.Selection = s
	}
	if rec.Combination != nil {
		c, err := combinationFromRecord(*rec.Combination)
		if err != nil {
			return err
		}
		cfg.Combination = c
	}
	if rec.Mutation != nil {
		m, err := mutationFromRecord(*rec.Mutation)
		if err != nil {
			return err
		}
		cfg.Mutation = m
	}
	return nil
}

func selectionFromRecord(rec model.StageRecord) (Stage, error) {
	switch rec.Name {
	case "truncation":
		s, err := NewSelection(rec.Size)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "tournament":
		s, err := NewTournamentSelection(rec.Size, rec.TournamentSize)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown selection stage %q", rec.Name)
	}
}

func combinationFromRecord(rec model.StageRecord) (Stage, error) {
	if rec.Name == "point" {
		c, err := NewPointCrossover(rec.Points)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	c, err := NewCombination(rec.Name)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func mutationFromRecord(rec model.StageRecord) (Stage, error) {
	if rec.Name != mutationStageName {
		return nil, fmt.Errorf("unknown mutation stage %q", rec.Name)
	}
	cfg := MutationConfig{Probability: &rec.Probability}
	if rec.HasRate {
		cfg.Rate = &rec.Rate
	}
	m, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return m, nil
}
