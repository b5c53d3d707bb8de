package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"evolvable/internal/evo"
	"evolvable/internal/storage"
)

// RunConfig is the TOML shape of a run. Flags set on the command line
// override values read from the file.
type RunConfig struct {
	Target              string         `toml:"target"`
	Size                int            `toml:"size"`
	Generations         int            `toml:"generations"`
	Seed                int64          `toml:"seed"`
	Goal                string         `toml:"goal"`
	GoalValue           *float64       `toml:"goal_value"`
	Selection           string         `toml:"selection"`
	SelectionSize       int            `toml:"selection_size"`
	TournamentSize      int            `toml:"tournament_size"`
	Combination         string         `toml:"combination"`
	Points              int            `toml:"points"`
	MutationProbability *float64       `toml:"mutation_probability"`
	MutationRate        *float64       `toml:"mutation_rate"`
	Store               string         `toml:"store"`
	DBPath              string         `toml:"db_path"`
	Codec               string         `toml:"codec"`
	Continue            string         `toml:"continue"`
	Name                string         `toml:"name"`
	MetricsAddr         string         `toml:"metrics_addr"`
	Space               map[string]any `toml:"space"`
}

func defaultRunConfig() RunConfig {
	mutationProbability := 0.3
	return RunConfig{
		Target:              "hello, world",
		Size:                60,
		Generations:         500,
		Seed:                1,
		Goal:                "minimize",
		Selection:           "top",
		SelectionSize:       evo.DefaultSelectionSize,
		Combination:         "gene",
		Points:              1,
		MutationProbability: &mutationProbability,
		Store:               storage.DefaultStoreKind(),
		DBPath:              "evolvable.db",
	}
}

func loadRunConfig(path string) (RunConfig, error) {
	cfg := defaultRunConfig()
	if path == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return RunConfig{}, fmt.Errorf("load run config %s: %w", path, err)
	}
	if unknown := unknownKeys(meta); len(unknown) > 0 {
		return RunConfig{}, fmt.Errorf("load run config %s: unknown keys %v", path, unknown)
	}
	return cfg, nil
}

// unknownKeys reports undecoded keys outside the space table. toml leaves
// keys decoded into the free-form space map marked as undecoded.
func unknownKeys(meta toml.MetaData) []toml.Key {
	var unknown []toml.Key
	for _, key := range meta.Undecoded() {
		if len(key) > 0 && key[0] == "space" {
			continue
		}
		unknown = append(unknown, key)
	}
	return unknown
}

func overrideFromFlags(cfg *RunConfig, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "target":
			cfg.Target = v.(string)
		case "size":
			cfg.Size = v.(int)
		case "gens":
			cfg.Generations = v.(int)
		case "seed":
			cfg.Seed = v.(int64)
		case "goal":
			cfg.Goal = v.(string)
		case "goal-value":
			goal := v.(float64)
			cfg.GoalValue = &goal
		case "selection":
			cfg.Selection = v.(string)
		case "selection-size":
			cfg.SelectionSize = v.(int)
		case "tournament-size":
			cfg.TournamentSize = v.(int)
		case "combination":
			cfg.Combination = v.(string)
		case "points":
			cfg.Points = v.(int)
		case "mutation-probability":
			p := v.(float64)
			cfg.MutationProbability = &p
		case "mutation-rate":
			r := v.(float64)
			cfg.MutationRate = &r
		case "store":
			cfg.Store = v.(string)
		case "db-path":
			cfg.DBPath = v.(string)
		case "codec":
			cfg.Codec = v.(string)
		case "continue":
			cfg.Continue = v.(string)
		case "name":
			cfg.Name = v.(string)
		case "metrics-addr":
			cfg.MetricsAddr = v.(string)
		}
	}
}

// stages builds the evolution pipeline named by cfg.
func (cfg RunConfig) stages() (selection, combination, mutation evo.Stage, err error) {
	switch cfg.Selection {
	case "", "top":
		s, err := evo.NewSelection(cfg.SelectionSize)
		if err != nil {
			return nil, nil, nil, err
		}
		selection = s
	case "tournament":
		s, err := evo.NewTournamentSelection(cfg.SelectionSize, cfg.TournamentSize)
		if err != nil {
			return nil, nil, nil, err
		}
		selection = s
	default:
		return nil, nil, nil, fmt.Errorf("unsupported selection: %s", cfg.Selection)
	}

	if cfg.Combination == "point" {
		c, err := evo.NewPointCrossover(cfg.Points)
		if err != nil {
			return nil, nil, nil, err
		}
		combination = c
	} else {
		c, err := evo.NewCombination(cfg.Combination)
		if err != nil {
			return nil, nil, nil, err
		}
		combination = c
	}

	m, err := evo.MutationConfig{Probability: cfg.MutationProbability, Rate: cfg.MutationRate}.Build()
	if err != nil {
		return nil, nil, nil, err
	}
	return selection, combination, m, nil
}
