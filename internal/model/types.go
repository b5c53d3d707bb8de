package model

import "encoding/json"

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// CountRecord is the persisted form of a count gene.
type CountRecord struct {
	Rigid bool `json:"rigid"`
	Count int  `json:"count"`
	Min   int  `json:"min"`
	Max   int  `json:"max"`
}

// GroupRecord is the persisted form of one gene group. Gene values are kept as
// JSON documents so the outer serializer stays opaque to gene types.
type GroupRecord struct {
	Key   string            `json:"key"`
	Type  string            `json:"type"`
	Count CountRecord       `json:"count"`
	Genes []json.RawMessage `json:"genes"`
}

type GenomeRecord struct {
	VersionedRecord
	Groups []GroupRecord `json:"groups"`
}

// GoalRecord stores a goal by name. Target is nil for the goal's default
// infinite target, which JSON cannot represent. gob drops a pointer to zero,
// so HasTarget carries that case through binary codecs.
type GoalRecord struct {
	Name      string   `json:"name"`
	Target    *float64 `json:"target,omitempty"`
	HasTarget bool     `json:"has_target,omitempty"`
}

// StageRecord stores a built-in evolution stage by name with its parameters.
// Fields a stage does not use stay zero.
type StageRecord struct {
	Name           string  `json:"name"`
	Size           int     `json:"size,omitempty"`
	TournamentSize int     `json:"tournament_size,omitempty"`
	Points         int     `json:"points,omitempty"`
	Probability    float64 `json:"probability,omitempty"`
	Rate           float64 `json:"rate,omitempty"`
	HasRate        bool    `json:"has_rate,omitempty"`
}

// EvolutionRecord stores the stages of a population's pipeline. A nil stage
// was supplied by the host and cannot be persisted.
type EvolutionRecord struct {
	Selection   *StageRecord `json:"selection,omitempty"`
	Combination *StageRecord `json:"combination,omitempty"`
	Mutation    *StageRecord `json:"mutation,omitempty"`
}

type PopulationRecord struct {
	VersionedRecord
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Type            string           `json:"type"`
	Size            int              `json:"size"`
	EvolutionsCount int              `json:"evolutions_count"`
	Goal            GoalRecord       `json:"goal"`
	Evolution       *EvolutionRecord `json:"evolution,omitempty"`
	Genomes         []GenomeRecord   `json:"genomes"`
}

type GenerationDiagnostics struct {
	Generation  int     `json:"generation"`
	Size        int     `json:"size"`
	BestScore   float64 `json:"best_score"`
	MeanScore   float64 `json:"mean_score"`
	MinScore    float64 `json:"min_score"`
	BestFitness float64 `json:"best_fitness"`
	StdDevScore float64 `json:"stddev_score"`
	GoalMet     bool    `json:"goal_met"`
}

// PopulationSummary is the listing view of a stored population.
type PopulationSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	Size            int    `json:"size"`
	EvolutionsCount int    `json:"evolutions_count"`
	Goal            string `json:"goal"`
}

// Summary returns the listing view of the record.
func (r PopulationRecord) Summary() PopulationSummary {
	return PopulationSummary{
		ID:              r.ID,
		Name:            r.Name,
		Type:            r.Type,
		Size:            r.Size,
		EvolutionsCount: r.EvolutionsCount,
		Goal:            r.Goal.Name,
	}
}
