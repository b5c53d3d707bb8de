//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"evolvable/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path  string
	codec Codec

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens nothing until Init. A nil codec selects JSON.
func NewSQLiteStore(path string, codec Codec) *SQLiteStore {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &SQLiteStore{path: path, codec: codec}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SavePopulation(ctx context.Context, population model.PopulationRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodePopulation(s.codec, population)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO populations (id, name, type, size, evolutions_count, goal, schema_version, codec_version, codec, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			size = excluded.size,
			evolutions_count = excluded.evolutions_count,
			goal = excluded.goal,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			codec = excluded.codec,
			payload = excluded.payload
	`, population.ID, population.Name, population.Type, population.Size, population.EvolutionsCount,
		population.Goal.Name, population.SchemaVersion, population.CodecVersion, s.codec.Name(), payload)
	return err
}

func (s *SQLiteStore) GetPopulation(ctx context.Context, id string) (model.PopulationRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.PopulationRecord{}, false, err
	}

	var (
		codecName string
		payload   []byte
	)
	err = db.QueryRowContext(ctx, `SELECT codec, payload FROM populations WHERE id = ?`, id).Scan(&codecName, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PopulationRecord{}, false, nil
		}
		return model.PopulationRecord{}, false, err
	}

	codec, err := NewCodec(codecName)
	if err != nil {
		return model.PopulationRecord{}, false, fmt.Errorf("decode population %s: %w", id, err)
	}
	population, err := DecodePopulation(codec, payload)
	if err != nil {
		return model.PopulationRecord{}, false, fmt.Errorf("decode population %s: %w", id, err)
	}
	return population, true, nil
}

func (s *SQLiteStore) ListPopulations(ctx context.Context) ([]model.PopulationSummary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, type, size, evolutions_count, goal
		FROM populations
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PopulationSummary
	for rows.Next() {
		var summary model.PopulationSummary
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.Type, &summary.Size, &summary.EvolutionsCount, &summary.Goal); err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeletePopulation(ctx context.Context, id string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM populations WHERE id = ?`, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM diagnostics WHERE population_id = ?`, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveGenerationDiagnostics(ctx context.Context, populationID string, diagnostics []model.GenerationDiagnostics) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeGenerationDiagnostics(s.codec, diagnostics)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO diagnostics (population_id, codec, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(population_id) DO UPDATE SET
			codec = excluded.codec,
			payload = excluded.payload
	`, populationID, s.codec.Name(), payload)
	return err
}

func (s *SQLiteStore) GetGenerationDiagnostics(ctx context.Context, populationID string) ([]model.GenerationDiagnostics, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var (
		codecName string
		payload   []byte
	)
	err = db.QueryRowContext(ctx, `SELECT codec, payload FROM diagnostics WHERE population_id = ?`, populationID).Scan(&codecName, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	codec, err := NewCodec(codecName)
	if err != nil {
		return nil, false, fmt.Errorf("decode diagnostics %s: %w", populationID, err)
	}
	diagnostics, err := DecodeGenerationDiagnostics(codec, payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode diagnostics %s: %w", populationID, err)
	}
	return diagnostics, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS populations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			size INTEGER NOT NULL,
			evolutions_count INTEGER NOT NULL,
			goal TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			codec TEXT NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS diagnostics (
			population_id TEXT PRIMARY KEY,
			codec TEXT NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
