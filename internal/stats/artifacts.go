package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"evolvable/internal/model"
)

const (
	populationFile  = "population.json"
	diagnosticsFile = "generation_diagnostics.json"
	summaryFile     = "run_summary.json"
	seriesFile      = "best_series.csv"
)

// RunArtifacts is everything exported for one population.
type RunArtifacts struct {
	Population  model.PopulationRecord
	Diagnostics []model.GenerationDiagnostics
}

// WriteRunArtifacts writes the population snapshot, its diagnostics, a run
// summary and the best-score series under baseDir/<population id>.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Population.ID == "" {
		return "", fmt.Errorf("population id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Population.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, populationFile), artifacts.Population); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, diagnosticsFile), artifacts.Diagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), SummarizeRun(artifacts.Diagnostics)); err != nil {
		return "", err
	}
	if err := writeBestSeries(filepath.Join(runDir, seriesFile), artifacts.Diagnostics); err != nil {
		return "", err
	}
	return runDir, nil
}

// ReadRunSummary loads the summary written by WriteRunArtifacts.
func ReadRunSummary(runDir string) (RunSummary, bool, error) {
	data, err := os.ReadFile(filepath.Join(runDir, summaryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return RunSummary{}, false, nil
		}
		return RunSummary{}, false, err
	}
	var summary RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return RunSummary{}, false, err
	}
	return summary, true, nil
}

func writeBestSeries(path string, diagnostics []model.GenerationDiagnostics) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best_score", "best_fitness", "mean_score"}); err != nil {
		return err
	}
	for _, d := range diagnostics {
		if err := writer.Write([]string{
			strconv.Itoa(d.Generation),
			strconv.FormatFloat(d.BestScore, 'f', -1, 64),
			strconv.FormatFloat(d.BestFitness, 'f', -1, 64),
			strconv.FormatFloat(d.MeanScore, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadBestSeries returns the best score per generation from a series file.
func ReadBestSeries(runDir string) ([]float64, bool, error) {
	file, err := os.Open(filepath.Join(runDir, seriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("best series header must have at least 2 columns")
	}

	series := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
