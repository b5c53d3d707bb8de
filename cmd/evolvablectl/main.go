package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"evolvable/internal/evo"
	"evolvable/internal/metrics"
	"evolvable/internal/storage"
	"evolvable/pkg/evolvable"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "list":
		return runList(ctx, args[1:])
	case "delete":
		return runDelete(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config TOML path")
	target := fs.String("target", "", "phrase the demo population evolves towards")
	size := fs.Int("size", 0, "population size")
	generations := fs.Int("gens", 0, "generation limit (0 runs until the goal is met)")
	seed := fs.Int64("seed", 0, "rng seed")
	goal := fs.String("goal", "", "goal: maximize|minimize|equalize")
	goalValue := fs.Float64("goal-value", 0, "goal target value")
	selection := fs.String("selection", "", "selection strategy: top|tournament")
	selectionSize := fs.Int("selection-size", 0, "parents kept per generation")
	tournamentSize := fs.Int("tournament-size", 0, "competitors per tournament")
	combination := fs.String("combination", "", "combination strategy: "+strings.Join(evo.ListCombinations(), "|"))
	points := fs.Int("points", 0, "cut points for point crossover")
	mutationProbability := fs.Float64("mutation-probability", 0, "probability an offspring is mutated")
	mutationRate := fs.Float64("mutation-rate", 0, "per-gene mutation rate of mutated offspring")
	storeKind := fs.String("store", "", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "", "sqlite database path")
	codec := fs.String("codec", "", "payload codec: json|gob")
	continueID := fs.String("continue", "", "continue from a stored population id")
	name := fs.String("name", "", "population name")
	metricsAddr := fs.String("metrics-addr", "", "serve prometheus metrics on this address while running")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	jsonOut := fs.Bool("json", false, "emit the run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg, err := loadRunConfig(*configPath)
	if err != nil {
		return err
	}
	overrideFromFlags(&cfg, setFlags, map[string]any{
		"target":               *target,
		"size":                 *size,
		"gens":                 *generations,
		"seed":                 *seed,
		"goal":                 *goal,
		"goal-value":           *goalValue,
		"selection":            *selection,
		"selection-size":       *selectionSize,
		"tournament-size":      *tournamentSize,
		"combination":          *combination,
		"points":               *points,
		"mutation-probability": *mutationProbability,
		"mutation-rate":        *mutationRate,
		"store":                *storeKind,
		"db-path":              *dbPath,
		"codec":                *codec,
		"continue":             *continueID,
		"name":                 *name,
		"metrics-addr":         *metricsAddr,
	})

	logger, err := newLogger(*logLevel)
	if err != nil {
		return err
	}

	client, err := openClient(ctx, cfg.Store, cfg.DBPath, cfg.Codec)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	recorder := metrics.NewRecorder()
	if cfg.MetricsAddr != "" {
		stop, err := serveMetrics(cfg.MetricsAddr, recorder, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	popCfg, err := populationConfig(cfg, logger, recorder.Hooks())
	if err != nil {
		return err
	}

	var population *evolvable.Population
	if cfg.Continue != "" {
		population, err = client.Load(ctx, cfg.Continue, popCfg)
	} else {
		population, err = evolvable.NewPopulation(popCfg)
	}
	if err != nil {
		return err
	}

	evolveErr := population.Evolve(ctx, evolvable.EvolveOptions{Count: cfg.Generations, GoalValue: cfg.GoalValue})
	if err := client.Save(ctx, population); err != nil {
		return err
	}
	if evolveErr != nil {
		return evolveErr
	}

	best, err := population.BestEvolvable()
	if err != nil {
		return err
	}
	summary := evolvable.Summarize(population)
	result := runResult{
		PopulationID: population.ID(),
		Generation:   population.EvolutionsCount(),
		GoalMet:      summary.GoalMet,
		Summary:      summary,
	}
	// An empty population has no best evolvable.
	if best, ok := best.(*phrase); ok {
		result.Best = best.String()
		result.BestFitness = best.Fitness()
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Population %s", result.PopulationID))
	t.AppendRows([]table.Row{
		{"Generation", result.Generation},
		{"Goal met", result.GoalMet},
		{"Best", result.Best},
		{"Best fitness", fmt.Sprintf("%0.2f", result.BestFitness)},
		{"Improvements", summary.Improvements},
		{"Median best score", fmt.Sprintf("%0.2f", summary.MedianBestScore)},
	})
	t.Render()
	return nil
}

type runResult struct {
	PopulationID string               `json:"population_id"`
	Generation   int                  `json:"generation"`
	GoalMet      bool                 `json:"goal_met"`
	Best         string               `json:"best"`
	BestFitness  float64              `json:"best_fitness"`
	Summary      evolvable.RunSummary `json:"summary"`
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	id := fs.String("id", "", "population id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evolvable.db", "sqlite database path")
	limit := fs.Int("limit", 0, "show only the last N generations (0 shows all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("show requires --id")
	}
	if *limit < 0 {
		return errors.New("limit must be >= 0")
	}

	client, err := openClient(ctx, *storeKind, *dbPath, "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, *id)
	if err != nil {
		return err
	}
	if *limit > 0 && len(diagnostics) > *limit {
		diagnostics = diagnostics[len(diagnostics)-*limit:]
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(diagnostics)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Population %s - Diagnostics", *id))
	t.AppendHeader(table.Row{"GEN", "SIZE", "BEST", "MEAN", "MIN", "STDDEV", "BEST FITNESS", "GOAL MET"})
	for _, d := range diagnostics {
		t.AppendRow(table.Row{
			d.Generation,
			d.Size,
			fmt.Sprintf("%0.4f", d.BestScore),
			fmt.Sprintf("%0.4f", d.MeanScore),
			fmt.Sprintf("%0.4f", d.MinScore),
			fmt.Sprintf("%0.4f", d.StdDevScore),
			fmt.Sprintf("%0.4f", d.BestFitness),
			d.GoalMet,
		})
	}
	t.Render()
	return nil
}

func runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evolvable.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit populations as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := openClient(ctx, *storeKind, *dbPath, "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	populations, err := client.Populations(ctx)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(populations)
	}
	if len(populations) == 0 {
		fmt.Println("no populations found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "NAME", "TYPE", "SIZE", "GENERATION", "GOAL"})
	for _, p := range populations {
		t.AppendRow(table.Row{p.ID, p.Name, p.Type, p.Size, p.EvolutionsCount, p.Goal})
	}
	t.Render()
	return nil
}

func runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.String("id", "", "population id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evolvable.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("delete requires --id")
	}

	client, err := openClient(ctx, *storeKind, *dbPath, "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("deleted population=%s\n", *id)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	id := fs.String("id", "", "population id")
	outDir := fs.String("out", "exports", "export directory")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "evolvable.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("export requires --id")
	}

	client, err := openClient(ctx, *storeKind, *dbPath, "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	dir, err := client.Export(ctx, *id, *outDir)
	if err != nil {
		return err
	}
	fmt.Printf("exported population=%s dir=%s\n", *id, dir)
	return nil
}

func populationConfig(cfg RunConfig, logger *slog.Logger, hooks evolvable.Hooks) (evolvable.Config, error) {
	if cfg.Target == "" {
		return evolvable.Config{}, errors.New("target phrase is required")
	}
	selection, combination, mutation, err := cfg.stages()
	if err != nil {
		return evolvable.Config{}, err
	}
	goal, err := evolvable.ParseGoal(cfg.Goal, cfg.GoalValue)
	if err != nil {
		return evolvable.Config{}, err
	}
	if cfg.GoalValue == nil && goal.Name() == "minimize" {
		goal.SetTarget(0)
	}
	return evolvable.Config{
		Type:        phraseType(cfg.Target, cfg.Space),
		Registry:    phraseRegistry(),
		Name:        cfg.Name,
		Size:        cfg.Size,
		Goal:        goal,
		Selection:   selection,
		Combination: combination,
		Mutation:    mutation,
		Seed:        cfg.Seed,
		Logger:      logger,
		Hooks:       hooks,
	}, nil
}

func openClient(ctx context.Context, kind, dbPath, codec string) (*evolvable.Client, error) {
	client, err := evolvable.New(evolvable.Options{StoreKind: kind, DBPath: dbPath, Codec: codec})
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// serveMetrics exposes recorder on addr until the returned stop is called.
func serveMetrics(addr string, recorder *metrics.Recorder, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen metrics %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())
	return func() {
		_ = srv.Close()
	}, nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: evolvablectl <run|show|list|delete|export> [flags]", msg)
}
