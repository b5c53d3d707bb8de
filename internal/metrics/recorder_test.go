package metrics

import (
	"context"
	"io"
	"math/rand"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"evolvable/internal/evo"
	"evolvable/internal/genotype"
)

type bit struct {
	On bool `json:"on"`
}

var bitGene = genotype.TypeOf("Bit", func(rng *rand.Rand) *bit {
	return &bit{On: rng.Intn(2) == 1}
}, nil)

type ones struct {
	evo.Instance
}

func (o *ones) Fitness() float64 {
	total := 0.0
	for _, gene := range o.FindGenes("bits") {
		if gene.(*bit).On {
			total++
		}
	}
	return total
}

func newOnesPopulation(t *testing.T, r *Recorder, target float64) *evo.Population {
	t.Helper()
	goal := evo.NewMaximize()
	goal.SetTarget(target)
	p, err := evo.NewPopulation(evo.Config{
		Type:     evo.TypeFor[ones]("Ones", [][]any{{"bits", "Bit", 16}}),
		Registry: genotype.NewRegistry().MustRegister(bitGene),
		Size:     10,
		Seed:     3,
		Goal:     goal,
		Hooks:    r.Hooks(),
	})
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	return p
}

func TestRecorderTracksGenerations(t *testing.T) {
	r := NewRecorder()
	p := newOnesPopulation(t, r, 100)

	if err := p.Evolve(context.Background(), evo.EvolveOptions{Count: 3}); err != nil {
		t.Fatalf("evolve: %v", err)
	}

	if got := testutil.ToFloat64(r.generations.WithLabelValues(p.ID())); got != 3 {
		t.Fatalf("generations=%v want 3", got)
	}
	diag, ok := p.LastDiagnostics()
	if !ok {
		t.Fatal("expected diagnostics")
	}
	if got := testutil.ToFloat64(r.bestScore.WithLabelValues(p.ID())); got != diag.BestScore {
		t.Fatalf("best score=%v want %v", got, diag.BestScore)
	}
	if got := testutil.ToFloat64(r.size.WithLabelValues(p.ID())); got != 10 {
		t.Fatalf("size=%v want 10", got)
	}
	if got := testutil.ToFloat64(r.goalMet.WithLabelValues(p.ID())); got != 0 {
		t.Fatalf("goal met=%v want 0", got)
	}
}

func TestRecorderFlagsGoalMet(t *testing.T) {
	r := NewRecorder()
	p := newOnesPopulation(t, r, 0)

	if err := p.Evolve(context.Background(), evo.EvolveOptions{Count: 5}); err != nil {
		t.Fatalf("evolve: %v", err)
	}
	if got := testutil.ToFloat64(r.goalMet.WithLabelValues(p.ID())); got != 1 {
		t.Fatalf("goal met=%v want 1", got)
	}
	if got := testutil.ToFloat64(r.generations.WithLabelValues(p.ID())); got != 0 {
		t.Fatalf("generations=%v want 0", got)
	}
}

func TestRecorderHandler(t *testing.T) {
	r := NewRecorder()
	p := newOnesPopulation(t, r, 100)
	if err := p.Evolve(context.Background(), evo.EvolveOptions{Count: 1}); err != nil {
		t.Fatalf("evolve: %v", err)
	}

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, name := range []string{"evolvable_best_score", "evolvable_generations_total", "evolvable_goal_met"} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("exposition missing %s:\n%s", name, body)
		}
	}
	if n := testutil.CollectAndCount(r.Registry()); n != 6 {
		t.Fatalf("collected %d series, want 6", n)
	}
}
