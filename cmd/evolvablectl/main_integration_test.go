//go:build sqlite

package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"evolvable/internal/model"
)

func TestRunListShowContinueSQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "evolvable.db")

	out, err := captureStdout(func() error {
		return run(ctx, []string{
			"run",
			"--store", "sqlite",
			"--db-path", dbPath,
			"--codec", "gob",
			"--target", "gopher",
			"--gens", "3",
			"--name", "demo",
			"--log-level", "error",
			"--json",
		})
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var first runResult
	if err := json.Unmarshal([]byte(out), &first); err != nil {
		t.Fatalf("decode run output: %v\n%s", err, out)
	}
	if first.Generation != 3 {
		t.Fatalf("generation=%d want 3", first.Generation)
	}

	out, err = captureStdout(func() error {
		return run(ctx, []string{"list", "--store", "sqlite", "--db-path", dbPath, "--json"})
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var summaries []model.PopulationSummary
	if err := json.Unmarshal([]byte(out), &summaries); err != nil {
		t.Fatalf("decode list output: %v\n%s", err, out)
	}
	if len(summaries) != 1 || summaries[0].ID != first.PopulationID || summaries[0].Name != "demo" {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}

	out, err = captureStdout(func() error {
		return run(ctx, []string{"show", "--store", "sqlite", "--db-path", dbPath, "--id", first.PopulationID})
	})
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "BEST FITNESS") {
		t.Fatalf("unexpected show output:\n%s", out)
	}

	out, err = captureStdout(func() error {
		return run(ctx, []string{
			"run",
			"--store", "sqlite",
			"--db-path", dbPath,
			"--target", "gopher",
			"--continue", first.PopulationID,
			"--gens", "2",
			"--log-level", "error",
			"--json",
		})
	})
	if err != nil {
		t.Fatalf("continue: %v", err)
	}
	var second runResult
	if err := json.Unmarshal([]byte(out), &second); err != nil {
		t.Fatalf("decode continue output: %v\n%s", err, out)
	}
	if second.PopulationID != first.PopulationID || second.Generation != 5 {
		t.Fatalf("unexpected continued run: %+v", second)
	}

	exportDir := t.TempDir()
	out, err = captureStdout(func() error {
		return run(ctx, []string{"export", "--store", "sqlite", "--db-path", dbPath, "--id", first.PopulationID, "--out", exportDir})
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, filepath.Join(exportDir, first.PopulationID)) {
		t.Fatalf("unexpected export output: %s", out)
	}

	if err := run(ctx, []string{"delete", "--store", "sqlite", "--db-path", dbPath, "--id", first.PopulationID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := run(ctx, []string{"show", "--store", "sqlite", "--db-path", dbPath, "--id", first.PopulationID}); err == nil {
		t.Fatal("expected show of deleted population to fail")
	}
}
