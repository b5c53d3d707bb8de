package evo

import (
	"errors"
	"testing"
)

type mirrorCombination struct {
	GeneCombination
}

func (mirrorCombination) Name() string { return "mirror" }

func TestBuiltinCombinations(t *testing.T) {
	resetCombinationRegistryForTests()
	t.Cleanup(resetCombinationRegistryForTests)

	names := ListCombinations()
	if len(names) != 3 || names[0] != "gene" || names[1] != "point" || names[2] != "uniform" {
		t.Fatalf("unexpected combinations: %v", names)
	}
	for _, name := range names {
		c, err := NewCombination(name)
		if err != nil {
			t.Fatalf("new %s: %v", name, err)
		}
		if c.Name() != name {
			t.Fatalf("combination %s reports name %s", name, c.Name())
		}
	}
	c, _ := NewCombination("point")
	if pc, ok := c.(*PointCrossover); !ok || pc.PointsCount != 1 {
		t.Fatalf("expected one-point crossover, got %#v", c)
	}
}

func TestRegisterCombination(t *testing.T) {
	resetCombinationRegistryForTests()
	t.Cleanup(resetCombinationRegistryForTests)

	factory := func() Combination { return mirrorCombination{} }
	if err := RegisterCombination("mirror", factory); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterCombination("mirror", factory); !errors.Is(err, ErrCombinationExists) {
		t.Fatalf("expected ErrCombinationExists, got %v", err)
	}
	if err := RegisterCombination("", factory); err == nil {
		t.Fatal("expected empty name error")
	}
	if err := RegisterCombination("nil", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	c, err := NewCombination("mirror")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.Name() != "mirror" {
		t.Fatalf("unexpected combination: %s", c.Name())
	}
}

func TestNewCombinationNotFound(t *testing.T) {
	if _, err := NewCombination("missing"); !errors.Is(err, ErrCombinationNotFound) {
		t.Fatalf("expected ErrCombinationNotFound, got %v", err)
	}
}
