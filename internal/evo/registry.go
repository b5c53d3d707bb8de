package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrCombinationExists   = errors.New("combination already registered")
	ErrCombinationNotFound = errors.New("combination not found")
)

// CombinationFactory builds a fresh combination strategy with default settings.
type CombinationFactory func() Combination

var combinationRegistry = struct {
	mu sync.RWMutex
	m  map[string]CombinationFactory
}{
	m: builtinCombinations(),
}

func builtinCombinations() map[string]CombinationFactory {
	return map[string]CombinationFactory{
		"gene":    func() Combination { return GeneCombination{} },
		"uniform": func() Combination { return UniformCrossover{} },
		"point":   func() Combination { return &PointCrossover{PointsCount: 1} },
	}
}

// RegisterCombination makes a host strategy available to NewCombination.
func RegisterCombination(name string, factory CombinationFactory) error {
	if name == "" {
		return errors.New("combination name is required")
	}
	if factory == nil {
		return errors.New("combination factory is required")
	}

	combinationRegistry.mu.Lock()
	defer combinationRegistry.mu.Unlock()

	if _, exists := combinationRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrCombinationExists, name)
	}
	combinationRegistry.m[name] = factory
	return nil
}

// NewCombination builds the strategy registered under name.
func NewCombination(name string) (Combination, error) {
	combinationRegistry.mu.RLock()
	factory, ok := combinationRegistry.m[name]
	combinationRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCombinationNotFound, name)
	}
	return factory(), nil
}

func ListCombinations() []string {
	combinationRegistry.mu.RLock()
	defer combinationRegistry.mu.RUnlock()

	names := make([]string, 0, len(combinationRegistry.m))
	for name := range combinationRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetCombinationRegistryForTests() {
	combinationRegistry.mu.Lock()
	defer combinationRegistry.mu.Unlock()
	combinationRegistry.m = builtinCombinations()
}
