package genotype

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrTypeExists   = errors.New("gene type already registered")
	ErrTypeNotFound = errors.New("gene type not registered")
)

// Registry maps gene type identifiers to gene types and count factories. Hosts
// populate a registry and hand it to the search space builder.
type Registry struct {
	mu     sync.RWMutex
	types  map[string]*Type
	counts map[string]CountFactory
}

func NewRegistry() *Registry {
	return &Registry{
		types:  make(map[string]*Type),
		counts: make(map[string]CountFactory),
	}
}

// Register adds a gene type under its name.
func (r *Registry) Register(t *Type) error {
	if err := t.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrTypeExists, t.Name)
	}
	r.types[t.Name] = t
	return nil
}

// MustRegister is Register for package-level setup; it panics on error.
func (r *Registry) MustRegister(types ...*Type) *Registry {
	for _, t := range types {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// RegisterCount adds a custom count gene factory under name.
func (r *Registry) RegisterCount(name string, factory CountFactory) error {
	if name == "" {
		return errors.New("count type name is required")
	}
	if factory == nil {
		return fmt.Errorf("count type %s: factory is required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.counts[name]; exists {
		return fmt.Errorf("%w: count %s", ErrTypeExists, name)
	}
	r.counts[name] = factory
	return nil
}

// Lookup resolves a gene type identifier.
func (r *Registry) Lookup(name string) (*Type, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %q (no registry configured)", ErrTypeNotFound, name)
	}
	r.mu.RLock()
	t, ok := r.types[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTypeNotFound, name)
	}
	return t, nil
}

// Has reports whether name resolves to a registered gene type.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[name]
	return ok
}

// LookupCount resolves a custom count type identifier.
func (r *Registry) LookupCount(name string) (CountFactory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.counts[name]
	return factory, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
