package evo

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	ErrUnimplemented = errors.New("unimplemented")
	ErrUnknownGoal   = errors.New("unknown goal")
)

// Goal ranks evolvables and decides when evolution stops. Scores are
// compared ascending, so the best evolvable always has the highest score.
type Goal interface {
	Name() string
	Target() float64
	SetTarget(v float64)
	Evaluate(e Evolvable) (float64, error)
	Met(e Evolvable) (bool, error)
}

// FitnessReporter is implemented by evolvables that expose a fitness value.
type FitnessReporter interface {
	Fitness() float64
}

// Fitness reads the fitness of e. Evolvables without a Fitness method fail
// with ErrUnimplemented.
func Fitness(e Evolvable) (float64, error) {
	r, ok := e.(FitnessReporter)
	if !ok {
		return 0, fmt.Errorf("%w: %T must implement Fitness() float64", ErrUnimplemented, e)
	}
	return r.Fitness(), nil
}

// BaseGoal carries a target and nothing else. Its Evaluate and Met fail until
// an embedding goal overrides them.
type BaseGoal struct {
	target float64
}

func (g *BaseGoal) Name() string        { return "base" }
func (g *BaseGoal) Target() float64     { return g.target }
func (g *BaseGoal) SetTarget(v float64) { g.target = v }

func (g *BaseGoal) Evaluate(_ Evolvable) (float64, error) {
	return 0, fmt.Errorf("%w: %T.Evaluate", ErrUnimplemented, g)
}

func (g *BaseGoal) Met(_ Evolvable) (bool, error) {
	return false, fmt.Errorf("%w: %T.Met", ErrUnimplemented, g)
}

// Maximize scores evolvables by fitness. It is met once fitness reaches the
// target, which defaults to +Inf.
type Maximize struct {
	BaseGoal
}

func NewMaximize() *Maximize {
	return &Maximize{BaseGoal{target: math.Inf(1)}}
}

func (g *Maximize) Name() string { return "maximize" }

func (g *Maximize) Evaluate(e Evolvable) (float64, error) {
	return Fitness(e)
}

func (g *Maximize) Met(e Evolvable) (bool, error) {
	f, err := Fitness(e)
	if err != nil {
		return false, err
	}
	return f >= g.target, nil
}

// Minimize scores evolvables by negated fitness. It is met once fitness drops
// to the target, which defaults to -Inf.
type Minimize struct {
	BaseGoal
}

func NewMinimize() *Minimize {
	return &Minimize{BaseGoal{target: math.Inf(-1)}}
}

func (g *Minimize) Name() string { return "minimize" }

func (g *Minimize) Evaluate(e Evolvable) (float64, error) {
	f, err := Fitness(e)
	if err != nil {
		return 0, err
	}
	return -f, nil
}

func (g *Minimize) Met(e Evolvable) (bool, error) {
	f, err := Fitness(e)
	if err != nil {
		return false, err
	}
	return f <= g.target, nil
}

// Equalize scores evolvables by their negated distance to the target.
type Equalize struct {
	BaseGoal
}

func NewEqualize() *Equalize {
	return &Equalize{}
}

func (g *Equalize) Name() string { return "equalize" }

func (g *Equalize) Evaluate(e Evolvable) (float64, error) {
	f, err := Fitness(e)
	if err != nil {
		return 0, err
	}
	return -math.Abs(f - g.target), nil
}

func (g *Equalize) Met(e Evolvable) (bool, error) {
	f, err := Fitness(e)
	if err != nil {
		return false, err
	}
	return f == g.target, nil
}

var goalFactories = map[string]func() Goal{
	"maximize": func() Goal { return NewMaximize() },
	"minimize": func() Goal { return NewMinimize() },
	"equalize": func() Goal { return NewEqualize() },
}

// ParseGoal builds a built-in goal by name. A nil target keeps the goal's
// default.
func ParseGoal(name string, target *float64) (Goal, error) {
	factory, ok := goalFactories[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownGoal, name, strings.Join(GoalNames(), ", "))
	}
	goal := factory()
	if target != nil {
		goal.SetTarget(*target)
	}
	return goal, nil
}

func GoalNames() []string {
	names := make([]string, 0, len(goalFactories))
	for name := range goalFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
