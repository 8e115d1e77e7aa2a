package pages

import (
	"context"
	"fmt"
)

// Loader runs a page's backend reads in order. Each step starts only after
// the previous one returned; the first failure stops the sequence and the
// page is never rendered with partial data.
type Loader struct {
	steps []loadStep
}

type loadStep struct {
	name string
	when func() bool
	run  func(ctx context.Context) error
}

// LoadError reports which step failed.
type LoadError struct {
	Step string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Step, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Step appends a read that always runs.
func (l *Loader) Step(name string, run func(ctx context.Context) error) *Loader {
	l.steps = append(l.steps, loadStep{name: name, run: run})
	return l
}

// StepIf appends a read that runs only when when() is true. The condition is
// evaluated after the earlier steps have finished, so it may depend on them.
func (l *Loader) StepIf(when func() bool, name string, run func(ctx context.Context) error) *Loader {
	l.steps = append(l.steps, loadStep{name: name, when: when, run: run})
	return l
}

// Load runs the steps sequentially. A cancelled context stops before the
// next step.
func (l *Loader) Load(ctx context.Context) error {
	for _, step := range l.steps {
		if err := ctx.Err(); err != nil {
			return &LoadError{Step: step.name, Err: err}
		}
		if step.when != nil && !step.when() {
			continue
		}
		if err := step.run(ctx); err != nil {
			return &LoadError{Step: step.name, Err: err}
		}
	}
	return nil
}
