package engine

import (
	"context"
	"fmt"
	"sort"
)

// Generator is a pluggable unit producing slot values from a shared context.
// It must return exactly ctx.Count values, in creative order. How it uses
// ctx.SlotIndex is up to the implementation; the resolver only enforces the
// length contract.
type Generator interface {
	Generate(ctx context.Context, gctx GenerationContext) ([]any, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, gctx GenerationContext) ([]any, error)

func (f GeneratorFunc) Generate(ctx context.Context, gctx GenerationContext) ([]any, error) {
	return f(ctx, gctx)
}

// Registry maps dotted source names to generator implementations. It is
// populated explicitly at startup and read-only afterwards.
type Registry struct {
	generators map[string]Generator
}

func NewRegistry() *Registry {
	return &Registry{generators: map[string]Generator{}}
}

// Register binds a generator to a source name. Duplicate names are rejected
// so two packages cannot silently fight over a source.
func (r *Registry) Register(source string, g Generator) error {
	if source == "" {
		return fmt.Errorf("register generator: empty source name")
	}
	if g == nil {
		return fmt.Errorf("register generator %q: nil implementation", source)
	}
	if _, exists := r.generators[source]; exists {
		return fmt.Errorf("register generator %q: already registered", source)
	}
	r.generators[source] = g
	return nil
}

// MustRegister is Register for startup wiring, where a duplicate is a
// programming error.
func (r *Registry) MustRegister(source string, g Generator) {
	if err := r.Register(source, g); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(source string) (Generator, bool) {
	g, ok := r.generators[source]
	return g, ok
}

// Sources lists registered source names in sorted order.
func (r *Registry) Sources() []string {
	out := make([]string, 0, len(r.generators))
	for name := range r.generators {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
