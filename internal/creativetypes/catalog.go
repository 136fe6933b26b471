// Package creativetypes is the registry of creative-type configurations.
// Configs are declarative wiring only; all behavior lives in the engine.
package creativetypes

import (
	"fmt"
	"sort"

	"creative-engine/internal/cache"
	"creative-engine/internal/engine"
)

// Catalog holds the immutable set of creative-type configs, keyed by name.
// Built once at startup, lock-free reads afterwards.
type Catalog struct {
	snap cache.Snapshot[map[string]engine.CreativeTypeConfig]
}

// NewCatalog builds a catalog from the given configs, rejecting duplicates.
func NewCatalog(configs ...engine.CreativeTypeConfig) (*Catalog, error) {
	m := make(map[string]engine.CreativeTypeConfig, len(configs))
	for _, cfg := range configs {
		if cfg.Name == "" {
			return nil, fmt.Errorf("creative type with empty name")
		}
		if _, exists := m[cfg.Name]; exists {
			return nil, fmt.Errorf("creative type %q registered twice", cfg.Name)
		}
		m[cfg.Name] = cfg
	}
	c := &Catalog{}
	c.snap.Store(m)
	return c, nil
}

// BuiltIn returns the catalog of shipped creative types.
func BuiltIn() *Catalog {
	c, err := NewCatalog(HalfHalf(), ProductGrid(), ProductCluster())
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the config for a creative-type name.
func (c *Catalog) Get(name string) (engine.CreativeTypeConfig, error) {
	m, _ := c.snap.Load()
	cfg, ok := m[name]
	if !ok {
		return engine.CreativeTypeConfig{}, fmt.Errorf("unknown creative type %q", name)
	}
	return cfg, nil
}

// List returns all registered creative-type names, sorted.
func (c *Catalog) List() []string {
	m, _ := c.snap.Load()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered config, ordered by name.
func (c *Catalog) All() []engine.CreativeTypeConfig {
	m, _ := c.snap.Load()
	out := make([]engine.CreativeTypeConfig, 0, len(m))
	for _, name := range c.List() {
		out = append(out, m[name])
	}
	return out
}
