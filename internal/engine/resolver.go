package engine

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Reserved source prefixes addressing the config's distribution pools
// instead of a registered generator.
const (
	stylePrefix = "style."
	ctaPrefix   = "cta."
)

func isPoolSource(source string) bool {
	return strings.HasPrefix(source, stylePrefix) || strings.HasPrefix(source, ctaPrefix)
}

// sourcePlan groups the enabled slots bound to one source, with their shared
// distribution mode already validated.
type sourcePlan struct {
	source string
	mode   DistributionMode
	slots  []Slot // declaration order
}

// validate checks everything that is a static authoring mistake: malformed
// slot names, unknown sources, mixed modes on one source, pool length
// mismatches and variant wiring. It runs before any generator is invoked.
func (e *Engine) validate(cfg CreativeTypeConfig, slots []Slot, count int) ([]sourcePlan, error) {
	if count < 1 {
		return nil, configErrf(cfg.Name, "count must be >= 1, got %d", count)
	}
	if len(cfg.Variants) == 0 {
		return nil, configErrf(cfg.Name, "no variants configured")
	}
	if cfg.VariantSequence == nil && len(cfg.Variants) > 1 {
		return nil, configErrf(cfg.Name, "%d variants but no variant sequence", len(cfg.Variants))
	}
	if cfg.VariantSequence != nil {
		if len(cfg.VariantSequence) < count {
			return nil, configErrf(cfg.Name, "variant sequence has %d entries, need %d", len(cfg.VariantSequence), count)
		}
		for _, v := range cfg.VariantSequence[:count] {
			if _, ok := cfg.Variants[v]; !ok {
				return nil, configErrf(cfg.Name, "variant sequence references unknown variant %q", v)
			}
		}
	}

	// Partition by source, preserving slot declaration order.
	var order []string
	bySource := map[string][]Slot{}
	for _, slot := range slots {
		layer, prop, ok := strings.Cut(slot.Name, ".")
		if !ok || layer == "" || prop == "" || strings.Contains(prop, ".") {
			return nil, configErrf(cfg.Name, "slot name %q must be layer.property", slot.Name)
		}
		if slot.Source == "" {
			return nil, configErrf(cfg.Name, "slot %q has no source", slot.Name)
		}
		if _, seen := bySource[slot.Source]; !seen {
			order = append(order, slot.Source)
		}
		bySource[slot.Source] = append(bySource[slot.Source], slot)
	}

	plans := make([]sourcePlan, 0, len(order))
	for _, source := range order {
		group := bySource[source]

		if isPoolSource(source) {
			pool, poolName := cfg.StylePool, "style_pool"
			if strings.HasPrefix(source, ctaPrefix) {
				pool, poolName = cfg.CTAPool, "cta_pool"
			}
			if pool == nil {
				return nil, configErrf(cfg.Name, "slot source %q but no %s configured", source, poolName)
			}
			if len(pool) != count {
				return nil, configErrf(cfg.Name, "%s has %d entries, count is %d", poolName, len(pool), count)
			}
			plans = append(plans, sourcePlan{source: source, mode: PerCreative, slots: group})
			continue
		}

		if _, ok := e.registry.Lookup(source); !ok {
			return nil, configErrf(cfg.Name, "unknown source %q", source)
		}

		mode := group[0].Mode
		if mode == "" {
			mode = Broadcast
		}
		for _, s := range group[1:] {
			m := s.Mode
			if m == "" {
				m = Broadcast
			}
			if m != mode {
				return nil, configErrf(cfg.Name, "slots for source %q mix distribution modes %q and %q", source, mode, m)
			}
		}
		switch mode {
		case Broadcast, PerCreative, PerSlot:
		default:
			return nil, configErrf(cfg.Name, "slot %q has unknown distribution mode %q", group[0].Name, mode)
		}
		plans = append(plans, sourcePlan{source: source, mode: mode, slots: group})
	}
	return plans, nil
}

// resolve produces, for every distinct source, the value list the layer
// builder indexes into. Distinct sources resolve concurrently; per-slot calls
// within one source keep declaration order in the result list.
func (e *Engine) resolve(ctx context.Context, topic Topic, cfg CreativeTypeConfig, plans []sourcePlan, inputs, options map[string]any, count int) (map[string][]any, error) {
	resolved := make([][]any, len(plans))

	g, gctx := errgroup.WithContext(ctx)
	for i, plan := range plans {
		i, plan := i, plan
		g.Go(func() error {
			vals, err := e.resolveSource(gctx, topic, cfg, plan, inputs, options, count)
			if err != nil {
				return err
			}
			resolved[i] = vals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make(map[string][]any, len(plans))
	for i, plan := range plans {
		results[plan.source] = resolved[i]
	}
	return results, nil
}

func (e *Engine) resolveSource(ctx context.Context, topic Topic, cfg CreativeTypeConfig, plan sourcePlan, inputs, options map[string]any, count int) ([]any, error) {
	if isPoolSource(plan.source) {
		return projectPool(cfg, plan.source, count)
	}

	gen, _ := e.registry.Lookup(plan.source) // validated already

	switch plan.mode {
	case Broadcast:
		vals, err := gen.Generate(ctx, GenerationContext{
			Topic:     topic,
			Inputs:    mergeInputs(inputs, plan.slots...),
			Options:   options,
			Count:     1,
			SlotIndex: -1,
		})
		if err != nil {
			return nil, &GeneratorError{Source: plan.source, Err: err}
		}
		if len(vals) != 1 {
			return nil, &GeneratorError{Source: plan.source, Err: fmt.Errorf("broadcast call returned %d values, want 1", len(vals))}
		}
		return vals, nil

	case PerCreative:
		vals, err := gen.Generate(ctx, GenerationContext{
			Topic:     topic,
			Inputs:    mergeInputs(inputs, plan.slots...),
			Options:   options,
			Count:     count,
			SlotIndex: -1,
		})
		if err != nil {
			return nil, &GeneratorError{Source: plan.source, Err: err}
		}
		if len(vals) != count {
			return nil, &GeneratorError{Source: plan.source, Err: fmt.Errorf("per-creative call returned %d values, want %d", len(vals), count)}
		}
		return vals, nil

	case PerSlot:
		// One call per slot, results in declaration order even when calls
		// run concurrently.
		out := make([]any, len(plan.slots))
		g, gctx := errgroup.WithContext(ctx)
		for pos, slot := range plan.slots {
			pos, slot := pos, slot
			g.Go(func() error {
				idx := pos
				if override, ok := slotIndexOverride(slot); ok {
					idx = override
				}
				vals, err := gen.Generate(gctx, GenerationContext{
					Topic:     topic,
					Inputs:    mergeInputs(inputs, slot),
					Options:   options,
					Count:     1,
					SlotIndex: idx,
				})
				if err != nil {
					return &GeneratorError{Source: plan.source, Err: err}
				}
				if len(vals) != 1 {
					return &GeneratorError{Source: plan.source, Err: fmt.Errorf("per-slot call for %q returned %d values, want 1", slot.Name, len(vals))}
				}
				out[pos] = vals[0]
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, configErrf(cfg.Name, "unknown distribution mode %q", plan.mode)
}

// projectPool extracts the named field from every pool entry. Pool length was
// checked against count during validation.
func projectPool(cfg CreativeTypeConfig, source string, count int) ([]any, error) {
	pool, field := cfg.StylePool, strings.TrimPrefix(source, stylePrefix)
	if strings.HasPrefix(source, ctaPrefix) {
		pool, field = cfg.CTAPool, strings.TrimPrefix(source, ctaPrefix)
	}
	out := make([]any, count)
	for i, entry := range pool {
		v, ok := entry[field]
		if !ok {
			return nil, configErrf(cfg.Name, "pool entry %d is missing field %q for source %q", i, field, source)
		}
		out[i] = v
	}
	return out, nil
}

// mergeInputs overlays the slots' generator configs onto the caller inputs.
// The shared inputs map is never mutated.
func mergeInputs(inputs map[string]any, slots ...Slot) map[string]any {
	merged := make(map[string]any, len(inputs))
	for k, v := range inputs {
		merged[k] = v
	}
	for _, slot := range slots {
		for k, v := range slot.GeneratorConfig {
			merged[k] = v
		}
	}
	return merged
}

// slotIndexOverride reads an explicit per-slot index from the generator
// config, accepting the numeric types JSON decoding produces.
func slotIndexOverride(slot Slot) (int, bool) {
	v, ok := slot.GeneratorConfig["input_index"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
