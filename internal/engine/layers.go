package engine

import "strings"

// enabledSlots drops optional slots whose toggle evaluated false. A dropped
// slot contributes nothing downstream: its source is never resolved and its
// layer key is never sent, which keeps the layer map an exact record of the
// render request.
func enabledSlots(slots []Slot, inputs, options map[string]any) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.Optional && !toggleOn(slot, inputs, options) {
			continue
		}
		out = append(out, slot)
	}
	return out
}

func toggleOn(slot Slot, inputs, options map[string]any) bool {
	key := slot.Toggle()
	if v, ok := options[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	if v, ok := inputs[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return true // included unless explicitly switched off
}

// buildLayers assembles the flat layer map for creative index i from the
// resolved source results. Slots arrive in declaration order; per-slot
// sources are indexed by the slot's own position among its source's slots,
// not by i.
func buildLayers(slots []Slot, plans []sourcePlan, results map[string][]any, i int) Layers {
	modes := make(map[string]DistributionMode, len(plans))
	for _, p := range plans {
		modes[p.source] = p.mode
	}

	layers := Layers{}
	perSlotPos := map[string]int{}
	for _, slot := range slots {
		vals := results[slot.Source]

		var value any
		switch modes[slot.Source] {
		case PerSlot:
			pos := perSlotPos[slot.Source]
			perSlotPos[slot.Source] = pos + 1
			value = vals[pos]
		case PerCreative:
			value = vals[i]
		default: // Broadcast
			value = vals[0]
		}

		layer, prop, _ := strings.Cut(slot.Name, ".")
		if layers[layer] == nil {
			layers[layer] = map[string]any{}
		}
		layers[layer][prop] = value
	}
	return layers
}

// variantFor picks the variant for creative index i and maps it to the
// external template identifier.
func variantFor(cfg CreativeTypeConfig, i int) (name, templateID string) {
	if cfg.VariantSequence != nil {
		name = cfg.VariantSequence[i]
		return name, cfg.Variants[name]
	}
	for n, id := range cfg.Variants { // validated single entry
		return n, id
	}
	return "", ""
}
