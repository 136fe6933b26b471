package engine

import "strings"

// Topic carries the universal campaign facts shared by every generator call.
type Topic struct {
	Name     string `json:"name"`
	Event    string `json:"event"`
	Discount string `json:"discount"`
	PageType string `json:"page_type"`
	URL      string `json:"url"`
}

// DistributionMode controls how a slot's source results map onto creatives.
type DistributionMode string

const (
	// Broadcast: one generator call, the single value goes to every creative.
	Broadcast DistributionMode = "broadcast"
	// PerCreative: one generator call returning count values, creative i gets value i.
	PerCreative DistributionMode = "per_creative"
	// PerSlot: one generator call per slot; each slot gets its own value on
	// every creative.
	PerSlot DistributionMode = "per_slot"
)

// Slot is one named placeholder in an external template.
// Name is "layer.property" (e.g. "header.text").
type Slot struct {
	Name            string           `json:"name"`
	Source          string           `json:"source"`
	Mode            DistributionMode `json:"mode,omitempty"`
	Optional        bool             `json:"optional,omitempty"`
	ToggleKey       string           `json:"toggle_key,omitempty"`
	GeneratorConfig map[string]any   `json:"generator_config,omitempty"`
}

// Layer returns the layer component of the slot name ("header.text" -> "header").
func (s Slot) Layer() string {
	layer, _, _ := strings.Cut(s.Name, ".")
	return layer
}

// Toggle returns the runtime option key gating an optional slot.
// Defaults to "include_<layer>" when no explicit key is set.
func (s Slot) Toggle() string {
	if s.ToggleKey != "" {
		return s.ToggleKey
	}
	return "include_" + s.Layer()
}

// CreativeTypeConfig is the declarative description of one creative family.
// Immutable after registration.
type CreativeTypeConfig struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`

	// Variants maps a variant name to the external template identifier.
	Variants map[string]string `json:"variants"`
	// VariantSequence has one entry per creative index; nil means the single
	// configured variant applies to every creative.
	VariantSequence []string `json:"variant_sequence,omitempty"`

	Slots []Slot `json:"slots"`

	// StylePool and CTAPool are distribution pools: per-creative value maps
	// indexed directly by creative position, addressed by slots via the
	// "style.*" / "cta.*" source prefixes.
	StylePool []map[string]any `json:"style_pool,omitempty"`
	CTAPool   []map[string]any `json:"cta_pool,omitempty"`
}

// GenerationContext is the argument passed to every generator call.
type GenerationContext struct {
	Topic   Topic
	Inputs  map[string]any
	Options map[string]any

	// Count is how many values this call must produce.
	Count int
	// SlotIndex identifies which same-source slot a per-slot call serves;
	// -1 for broadcast and per-creative calls.
	SlotIndex int
}

// Layers is the flattened layer map sent to the renderer:
// layers[layer][property] = value.
type Layers map[string]map[string]any

// Creative is one fully resolved, rendered output unit.
type Creative struct {
	CreativeType string `json:"creative_type"`
	Variant      string `json:"variant"`
	Layers       Layers `json:"layers"`
	AssetURL     string `json:"asset_url"`
}
