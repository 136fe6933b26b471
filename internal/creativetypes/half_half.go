package creativetypes

import "creative-engine/internal/engine"

// DefaultCount is the batch size the shipped configs are sized for: four
// color variants, three creatives each.
const DefaultCount = 12

const ctaAssetBase = "https://creatives-dealogic-assets.s3.amazonaws.com/cta"

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// pool expands one entry per color variant into a per-creative pool of
// perVariant copies each.
func pool(perVariant int, entries ...map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(entries)*perVariant)
	for _, e := range entries {
		for i := 0; i < perVariant; i++ {
			out = append(out, e)
		}
	}
	return out
}

// HalfHalf is a split layout: product image on one side, text on the other.
func HalfHalf() engine.CreativeTypeConfig {
	return engine.CreativeTypeConfig{
		Name:            "half_half",
		DisplayName:     "Half Half",
		Variants:        map[string]string{"default": "iiuu1uj0yzwbk"},
		VariantSequence: repeat("default", DefaultCount),
		StylePool: pool(3,
			map[string]any{"bg_left": "#ebd4f1", "bg_right": "#dfd2d2", "text_color": "#5F5151"},
			map[string]any{"bg_left": "#b8c2dd", "bg_right": "#dfd2d2", "text_color": "#5F5151"},
			map[string]any{"bg_left": "#cba29c", "bg_right": "#dfd2d2", "text_color": "#5F5151"},
			map[string]any{"bg_left": "#626686", "bg_right": "#d9d9d9", "text_color": "#FFFFFF"},
		),
		CTAPool: pool(3,
			map[string]any{"button_image": ctaAssetBase + "/%238994B2/black.png"},
			map[string]any{"button_image": ctaAssetBase + "/%23004AAD/black.png"},
			map[string]any{"button_image": ctaAssetBase + "/%23691A1E/white.png"},
			map[string]any{"button_image": ctaAssetBase + "/%23A6A6A6/white.png"},
		),
		Slots: []engine.Slot{
			{Name: "main_text.text", Source: "text.main_text", Mode: engine.PerCreative},
			{Name: "main_text.text_color", Source: "style.text_color"},
			{Name: "bg_left.background_color", Source: "style.bg_left"},
			{Name: "bg_right.background_color", Source: "style.bg_right"},
			{Name: "cta.image", Source: "cta.button_image"},
			// Single product image broadcast to every creative.
			{Name: "image.image", Source: "image.product", Mode: engine.Broadcast,
				GeneratorConfig: map[string]any{"input_index": 0, "aspect_ratio": "9:16"}},
		},
	}
}
