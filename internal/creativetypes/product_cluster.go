package creativetypes

import "creative-engine/internal/engine"

// ProductCluster renders a composed cluster of products with a header and
// per-creative main text. The header is optional and gated by the
// include_header toggle.
func ProductCluster() engine.CreativeTypeConfig {
	return engine.CreativeTypeConfig{
		Name:            "product_cluster",
		DisplayName:     "Product Cluster",
		Variants:        map[string]string{"default": "qkzxwbemtpicg"},
		VariantSequence: repeat("default", DefaultCount),
		StylePool: pool(3,
			map[string]any{"background_color": "#F3E5DC", "text_color": "#3B2F2F", "font": "Poppins"},
			map[string]any{"background_color": "#DCE8F3", "text_color": "#1F2A44", "font": "Poppins"},
			map[string]any{"background_color": "#E4F3DC", "text_color": "#2F3B2F", "font": "Poppins"},
			map[string]any{"background_color": "#F3DCE9", "text_color": "#442A3A", "font": "Poppins"},
		),
		Slots: []engine.Slot{
			{Name: "header.text", Source: "text.header", Mode: engine.Broadcast, Optional: true},
			{Name: "header.text_color", Source: "style.text_color", Optional: true, ToggleKey: "include_header"},
			{Name: "main_text.text", Source: "text.main_text", Mode: engine.PerCreative},
			{Name: "main_text.text_color", Source: "style.text_color"},
			{Name: "main_text.font", Source: "style.font"},
			{Name: "bg.background_color", Source: "style.background_color"},
			{Name: "image.image", Source: "image.cluster", Mode: engine.Broadcast,
				GeneratorConfig: map[string]any{"aspect_ratio": "16:9"}},
		},
	}
}
