package creativetypes

import (
	"fmt"

	"creative-engine/internal/engine"
)

// gridStyle builds the nine background colors of the grid layout; cells 5-8
// mirror cells 1-4.
func gridStyle(bgLeft, bg1, bg2, bg3, bg4 string) map[string]any {
	return map[string]any{
		"bg_left":    bgLeft,
		"bg_right_1": bg1, "bg_right_2": bg2, "bg_right_3": bg3, "bg_right_4": bg4,
		"bg_right_5": bg1, "bg_right_6": bg2, "bg_right_7": bg3, "bg_right_8": bg4,
	}
}

// ProductGrid is an eight-cell product grid: each cell is bound to its own
// input URL through a per-slot image source.
func ProductGrid() engine.CreativeTypeConfig {
	slots := []engine.Slot{
		{Name: "main_text.text", Source: "text.main_text", Mode: engine.PerCreative},
	}
	// Eight image cells, one input URL each. Declaration order already
	// matches the URL order; input_index pins it explicitly.
	for i := 0; i < 8; i++ {
		slots = append(slots, engine.Slot{
			Name:            fmt.Sprintf("img-right-%d.image", i+1),
			Source:          "image.product",
			Mode:            engine.PerSlot,
			GeneratorConfig: map[string]any{"input_index": i, "aspect_ratio": "1:1"},
		})
	}
	slots = append(slots, engine.Slot{Name: "bg-left.background_color", Source: "style.bg_left"})
	for i := 0; i < 8; i++ {
		slots = append(slots, engine.Slot{
			Name:   fmt.Sprintf("bg-right-%d.background_color", i+1),
			Source: fmt.Sprintf("style.bg_right_%d", i+1),
		})
	}
	slots = append(slots, engine.Slot{Name: "cta.image", Source: "cta.button_image"})

	return engine.CreativeTypeConfig{
		Name:            "product_grid",
		DisplayName:     "Product Grid",
		Variants:        map[string]string{"default": "rmmpciphegoyo"},
		VariantSequence: repeat("default", DefaultCount),
		StylePool: pool(3,
			gridStyle("#DA8C90", "#E8AAAC", "#DA8C90", "#827171", "#D4D2D6"),
			gridStyle("#855E89", "#DBD4FD", "#855E89", "#827171", "#D4D2D6"),
			gridStyle("#597A9A", "#B5D7E6", "#597A9A", "#827171", "#D4D2D6"),
			gridStyle("#362626", "#FDEDD4", "#A69A87", "#827171", "#D4D2D6"),
		),
		CTAPool: pool(3,
			map[string]any{"button_image": ctaAssetBase + "/%23E8AAAC/black.png"},
			map[string]any{"button_image": ctaAssetBase + "/%23DBD4FD/black.png"},
			map[string]any{"button_image": ctaAssetBase + "/%23B5D7E6/black.png"},
			map[string]any{"button_image": ctaAssetBase + "/%23FDEDD4/black.png"},
		),
		Slots: slots,
	}
}
