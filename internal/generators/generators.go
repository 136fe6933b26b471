// Package generators holds the built-in slot value generators and their
// registration with the engine registry. New generators are added purely by
// registering; the resolver never changes.
package generators

import (
	"context"
	"fmt"
	"strings"

	"creative-engine/internal/engine"
)

// Source names the built-ins register under.
const (
	SourceHeader       = "text.header"
	SourceMainText     = "text.main_text"
	SourceProductImage = "image.product"
	SourceClusterImage = "image.cluster"
)

// ClusterFunc produces one composite image URL from a list of product image
// URLs. The actual compositing lives behind this boundary.
type ClusterFunc func(ctx context.Context, urls []string, aspectRatio string, peopleMode bool) (string, error)

// RegisterBuiltins wires the built-in generators into the registry. cluster
// may be nil, in which case the image.cluster source is not available.
func RegisterBuiltins(reg *engine.Registry, cluster ClusterFunc) error {
	if err := reg.Register(SourceHeader, engine.GeneratorFunc(Header)); err != nil {
		return err
	}
	if err := reg.Register(SourceMainText, engine.GeneratorFunc(MainText)); err != nil {
		return err
	}
	if err := reg.Register(SourceProductImage, engine.GeneratorFunc(ProductImage)); err != nil {
		return err
	}
	if cluster != nil {
		if err := reg.Register(SourceClusterImage, clusterImage(cluster)); err != nil {
			return err
		}
	}
	return nil
}

// Header returns the topic name upper-cased, once per requested value.
func Header(_ context.Context, gctx engine.GenerationContext) ([]any, error) {
	header := strings.ToUpper(gctx.Topic.Name)
	out := make([]any, gctx.Count)
	for i := range out {
		out[i] = header
	}
	return out, nil
}

// MainText returns one line per creative from the main_lines input.
func MainText(_ context.Context, gctx engine.GenerationContext) ([]any, error) {
	lines, err := stringList(gctx.Inputs["main_lines"])
	if err != nil {
		return nil, fmt.Errorf("main_lines: %w", err)
	}
	if len(lines) < gctx.Count {
		return nil, fmt.Errorf("main_lines has %d lines, need %d", len(lines), gctx.Count)
	}
	out := make([]any, gctx.Count)
	for i := range out {
		out[i] = lines[i]
	}
	return out, nil
}

// ProductImage picks one URL from product_image_urls. The URL index is the
// per-slot index when present, otherwise the input_index generator config.
func ProductImage(_ context.Context, gctx engine.GenerationContext) ([]any, error) {
	urls, err := stringList(gctx.Inputs["product_image_urls"])
	if err != nil {
		return nil, fmt.Errorf("product_image_urls: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no product_image_urls provided")
	}

	idx := gctx.SlotIndex
	if idx < 0 {
		idx = intInput(gctx.Inputs, "input_index", 0)
	}
	if idx >= len(urls) {
		return nil, fmt.Errorf("image index %d out of range (have %d urls)", idx, len(urls))
	}

	out := make([]any, gctx.Count)
	for i := range out {
		out[i] = urls[idx]
	}
	return out, nil
}

func clusterImage(build ClusterFunc) engine.GeneratorFunc {
	return func(ctx context.Context, gctx engine.GenerationContext) ([]any, error) {
		urls, err := stringList(gctx.Inputs["product_image_urls"])
		if err != nil {
			return nil, fmt.Errorf("product_image_urls: %w", err)
		}
		if len(urls) < 1 || len(urls) > 8 {
			return nil, fmt.Errorf("expected 1-8 product_image_urls, got %d", len(urls))
		}

		aspect := "16:9"
		if v, ok := gctx.Inputs["aspect_ratio"].(string); ok && v != "" {
			aspect = v
		}
		people, _ := gctx.Options["is_people_mode"].(bool)

		url, err := build(ctx, urls, aspect, people)
		if err != nil {
			return nil, err
		}
		out := make([]any, gctx.Count)
		for i := range out {
			out[i] = url
		}
		return out, nil
	}
}

// stringList accepts both []string and the []any form JSON decoding produces.
func stringList(v any) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return list, nil
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("entry %d is %T, want string", i, item)
			}
			out[i] = s
		}
		return out, nil
	case string:
		var out []string
		for _, line := range strings.Split(list, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported type %T", v)
}

func intInput(inputs map[string]any, key string, def int) int {
	switch n := inputs[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}
