package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroup(t *testing.T) {
	mk := func(n int) []Creative {
		out := make([]Creative, n)
		for i := range out {
			out[i] = Creative{AssetURL: fmt.Sprintf("asset-%d", i)}
		}
		return out
	}

	tests := []struct {
		name      string
		creatives []Creative
		size      int
		wantSizes []int
	}{
		{"even split", mk(12), 3, []int{3, 3, 3, 3}},
		{"short tail", mk(7), 3, []int{3, 3, 1}},
		{"single group", mk(2), 5, []int{2}},
		{"empty input", nil, 3, nil},
		{"size one", mk(3), 1, []int{1, 1, 1}},
		{"invalid size", mk(3), 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := Group(tt.creatives, tt.size)
			assert.Len(t, groups, len(tt.wantSizes))
			seen := 0
			for i, g := range groups {
				assert.Len(t, g, tt.wantSizes[i])
				for _, c := range g {
					assert.Equal(t, fmt.Sprintf("asset-%d", seen), c.AssetURL, "grouping must preserve order")
					seen++
				}
			}
		})
	}
}
