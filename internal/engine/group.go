package engine

// Group partitions an ordered creative list into consecutive slices of the
// requested size; the final slice may be shorter. size < 1 returns nil.
func Group(creatives []Creative, size int) [][]Creative {
	if size < 1 {
		return nil
	}
	groups := make([][]Creative, 0, (len(creatives)+size-1)/size)
	for start := 0; start < len(creatives); start += size {
		end := start + size
		if end > len(creatives) {
			end = len(creatives)
		}
		groups = append(groups, creatives[start:end])
	}
	return groups
}
