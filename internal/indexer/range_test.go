package indexer

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockRanges(t *testing.T) {
	got := slices.Collect(blockRanges(100, 105, 2))
	assert.Equal(t, []BlockRange{{100, 101}, {102, 103}, {104, 105}}, got)

	assert.Equal(t, []BlockRange{{5, 5}}, slices.Collect(blockRanges(5, 5, 10)))
	assert.Equal(t, []BlockRange{{1, 3}, {4, 4}}, slices.Collect(blockRanges(1, 4, 3)))
}

func TestBlockRangesEmpty(t *testing.T) {
	assert.Empty(t, slices.Collect(blockRanges(10, 9, 1)))
	assert.Empty(t, slices.Collect(blockRanges(1, 10, 0)))
}

func TestBlockRangesStopsEarly(t *testing.T) {
	var seen []BlockRange
	for r := range blockRanges(0, 99, 10) {
		seen = append(seen, r)
		if len(seen) == 2 {
			break
		}
	}
	assert.Len(t, seen, 2)
}

func TestBlockRangesNearMaxBlock(t *testing.T) {
	const top = ^uint64(0)
	got := slices.Collect(blockRanges(top-2, top, 2))
	assert.Equal(t, []BlockRange{{top - 2, top - 1}, {top, top}}, got)
}
