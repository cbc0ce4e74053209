package indexer

import "iter"

// BlockRange is an inclusive span of blocks fetched in one eth_getLogs call.
type BlockRange struct {
	From uint64
	To   uint64
}

// blockRanges yields consecutive ranges of at most size blocks covering
// [from, to]. size must be positive.
func blockRanges(from, to, size uint64) iter.Seq[BlockRange] {
	return func(yield func(BlockRange) bool) {
		if size == 0 || to < from {
			return
		}
		for start := from; ; start += size {
			end := to
			if to-start >= size {
				end = start + size - 1
			}
			if !yield(BlockRange{From: start, To: end}) || end == to {
				return
			}
		}
	}
}
