package bplus

// SearchOutcome is the result of positioning a key within a leaf page.
// Slot is the matching slot when Found, otherwise the insertion point that
// keeps the page sorted. Comparisons counts key comparisons, for
// instrumentation and tests only.
type SearchOutcome struct {
	Found       bool
	Slot        int
	Comparisons int
}

// LocateLeaf positions key within the sorted items of a pinned leaf. The
// caller must hold at least a read lock on the leaf for the duration of the
// call; LocateLeaf itself takes no locks, does no I/O and cannot fail.
//
// Two strategies produce identical (Found, Slot) results for every input:
// a linear scan, taken when enabled and the item count is within
// [2, threshold], and a lower-bound binary search otherwise. Duplicates
// resolve to the leftmost match on both paths. An empty leaf yields
// (false, 0).
func LocateLeaf(leaf *Node, key []byte, cmp func(a, b []byte) int, p ScanParams) SearchOutcome {
	n := leaf.ItemCount()
	if p.LinearScanEnabled && n >= 2 && n <= p.LinearScanThreshold {
		return locateLinear(leaf.key, key, cmp)
	}
	return locateBinary(leaf.key, key, cmp)
}

// locateLinear walks slots in index order and stops at the first item >= key.
// For the handful of items it is allowed to see, the straight-line loop beats
// binary search bookkeeping.
func locateLinear(keys [][]byte, target []byte, cmp func(a, b []byte) int) SearchOutcome {
	comparisons := 0
	for i := range keys {
		comparisons++
		c := cmp(keys[i], target)
		if c >= 0 {
			return SearchOutcome{Found: c == 0, Slot: i, Comparisons: comparisons}
		}
	}
	return SearchOutcome{Found: false, Slot: len(keys), Comparisons: comparisons}
}

// locateBinary is the standard lower-bound search, plus one equality check at
// the landing slot.
func locateBinary(keys [][]byte, target []byte, cmp func(a, b []byte) int) SearchOutcome {
	comparisons := 0
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := lo + (hi-lo)/2
		comparisons++
		if cmp(keys[mid], target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	out := SearchOutcome{Slot: lo, Comparisons: comparisons}
	if lo < len(keys) {
		out.Comparisons++
		out.Found = cmp(keys[lo], target) == 0
	}
	return out
}
