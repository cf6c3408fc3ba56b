package bplus

// ScanDirection selects which sibling link a range scan follows.
type ScanDirection int

const (
	ScanForward ScanDirection = iota
	ScanBackward
)

// MaybePrefetch issues an advisory async load for the sibling leaf the scan
// will visit after leaf: next for forward scans, prev for backward scans.
// It returns immediately in all cases and never reports failure.
//
// The sibling id read here is a racy snapshot. A split may slide a new page
// between leaf and its recorded sibling before the scan follows the link; a
// merge may remove the sibling entirely. Either way the hint only risks a
// wasted read, because the scan driver re-reads the sibling pointer from the
// pinned leaf at follow time and never trusts the prefetched target.
func (t *BPlusTree) MaybePrefetch(leaf *Node, dir ScanDirection, p ScanParams) {
	if !p.PrefetchEnabled || leaf == nil {
		return
	}

	sibling := leaf.NextSibling()
	if dir == ScanBackward {
		sibling = leaf.PrevSibling()
	}
	if sibling == InvalidPageID {
		// End of the leaf chain: nothing to hint.
		return
	}

	t.cache.RequestAsyncLoad(sibling)
}
