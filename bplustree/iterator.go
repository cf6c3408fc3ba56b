package bplus

// Iterator provides a range scan over the leaf chain in either direction.
//
// Each page visit works the same way: take the tree read lock, pin the leaf,
// snapshot the session parameters, position with LocateLeaf, copy the
// qualifying items out, issue at most one sibling prefetch hint, re-read the
// sibling id from the still pinned leaf, then unpin and release the lock.
// The copied batch is what Next/Key/Value serve, so a concurrent split of an
// already visited page cannot disturb the scan, and the traversal only ever
// follows sibling ids read under a pin, never the target of a prefetch hint.
type Iterator struct {
	tree    *BPlusTree
	session *ScanSession
	dir     ScanDirection

	keys [][]byte
	vals [][]byte
	idx  int

	nextLeaf int64 // sibling to visit next, re-read at batch time
	valid    bool
}

// SeekGE starts a forward scan at the first key >= target.
func (t *BPlusTree) SeekGE(target []byte, sess *ScanSession) *Iterator {
	it := &Iterator{tree: t, session: sess, dir: ScanForward}
	it.seek(target)
	if !it.valid {
		it.advance()
	}
	return it
}

// SeekLE starts a backward scan at the rightmost exact match for target, or
// at the greatest key < target when target is absent. Equal keys are all
// yielded before the scan moves below them.
func (t *BPlusTree) SeekLE(target []byte, sess *ScanSession) *Iterator {
	it := &Iterator{tree: t, session: sess, dir: ScanBackward}
	it.seek(target)
	if !it.valid {
		it.advance()
	}
	return it
}

// seek performs the first page visit under the tree read lock.
func (it *Iterator) seek(target []byte) {
	t := it.tree
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf := t.FindLeaf(t.root, target)
	if leaf == nil {
		return
	}

	params := it.session.Snapshot()
	out := LocateLeaf(leaf, target, t.cmp, params)
	start := out.Slot
	if it.dir == ScanBackward {
		if out.Found {
			// A descending scan must include every equal key, so start at
			// the rightmost duplicate rather than the leftmost slot
			// LocateLeaf reports.
			start = upperBound(leaf.key, target, t.cmp) - 1
		} else {
			start = out.Slot - 1
		}
	}
	it.fillFromLeaf(leaf, start, params)
}

// fillFromLeaf copies the leaf's items from start to the end the scan is
// heading toward, issues the per-visit prefetch hint, records the sibling id
// and releases the pin. The caller must pass leaf pinned and must hold the
// tree read lock.
func (it *Iterator) fillFromLeaf(leaf *Node, start int, p ScanParams) {
	it.keys = it.keys[:0]
	it.vals = it.vals[:0]
	it.idx = 0

	n := leaf.ItemCount()
	if it.dir == ScanForward {
		for i := start; i < n; i++ {
			k, v := leaf.ItemAt(i)
			it.keys = append(it.keys, k)
			it.vals = append(it.vals, v)
		}
	} else {
		if start > n-1 {
			start = n - 1
		}
		for i := start; i >= 0; i-- {
			k, v := leaf.ItemAt(i)
			it.keys = append(it.keys, k)
			it.vals = append(it.vals, v)
		}
	}

	// One hint per page visit, while the pin still holds the sibling
	// pointers stable.
	it.tree.MaybePrefetch(leaf, it.dir, p)

	// The authoritative link the scan will actually follow.
	if it.dir == ScanForward {
		it.nextLeaf = leaf.NextSibling()
	} else {
		it.nextLeaf = leaf.PrevSibling()
	}

	_ = it.tree.cache.Unpin(leaf.id)
	it.valid = len(it.keys) > 0
}

// advance visits sibling leaves until one yields items or the chain ends.
// Each visit takes the tree read lock so writers cannot mutate node slices
// mid-copy.
func (it *Iterator) advance() bool {
	t := it.tree
	for it.nextLeaf != InvalidPageID {
		t.mu.RLock()
		leaf, err := t.cache.Get(it.nextLeaf)
		if err != nil || leaf == nil {
			t.mu.RUnlock()
			break
		}
		_ = t.cache.Pin(leaf.id)

		params := it.session.Snapshot()
		start := 0
		if it.dir == ScanBackward {
			start = leaf.ItemCount() - 1
		}
		it.fillFromLeaf(leaf, start, params)
		t.mu.RUnlock()
		if it.valid {
			return true
		}
	}
	it.valid = false
	return false
}

// Next advances the iterator. Returns false when exhausted.
func (it *Iterator) Next() bool {
	if !it.valid {
		return false
	}
	it.idx++
	if it.idx < len(it.keys) {
		return true
	}
	return it.advance()
}

// Valid reports whether the iterator is positioned on an item.
func (it *Iterator) Valid() bool {
	return it.valid
}

// Key returns the current key.
func (it *Iterator) Key() []byte {
	if !it.valid {
		return nil
	}
	return it.keys[it.idx]
}

// Value returns the current value.
func (it *Iterator) Value() []byte {
	if !it.valid {
		return nil
	}
	return it.vals[it.idx]
}
