package bplus

// FindLeaf descends from nodeId to the leaf that covers key. The returned
// leaf is pinned; the caller must Unpin it when done.
func (t *BPlusTree) FindLeaf(nodeId int64, key []byte) *Node {
	for {
		if nodeId == InvalidPageID || t == nil || t.cache == nil {
			return nil
		}
		n, err := t.cache.Get(nodeId)
		if err != nil || n == nil {
			return nil
		}
		_ = t.cache.Pin(n.id)
		if n.nodeType == NodeLeaf {
			return n // caller must Unpin when done
		}
		i := upperBound(n.key, key, t.cmp)
		if i < 0 {
			i = 0
		}
		if i >= len(n.children) {
			if len(n.children) == 0 {
				_ = t.cache.Unpin(n.id)
				return nil
			}
			i = len(n.children) - 1
		}
		nextId := n.children[i]
		_ = t.cache.Unpin(n.id)
		nodeId = nextId
	}
}

// Search looks for a key in the B+Tree and returns its value if found, else nil.
func (t *BPlusTree) Search(key []byte) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf := t.FindLeaf(t.root, key)
	if leaf == nil {
		return nil, nil
	}
	defer t.cache.Unpin(leaf.id)

	out := LocateLeaf(leaf, key, t.cmp, defaultParams.Snapshot())
	if out.Found {
		return leaf.vals[out.Slot], nil
	}
	return nil, nil
}
