package bplus

// SplitLeaf splits an overfull leaf, keeping the lower half in place and
// moving the upper half to a new right sibling. The doubly linked leaf chain
// is repaired so both scan directions stay consistent: the new sibling is
// spliced between leaf and its old right neighbor.
func (t *BPlusTree) SplitLeaf(leaf *Node) {
	mid := len(leaf.key) / 2

	right := NewNode(NodeLeaf)
	right.id, _ = t.pager.AllocatePage()

	right.key = append(right.key, leaf.key[mid:]...)
	right.vals = append(right.vals, leaf.vals[mid:]...)
	right.numKeys = int16(len(right.key))
	right.parent = leaf.parent

	leaf.key = leaf.key[:mid]
	leaf.vals = leaf.vals[:mid]
	leaf.numKeys = int16(len(leaf.key))

	// splice right into the chain: leaf <-> right <-> old next
	right.next = leaf.next
	right.prev = leaf.id
	leaf.next = right.id
	if right.next != InvalidPageID {
		if nn, _ := t.cache.Get(right.next); nn != nil {
			nn.prev = right.id
			t.cache.MarkDirty(nn.id)
		}
	}

	t.cache.Put(right)
	t.cache.MarkDirty(right.id)
	t.cache.MarkDirty(leaf.id)

	promote := right.key[0]

	if leaf.id == t.root {
		newRoot := NewNode(NodeInternal)
		newRoot.id, _ = t.pager.AllocatePage()
		newRoot.key = append(newRoot.key, promote)
		newRoot.children = append(newRoot.children, leaf.id, right.id)
		newRoot.numKeys = 1
		leaf.parent = newRoot.id
		right.parent = newRoot.id
		t.root = newRoot.id
		t.cache.Put(newRoot)
		t.cache.MarkDirty(newRoot.id)
		t.saveRoot()
		return
	}

	t.insertIntoParent(leaf.parent, leaf.id, promote, right.id)
}
