package bplus

import (
	"encoding/binary"
)

// NewBPlusTree opens a tree over the given pager and buffer pool. Page 0 of
// the backing store holds the root pointer; a fresh store starts empty.
func NewBPlusTree(p Pager, bp *BufferPool, cmp func(a, b []byte) int) *BPlusTree {
	// Set the pager on the buffer pool so it can load nodes from disk
	bp.SetPager(p)
	t := &BPlusTree{
		root:  InvalidPageID,
		pager: p,
		cache: bp,
		cmp:   cmp,
	}
	t.loadRoot()
	return t
}

// saveRoot persists the root page id into meta page 0.
func (t *BPlusTree) saveRoot() {
	meta := make([]byte, PageSize)
	binary.LittleEndian.PutUint64(meta[0:8], uint64(t.root))
	_ = t.pager.WritePage(0, meta)
}

// loadRoot restores the root page id from meta page 0, if present.
func (t *BPlusTree) loadRoot() {
	meta, err := t.pager.ReadPage(0)
	if err != nil || len(meta) < 8 {
		return
	}
	t.root = int64(binary.LittleEndian.Uint64(meta[0:8]))
}
