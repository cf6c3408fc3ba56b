// Package bplus: index file inspection for debugging.
// Use InspectIndexFile(path) to print a human-readable dump of an index file (.idx).

package bplus

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// InspectIndexFile opens a B+ tree index file and prints its structure to stdout.
func InspectIndexFile(indexPath string) error {
	return InspectIndexFileTo(os.Stdout, indexPath)
}

// InspectIndexFileTo writes a human-readable dump of the index file to w:
// page 0 = root id, then each node's keys and (for leaves) the sibling links.
func InspectIndexFileTo(w io.Writer, indexPath string) error {
	pager, err := NewOnDiskPager(indexPath)
	if err != nil {
		return err
	}
	defer pager.Close()

	meta, err := pager.ReadPage(0)
	if err != nil {
		return fmt.Errorf("read meta page: %w", err)
	}
	if len(meta) < 8 {
		return fmt.Errorf("meta page too short")
	}

	rootID := int64(binary.LittleEndian.Uint64(meta[0:8]))
	p := func(format string, args ...interface{}) { fmt.Fprintf(w, format, args...) }

	p("Index file: %s\n", indexPath)
	p("  Page 0 (meta): root page id = %d\n", rootID)
	if rootID == InvalidPageID {
		fmt.Fprintln(w, "  (empty tree)")
		return nil
	}

	fmt.Fprintln(w, "\n  Nodes (BFS):")
	fmt.Fprintln(w, "  ---")

	var queue []int64
	queue = append(queue, rootID)
	level := 0

	for len(queue) > 0 {
		size := len(queue)
		p("  Level %d:\n", level)
		next := queue[size:]
		for i := 0; i < size; i++ {
			pageID := queue[i]
			page, err := pager.ReadPage(pageID)
			if err != nil {
				p("    [page %d] read error: %v\n", pageID, err)
				continue
			}
			node, err := decodeNode(page, pageID)
			if err != nil {
				p("    [page %d] decode error: %v\n", pageID, err)
				continue
			}

			if node.nodeType == NodeInternal {
				keyStrs := make([]string, len(node.key))
				for j, k := range node.key {
					keyStrs[j] = string(k)
				}
				p("    [page %d] INTERNAL keys=%v children=%v\n",
					pageID, keyStrs, node.children)
				for _, c := range node.children {
					if c != InvalidPageID {
						next = append(next, c)
					}
				}
			} else {
				p("    [page %d] LEAF prev=%d next=%d\n", pageID, node.prev, node.next)
				for j, k := range node.key {
					p("      %s -> %d bytes\n", string(k), len(node.vals[j]))
				}
			}
		}
		queue = next
		level++
	}

	return nil
}
