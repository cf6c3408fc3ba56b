// Seed program: builds a sample B+ tree index file.
// Run: go run ./cmd/seed [-config configs/leafdb.yaml] [-n 1000]
// Then inspect: go run ./cmd/inspect_idx data/leaf.idx
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	bplus "LeafDB/bplustree"
	"LeafDB/config"
)

func main() {
	configPath := flag.String("config", "", "path to a leafdb.yaml config file")
	n := flag.Int("n", 1000, "number of keys to insert")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Index.Path), 0755); err != nil {
		log.Fatalf("mkdir: %v", err)
	}

	pager, err := bplus.NewOnDiskPager(cfg.Index.Path)
	if err != nil {
		log.Fatalf("open index: %v", err)
	}
	defer pager.Close()

	cache, err := bplus.NewBufferPool(cfg.Index.BufferPoolPages)
	if err != nil {
		log.Fatalf("buffer pool: %v", err)
	}
	defer cache.Close()

	tree := bplus.NewBPlusTree(pager, cache, bytes.Compare)

	fmt.Printf("Seeding %d keys into %s...\n", *n, cfg.Index.Path)
	for i := 0; i < *n; i++ {
		key := []byte(fmt.Sprintf("key%08d", i))
		val := []byte(fmt.Sprintf("val%08d", i))
		tree.Insertion(key, val)
	}

	if err := cache.Flush(); err != nil {
		log.Fatalf("flush: %v", err)
	}
	if err := pager.Sync(); err != nil {
		log.Fatalf("sync: %v", err)
	}

	fmt.Println("\nDone. Inspect:")
	fmt.Println("  - Index file:", cfg.Index.Path)
	fmt.Println("  - Structure dump: go run ./cmd/inspect_idx", cfg.Index.Path)
}
