// Range-scan benchmark: measures leaf scans under each tuning configuration
// (linear vs binary page search, prefetch on/off) and compares against a
// Pebble LSM baseline over the same workload. Results go to a CSV for
// offline analysis.
//
// Run: go run ./cmd/scanbench [-n 100000] [-scans 200] [-range 500] [-out results.csv]
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/cockroachdb/pebble"

	bplus "LeafDB/bplustree"
)

type BenchResult struct {
	Name      string
	Config    string
	Operation string
	LatencyNs int64
	MemMB     uint64
	Objects   uint64
}

type MemoryStats struct {
	AllocMB     uint64
	HeapObjects uint64
}

// GetDetailedMem forces a GC first so the numbers reflect live data, not
// garbage waiting for collection.
func GetDetailedMem() MemoryStats {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return MemoryStats{
		AllocMB:     m.Alloc / 1024 / 1024,
		HeapObjects: m.HeapObjects,
	}
}

func Record(w *csv.Writer, res BenchResult) {
	w.Write([]string{
		res.Name,
		res.Config,
		res.Operation,
		strconv.FormatInt(res.LatencyNs, 10),
		strconv.FormatUint(res.MemMB, 10),
		strconv.FormatUint(res.Objects, 10),
	})
}

func benchKey(i int) []byte {
	return []byte(fmt.Sprintf("key%08d", i))
}

func main() {
	n := flag.Int("n", 100000, "number of keys in the index")
	scans := flag.Int("scans", 200, "number of range scans per configuration")
	scanRange := flag.Int("range", 500, "keys per range scan")
	out := flag.String("out", "results.csv", "CSV output path")
	flag.Parse()

	workDir, err := os.MkdirTemp("", "scanbench")
	if err != nil {
		log.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(workDir)

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create %s: %v", *out, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	w.Write([]string{"name", "config", "operation", "latency_ns", "mem_mb", "heap_objects"})

	benchBPlusTree(w, workDir, *n, *scans, *scanRange)
	benchPebble(w, workDir, *n, *scans, *scanRange)

	fmt.Println("Results written to", *out)
}

func benchBPlusTree(w *csv.Writer, workDir string, n, scans, scanRange int) {
	pager, err := bplus.NewOnDiskPager(filepath.Join(workDir, "bench.idx"))
	if err != nil {
		log.Fatalf("open index: %v", err)
	}
	defer pager.Close()

	cache, err := bplus.NewBufferPool(256)
	if err != nil {
		log.Fatalf("buffer pool: %v", err)
	}
	defer cache.Close()

	tree := bplus.NewBPlusTree(pager, cache, bytes.Compare)

	fmt.Printf("Building B+ tree with %d keys...\n", n)
	start := time.Now()
	for i := 0; i < n; i++ {
		tree.Insertion(benchKey(i), []byte(fmt.Sprintf("val%08d", i)))
	}
	mem := GetDetailedMem()
	Record(w, BenchResult{
		Name:      "bplustree",
		Config:    "default",
		Operation: "build",
		LatencyNs: time.Since(start).Nanoseconds() / int64(n),
		MemMB:     mem.AllocMB,
		Objects:   mem.HeapObjects,
	})

	configs := []struct {
		name     string
		linear   bool
		prefetch bool
	}{
		{"binary", false, false},
		{"binary+prefetch", false, true},
		{"linear", true, false},
		{"linear+prefetch", true, true},
	}

	for _, cfg := range configs {
		sess := bplus.NewScanSession(nil)
		sess.SetLinearScanEnabled(cfg.linear)
		sess.SetPrefetchEnabled(cfg.prefetch)
		if cfg.linear {
			if err := sess.SetLinearScanThreshold(bplus.MaxLinearScanThreshold); err != nil {
				log.Fatalf("threshold: %v", err)
			}
		}

		fmt.Printf("Scanning (%s)...\n", cfg.name)
		start = time.Now()
		var visited int
		for s := 0; s < scans; s++ {
			lo := (s * 31) % (n - scanRange)
			it := tree.SeekGE(benchKey(lo), sess)
			for count := 0; it.Valid() && count < scanRange; it.Next() {
				visited++
				count++
			}
		}
		elapsed := time.Since(start)
		if visited == 0 {
			log.Fatal("scan visited no keys")
		}
		mem = GetDetailedMem()
		Record(w, BenchResult{
			Name:      "bplustree",
			Config:    cfg.name,
			Operation: "range_scan",
			LatencyNs: elapsed.Nanoseconds() / int64(visited),
			MemMB:     mem.AllocMB,
			Objects:   mem.HeapObjects,
		})
	}
}

func benchPebble(w *csv.Writer, workDir string, n, scans, scanRange int) {
	opts := &pebble.Options{
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}
	db, err := pebble.Open(filepath.Join(workDir, "pebble"), opts)
	if err != nil {
		log.Fatalf("pebble open: %v", err)
	}
	defer db.Close()

	fmt.Printf("Building Pebble baseline with %d keys...\n", n)
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := db.Set(benchKey(i), []byte(fmt.Sprintf("val%08d", i)), pebble.NoSync); err != nil {
			log.Fatalf("pebble set: %v", err)
		}
	}
	mem := GetDetailedMem()
	Record(w, BenchResult{
		Name:      "pebble",
		Config:    "default",
		Operation: "build",
		LatencyNs: time.Since(start).Nanoseconds() / int64(n),
		MemMB:     mem.AllocMB,
		Objects:   mem.HeapObjects,
	})

	fmt.Println("Scanning (pebble)...")
	start = time.Now()
	var visited int
	for s := 0; s < scans; s++ {
		lo := (s * 31) % (n - scanRange)
		iter, err := db.NewIter(&pebble.IterOptions{
			LowerBound: benchKey(lo),
			UpperBound: benchKey(lo + scanRange),
		})
		if err != nil {
			log.Fatalf("pebble iter: %v", err)
		}
		for valid := iter.First(); valid; valid = iter.Next() {
			visited++
		}
		iter.Close()
	}
	elapsed := time.Since(start)
	if visited == 0 {
		log.Fatal("pebble scan visited no keys")
	}
	mem = GetDetailedMem()
	Record(w, BenchResult{
		Name:      "pebble",
		Config:    "default",
		Operation: "range_scan",
		LatencyNs: elapsed.Nanoseconds() / int64(visited),
		MemMB:     mem.AllocMB,
		Objects:   mem.HeapObjects,
	})
}
