package testing

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"testing"

	"github.com/ValentinKolb/perfDB/lib/db"
	"github.com/ValentinKolb/perfDB/lib/db/codec"
)

// number of records written to the file before a benchmark starts
const benchRecords = 1000

// RunPerfDBBenchmarks runs all benchmarks for a performance database implementation.
// The benchmarks are sequential, a TextDB must not be written concurrently.
func RunPerfDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("StoreNew", func(b *testing.B) {
			benchmarkStoreNew(b, newDB(b, factory))
		})

		b.Run("StoreInPlace", func(b *testing.B) {
			benchmarkStoreInPlace(b, newDB(b, factory))
		})

		b.Run("StoreRewrite", func(b *testing.B) {
			benchmarkStoreRewrite(b, newDB(b, factory))
		})

		b.Run("Find", func(b *testing.B) {
			benchmarkFind(b, newDB(b, factory))
		})

		b.Run("Find(not)", func(b *testing.B) {
			benchmarkFindNot(b, newDB(b, factory))
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, newDB(b, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// prepare writes benchRecords records with the keys bench-key-0...N directly to the file
func prepare(b *testing.B, database db.IPerfDB) {
	b.Helper()
	var sb strings.Builder
	for i := 0; i < benchRecords; i++ {
		fmt.Fprintf(&sb, "bench-key-%d=solverA:%03d,1,1;solverB:%03d,2,2\n", i, i%1000, i%1000)
	}
	if err := os.WriteFile(database.Path(), []byte(sb.String()), 0o644); err != nil {
		b.Fatalf("Failed to prepare %s: %v", database.Path(), err)
	}
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Store of keys that are not yet in the database (append)
func benchmarkStoreNew(b *testing.B, database db.IPerfDB) {
	prepare(b, database)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg := codec.String(fmt.Sprintf("new-key-%d", i))
		if _, err := db.Store(database, cfg, "solverA", codec.IntList{i, 1, 1}); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark for Store of values with the same length (in place overwrite)
func benchmarkStoreInPlace(b *testing.B, database db.IPerfDB) {
	prepare(b, database)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg := codec.String(fmt.Sprintf("bench-key-%d", i%benchRecords))
		values := codec.String(fmt.Sprintf("%03d,1,1", (i+1)%1000))
		if _, err := db.Store(database, cfg, "solverA", values); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark for Store of values with a different length (file rewrite)
func benchmarkStoreRewrite(b *testing.B, database db.IPerfDB) {
	prepare(b, database)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg := codec.String(fmt.Sprintf("bench-key-%d", i%benchRecords))
		values := codec.String(strings.Repeat("1,", i%5) + "1")
		if _, err := db.Store(database, cfg, "solverC", values); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark for FindRecord of existing keys
func benchmarkFind(b *testing.B, database db.IPerfDB) {
	prepare(b, database)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg := codec.String(fmt.Sprintf("bench-key-%d", i%benchRecords))
		if _, found, err := database.FindRecord(cfg); err != nil || !found {
			b.Fatalf("Expected %s to be found, err=%v", cfg, err)
		}
	}
}

// Benchmark for FindRecord of missing keys (full scan)
func benchmarkFindNot(b *testing.B, database db.IPerfDB) {
	prepare(b, database)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, found, err := database.FindRecord(codec.String("missing")); err != nil || found {
			b.Fatalf("Expected missing key to not be found, err=%v", err)
		}
	}
}

// Benchmark for a mix of loads (80%) and stores (20%)
func benchmarkMixedUsage(b *testing.B, database db.IPerfDB) {
	prepare(b, database)
	rng := rand.New(rand.NewSource(1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg := codec.String(fmt.Sprintf("bench-key-%d", rng.Intn(benchRecords)))
		if rng.Intn(10) < 8 {
			var out codec.IntList
			db.Load(database, cfg, "solverB", &out)
		} else if _, err := db.Store(database, cfg, "solverB", codec.IntList{rng.Intn(1000), 2, 2}); err != nil {
			b.Fatal(err)
		}
	}
}
