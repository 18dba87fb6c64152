package testing

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/ValentinKolb/perfDB/lib/db"
	"github.com/ValentinKolb/perfDB/lib/db/codec"
)

// DBFactory is a function that creates a new instance of an IPerfDB
// implementation backed by the file at path
type DBFactory func(path string) db.IPerfDB

// RunPerfDBTests runs a comprehensive test suite for an IPerfDB implementation.
// Every test works on its own file inside t.TempDir().
func RunPerfDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("FindMissing", func(t *testing.T) {
			testFindMissing(t, newDB(t, factory))
		})

		t.Run("StoreLoad", func(t *testing.T) {
			testStoreLoad(t, newDB(t, factory))
		})

		t.Run("StoreRecordReplaces", func(t *testing.T) {
			testStoreRecordReplaces(t, newDB(t, factory))
		})

		t.Run("UpdatePreservesForeignIds", func(t *testing.T) {
			testUpdatePreservesForeignIds(t, newDB(t, factory))
		})

		t.Run("UpdateCallerWins", func(t *testing.T) {
			testUpdateCallerWins(t, newDB(t, factory))
		})

		t.Run("InPlaceAndRewrite", func(t *testing.T) {
			testInPlaceAndRewrite(t, newDB(t, factory))
		})

		t.Run("MalformedLines", func(t *testing.T) {
			testMalformedLines(t, newDB(t, factory))
		})

		t.Run("MissingTerminator", func(t *testing.T) {
			testMissingTerminator(t, newDB(t, factory))
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, newDB(t, factory))
		})

		t.Run("ReservedCharacters", func(t *testing.T) {
			testReservedCharacters(t, newDB(t, factory))
		})

		t.Run("CommentKeyRejected", func(t *testing.T) {
			testCommentKeyRejected(t, newDB(t, factory))
		})

		t.Run("IOFailure", func(t *testing.T) {
			testIOFailure(t, factory)
		})

		t.Run("ForEachAndStats", func(t *testing.T) {
			testForEachAndStats(t, newDB(t, factory))
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, newDB(t, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// newDB creates a database in a fresh temp directory
func newDB(t testing.TB, factory DBFactory) db.IPerfDB {
	return factory(filepath.Join(t.TempDir(), "test.db"))
}

// writeFile replaces the database file with the given lines
func writeFile(t testing.TB, database db.IPerfDB, content string) {
	t.Helper()
	if err := os.WriteFile(database.Path(), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", database.Path(), err)
	}
}

// readFile returns the content of the database file
func readFile(t testing.TB, database db.IPerfDB) string {
	t.Helper()
	b, err := os.ReadFile(database.Path())
	if err != nil {
		t.Fatalf("Failed to read %s: %v", database.Path(), err)
	}
	return string(b)
}

// parseFile parses the database file into key -> id -> values and counts the
// lines seen per key
func parseFile(t testing.TB, database db.IPerfDB) (map[string]map[string]string, map[string]int) {
	t.Helper()
	records := make(map[string]map[string]string)
	counts := make(map[string]int)
	for _, line := range strings.Split(readFile(t, database), "\n") {
		key, contents, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		counts[key]++
		pairs := make(map[string]string)
		for _, segment := range strings.Split(contents, ";") {
			id, values, _ := strings.Cut(segment, ":")
			pairs[id] = values
		}
		records[key] = pairs
	}
	return records, counts
}

// checkUnique fails the test if a key occurs on more than one line
func checkUnique(t testing.TB, database db.IPerfDB) {
	t.Helper()
	_, counts := parseFile(t, database)
	for key, n := range counts {
		if n > 1 {
			t.Errorf("Key %s occurs on %d lines", key, n)
		}
	}
}

func key(s string) codec.String {
	return codec.String(s)
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testFindMissing(t *testing.T, database db.IPerfDB) {
	_, found, err := database.FindRecord(key("missing-key"))
	if err != nil {
		t.Fatalf("Expected no error for a missing file, got %v", err)
	}
	if found {
		t.Errorf("Expected missing-key to not be found")
	}
	if _, err := os.Stat(database.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("FindRecord must not create the database file")
	}

	writeFile(t, database, "k1=a:1\n")
	_, found, err = database.FindRecord(key("missing-key"))
	if err != nil || found {
		t.Errorf("Expected found=false, err=nil, got found=%v, err=%v", found, err)
	}
	if got := readFile(t, database); got != "k1=a:1\n" {
		t.Errorf("FindRecord modified the file: %q", got)
	}

	var out codec.IntList
	if db.Load(database, key("missing-key"), "a", &out) {
		t.Errorf("Expected Load of a missing key to fail")
	}
}

func testStoreLoad(t *testing.T, database db.IPerfDB) {
	cfg := key("3x227x227x11x11x96")

	record, err := db.Store(database, cfg, "solverA", codec.IntList{4, 4, 1})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if record.Key() != string(cfg) {
		t.Errorf("Expected key %s, got %s", cfg, record.Key())
	}

	if got, want := readFile(t, database), "3x227x227x11x11x96=solverA:4,4,1\n"; got != want {
		t.Errorf("Expected file %q, got %q", want, got)
	}

	var out codec.IntList
	if !db.Load(database, cfg, "solverA", &out) {
		t.Fatalf("Expected Load of solverA to succeed")
	}
	if !out.Equal(codec.IntList{4, 4, 1}) {
		t.Errorf("Expected 4,4,1, got %v", out)
	}

	out2 := codec.IntList{7}
	if db.Load(database, cfg, "solverB", &out2) {
		t.Errorf("Expected Load of solverB to fail")
	}
	if !out2.Equal(codec.IntList{7}) {
		t.Errorf("Failed Load must not touch the output, got %v", out2)
	}

	// values that do not deserialize are a failure, not a panic
	if _, err := db.Store(database, cfg, "solverC", codec.String("not,a,number")); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if db.Load(database, cfg, "solverC", &out) {
		t.Errorf("Expected Load of undeserializable values to fail")
	}
	checkUnique(t, database)
}

func testStoreRecordReplaces(t *testing.T, database db.IPerfDB) {
	writeFile(t, database, "before=x:1\nk=a:1;b:2\nafter=y:2\n")

	record := db.NewRecord(key("k"))
	record.SetValues("c", codec.String("3"))
	if err := database.StoreRecord(record); err != nil {
		t.Fatalf("StoreRecord failed: %v", err)
	}

	found, ok, err := database.FindRecord(key("k"))
	if err != nil || !ok {
		t.Fatalf("Expected stored record, found=%v err=%v", ok, err)
	}
	if !found.Equal(record) {
		t.Errorf("Expected %s, got %s", record, found)
	}
	if got, want := readFile(t, database), "before=x:1\nk=c:3\nafter=y:2\n"; got != want {
		t.Errorf("Expected file %q, got %q", want, got)
	}
}

func testUpdatePreservesForeignIds(t *testing.T, database db.IPerfDB) {
	writeFile(t, database, "K=A:1;B:2\n")

	record := db.NewRecord(key("K"))
	record.SetValues("C", codec.String("3"))
	if err := database.UpdateRecord(record); err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}

	records, _ := parseFile(t, database)
	want := map[string]string{"A": "1", "B": "2", "C": "3"}
	if fmt.Sprint(records["K"]) != fmt.Sprint(want) {
		t.Errorf("Expected stored pairs %v, got %v", want, records["K"])
	}

	// the caller's record reflects the merged state
	if record.Len() != 3 || !record.Has("A") || !record.Has("B") {
		t.Errorf("Expected caller record to be merged, got %s", record)
	}
	checkUnique(t, database)
}

func testUpdateCallerWins(t *testing.T, database db.IPerfDB) {
	writeFile(t, database, "K=A:1;B:2\n")

	record := db.NewRecord(key("K"))
	record.SetValues("A", codec.String("10"))
	if err := database.UpdateRecord(record); err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}

	var a, b codec.String
	if !db.Load(database, key("K"), "A", &a) || a != "10" {
		t.Errorf("Expected A=10, got %q", a)
	}
	if !db.Load(database, key("K"), "B", &b) || b != "2" {
		t.Errorf("Expected B=2, got %q", b)
	}
}

func testInPlaceAndRewrite(t *testing.T, database db.IPerfDB) {
	initial := "first=s:1,1\nK=s:1,2,3\nlast=s:9\n"

	// same length: overwritten in place
	writeFile(t, database, initial)
	if _, err := db.Store(database, key("K"), "s", codec.IntList{4, 5, 6}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if got, want := readFile(t, database), "first=s:1,1\nK=s:4,5,6\nlast=s:9\n"; got != want {
		t.Errorf("In place: expected %q, got %q", want, got)
	}

	// longer: rewritten
	if _, err := db.Store(database, key("K"), "s", codec.IntList{40, 50, 60}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if got, want := readFile(t, database), "first=s:1,1\nK=s:40,50,60\nlast=s:9\n"; got != want {
		t.Errorf("Rewrite (longer): expected %q, got %q", want, got)
	}

	// shorter: rewritten
	if _, err := db.Store(database, key("K"), "s", codec.IntList{1}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if got, want := readFile(t, database), "first=s:1,1\nK=s:1\nlast=s:9\n"; got != want {
		t.Errorf("Rewrite (shorter): expected %q, got %q", want, got)
	}

	// first and last line
	if _, err := db.Store(database, key("first"), "s", codec.IntList{2, 2}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, err := db.Store(database, key("last"), "s", codec.IntList{10}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if got, want := readFile(t, database), "first=s:2,2\nK=s:1\nlast=s:10\n"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	checkUnique(t, database)
}

func testMalformedLines(t *testing.T, database db.IPerfDB) {
	writeFile(t, database, strings.Join([]string{
		"# comment",
		"",
		"no separator here",
		"=a:1",
		"K=",
		"K=a",
		"K=a:1;b",
		"K=:1",
		"K=a:",
		"K=a:1;b:2",
		"",
	}, "\n"))

	record, found, err := database.FindRecord(key("K"))
	if err != nil || !found {
		t.Fatalf("Expected the well-formed K line to be found, found=%v err=%v", found, err)
	}
	if record.Len() != 2 || !record.Has("a") || !record.Has("b") {
		t.Errorf("Expected pairs a and b, got %s", record)
	}

	// updates replace the first well-formed line only
	if _, err := db.Store(database, key("K"), "c", codec.String("3")); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	var c codec.String
	if !db.Load(database, key("K"), "c", &c) || c != "3" {
		t.Errorf("Expected c=3 after update, got %q", c)
	}
	if !strings.HasPrefix(readFile(t, database), "# comment\n\nno separator here\n") {
		t.Errorf("Lines before the record must be kept, got %q", readFile(t, database))
	}
}

func testMissingTerminator(t *testing.T, database db.IPerfDB) {
	writeFile(t, database, "A=x:1")

	if _, err := db.Store(database, key("B"), "y", codec.String("2")); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if got, want := readFile(t, database), "A=x:1\nB=y:2\n"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	// last line without terminator, same length replacement
	writeFile(t, database, "B=y:2\nA=x:1")
	if _, err := db.Store(database, key("A"), "x", codec.String("5")); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	var x codec.String
	if !db.Load(database, key("A"), "x", &x) || x != "5" {
		t.Errorf("Expected x=5, got %q", x)
	}
	if !strings.HasPrefix(readFile(t, database), "B=y:2\n") {
		t.Errorf("Expected B line to be kept, got %q", readFile(t, database))
	}
}

func testRemove(t *testing.T, database db.IPerfDB) {
	writeFile(t, database, "A=x:1;y:2\nB=z:3\n")

	removed, err := database.Remove(key("A"), "x")
	if err != nil || !removed {
		t.Fatalf("Expected x to be removed, removed=%v err=%v", removed, err)
	}
	if got, want := readFile(t, database), "A=y:2\nB=z:3\n"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	removed, err = database.Remove(key("A"), "x")
	if err != nil || removed {
		t.Errorf("Expected second remove to report false, removed=%v err=%v", removed, err)
	}

	// the last id drops the line
	if removed, err = database.Remove(key("A"), "y"); err != nil || !removed {
		t.Fatalf("Expected y to be removed, removed=%v err=%v", removed, err)
	}
	if got, want := readFile(t, database), "B=z:3\n"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	if removed, err = database.RemoveRecord(key("B")); err != nil || !removed {
		t.Fatalf("Expected B to be removed, removed=%v err=%v", removed, err)
	}
	if got := readFile(t, database); got != "" {
		t.Errorf("Expected empty file, got %q", got)
	}

	if removed, err = database.RemoveRecord(key("B")); err != nil || removed {
		t.Errorf("Expected removing a missing record to report false, removed=%v err=%v", removed, err)
	}
}

func testReservedCharacters(t *testing.T, database db.IPerfDB) {
	writeFile(t, database, "K=a:1\n")

	for _, tc := range []struct {
		key, id, values string
	}{
		{"K", "a", "1;b:2"},
		{"K", "a:b", "1"},
		{"K=1", "a", "1"},
		{"K", "a", "1\n2"},
		{"#K", "a", "1"},
	} {
		record := db.NewRecord(key(tc.key))
		record.SetValues(tc.id, codec.String(tc.values))
		before := record.Clone()

		err := database.UpdateRecord(record)
		var dbErr *db.Error
		if !errors.As(err, &dbErr) || dbErr.Code != db.RetCReservedCharacter {
			t.Errorf("Expected RetCReservedCharacter for %+v, got %v", tc, err)
		}
		if !record.Equal(before) {
			t.Errorf("Failed update must not change the record, got %s", record)
		}
	}

	if got := readFile(t, database); got != "K=a:1\n" {
		t.Errorf("Rejected records must not change the file, got %q", got)
	}
}

func testCommentKeyRejected(t *testing.T, database db.IPerfDB) {
	writeFile(t, database, "# header\nK=a:1\n")

	// a second store must not append a second line either
	for i := 0; i < 2; i++ {
		_, err := db.Store(database, key("#cfg"), "a", codec.String("1"))
		if !errors.Is(err, &db.Error{Code: db.RetCReservedCharacter}) {
			t.Errorf("Expected RetCReservedCharacter for a key starting with '#', got %v", err)
		}
	}
	if got := readFile(t, database); got != "# header\nK=a:1\n" {
		t.Errorf("Rejected records must not change the file, got %q", got)
	}

	// ids and values may start with '#'
	if _, err := db.Store(database, key("K"), "#b", codec.String("#2")); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	var b codec.String
	if !db.Load(database, key("K"), "#b", &b) || b != "#2" {
		t.Errorf("Expected #b=#2, got %q", b)
	}
	checkUnique(t, database)
}

func testIOFailure(t *testing.T, factory DBFactory) {
	database := factory(filepath.Join(t.TempDir(), "missing-dir", "test.db"))

	record := db.NewRecord(key("K"))
	record.SetValues("a", codec.String("1"))
	before := record.Clone()

	err := database.UpdateRecord(record)
	if err == nil {
		t.Fatalf("Expected an error when the directory does not exist")
	}
	if !errors.Is(err, &db.Error{Code: db.RetCIOError}) {
		t.Errorf("Expected RetCIOError, got %v", err)
	}
	if !record.Equal(before) {
		t.Errorf("Failed update must not change the record, got %s", record)
	}

	if err := database.StoreRecord(record); err == nil {
		t.Errorf("Expected StoreRecord to fail")
	}
	if _, err := db.Store(database, key("K"), "a", codec.String("1")); err == nil {
		t.Errorf("Expected Store to fail")
	}
}

func testForEachAndStats(t *testing.T, database db.IPerfDB) {
	writeFile(t, database, "# header\nA=x:1\nbroken\nB=x:1;y:2\n\nC=z:3\n")

	var keys []string
	if err := database.ForEach(func(record *db.Record) bool {
		keys = append(keys, record.Key())
		return true
	}); err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	if strings.Join(keys, ",") != "A,B,C" {
		t.Errorf("Expected A,B,C in file order, got %v", keys)
	}

	// stop early
	keys = keys[:0]
	_ = database.ForEach(func(record *db.Record) bool {
		keys = append(keys, record.Key())
		return false
	})
	if len(keys) != 1 {
		t.Errorf("Expected ForEach to stop after the first record, got %v", keys)
	}

	stats, err := database.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Lines != 6 || stats.Records != 3 || stats.Entries != 4 {
		t.Errorf("Expected 6 lines, 3 records, 4 entries, got %+v", stats)
	}
	if stats.Comments != 1 || stats.BlankLines != 1 || stats.MalformedLines != 1 {
		t.Errorf("Expected 1 comment, 1 blank, 1 malformed line, got %+v", stats)
	}
	if stats.DuplicateKeys != 0 {
		t.Errorf("Expected no duplicate keys, got %d", stats.DuplicateKeys)
	}
	if stats.SizeBytes != int64(len(readFile(t, database))) {
		t.Errorf("Expected size %d, got %d", len(readFile(t, database)), stats.SizeBytes)
	}
	if stats.LineSizes.Count() != 6 {
		t.Errorf("Expected 6 line size samples, got %d", stats.LineSizes.Count())
	}
}

func testRealisticUsage(t *testing.T, database db.IPerfDB) {
	rng := rand.New(rand.NewSource(42))
	expected := make(map[string]map[string]string)

	numConfigs := 20
	solvers := []string{"ConvAsm3x3U", "ConvOclDirectFwd", "ConvHipImplicitGemm", "ConvWinograd"}

	for i := 0; i < 300; i++ {
		cfg := fmt.Sprintf("%dx%dx%d", rng.Intn(numConfigs), 3, 3)
		solver := solvers[rng.Intn(len(solvers))]
		values := make(codec.IntList, 1+rng.Intn(4))
		for j := range values {
			values[j] = rng.Intn(1000)
		}

		switch op := rng.Intn(10); {
		case op < 7:
			if _, err := db.Store(database, key(cfg), solver, values); err != nil {
				t.Fatalf("Store failed: %v", err)
			}
			if expected[cfg] == nil {
				expected[cfg] = make(map[string]string)
			}
			expected[cfg][solver] = codec.SerializeToString(values)
		case op < 9:
			if _, err := database.Remove(key(cfg), solver); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}
			delete(expected[cfg], solver)
			if len(expected[cfg]) == 0 {
				delete(expected, cfg)
			}
		default:
			record := db.NewRecord(key(cfg))
			record.SetValues(solver, values)
			if err := database.StoreRecord(record); err != nil {
				t.Fatalf("StoreRecord failed: %v", err)
			}
			expected[cfg] = map[string]string{solver: codec.SerializeToString(values)}
		}
	}

	checkUnique(t, database)

	actual, _ := parseFile(t, database)
	if len(actual) != len(expected) {
		t.Errorf("Expected %d records, got %d", len(expected), len(actual))
	}

	cfgs := make([]string, 0, len(expected))
	for cfg := range expected {
		cfgs = append(cfgs, cfg)
	}
	sort.Strings(cfgs)
	for _, cfg := range cfgs {
		for solver, want := range expected[cfg] {
			var out codec.IntList
			if !db.Load(database, key(cfg), solver, &out) {
				t.Errorf("Expected %s:%s to be loadable", cfg, solver)
				continue
			}
			if got := codec.SerializeToString(out); got != want {
				t.Errorf("Expected %s:%s=%s, got %s", cfg, solver, want, got)
			}
		}
	}
}
