package syncdb

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/perfDB/lib/db"
	"github.com/ValentinKolb/perfDB/lib/db/codec"
	dbtesting "github.com/ValentinKolb/perfDB/lib/db/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		UseLockFile:   true,
		LockTimeout:   time.Minute,
		WaitTimeout:   5 * time.Second,
		RetryInterval: time.Millisecond,
	}
}

func Test(t *testing.T) {
	dbtesting.RunPerfDBTests(t, "SyncDB", func(path string) db.IPerfDB {
		return NewSyncDB(db.NewTextDB(path), testOptions())
	})
	dbtesting.RunPerfDBTests(t, "SyncDB(mutex only)", func(path string) db.IPerfDB {
		return NewSyncDB(db.NewTextDB(path), Options{})
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunPerfDBBenchmarks(b, "SyncDB", func(path string) db.IPerfDB {
		return NewSyncDB(db.NewTextDB(path), testOptions())
	})
}

func TestConcurrentUpdatesKeepAllIds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.db")

	const (
		workers = 8
		ids     = 10
	)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// every worker uses its own wrapper, as independent callers would
			d := NewSyncDB(db.NewTextDB(path), testOptions())
			for i := range ids {
				id := fmt.Sprintf("solver-%d-%d", w, i)
				_, err := db.Store(d, codec.String("K"), id, codec.IntList{w, i})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	record, found, err := db.NewTextDB(path).FindRecord(codec.String("K"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, workers*ids, record.Len())
	assert.NoFileExists(t, path+lockSuffix)
}

func TestLockTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.db")
	// held by another process
	require.NoError(t, os.WriteFile(path+lockSuffix, []byte("other"), 0o644))

	d := NewSyncDB(db.NewTextDB(path), Options{
		UseLockFile:   true,
		WaitTimeout:   20 * time.Millisecond,
		RetryInterval: time.Millisecond,
	})

	_, _, err := d.FindRecord(codec.String("K"))
	require.Error(t, err)
	assert.ErrorIs(t, err, &db.Error{Code: db.RetCLockTimeout})

	// the foreign lock is not removed
	assert.FileExists(t, path+lockSuffix)
}

func TestStaleLockIsBroken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.db")
	lockFile := path + lockSuffix
	require.NoError(t, os.WriteFile(lockFile, []byte("crashed"), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(lockFile, old, old))

	d := NewSyncDB(db.NewTextDB(path), Options{
		UseLockFile:   true,
		LockTimeout:   time.Second,
		WaitTimeout:   time.Second,
		RetryInterval: time.Millisecond,
	})

	_, err := db.Store(d, codec.String("K"), "a", codec.String("1"))
	require.NoError(t, err)
	assert.NoFileExists(t, lockFile)
}

func TestSharedMutexPerPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.db")
	a := NewSyncDB(db.NewTextDB(path), Options{}).(*syncDBImpl)
	b := NewSyncDB(db.NewTextDB(path), Options{}).(*syncDBImpl)
	c := NewSyncDB(db.NewTextDB(path+"2"), Options{}).(*syncDBImpl)

	assert.Same(t, a.mu, b.mu)
	assert.NotSame(t, a.mu, c.mu)
	assert.Equal(t, db.ImplSync, a.Implementation())

	stats, err := a.Stats()
	require.NoError(t, err)
	assert.Equal(t, db.ImplSync, stats.DbType)
}

func TestMutexSharedAcrossPathSpellings(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cwd, err := os.Getwd()
	require.NoError(t, err)

	a := NewSyncDB(db.NewTextDB("perf.db"), Options{}).(*syncDBImpl)
	b := NewSyncDB(db.NewTextDB("./perf.db"), Options{}).(*syncDBImpl)
	c := NewSyncDB(db.NewTextDB(filepath.Join(cwd, "sub", "..", "perf.db")), Options{}).(*syncDBImpl)

	assert.Same(t, a.mu, b.mu)
	assert.Same(t, a.mu, c.mu)
}

func TestForEachCallbackMayUseDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.db")
	require.NoError(t, os.WriteFile(path, []byte("A=x:1\nB=y:2\n"), 0o644))
	d := NewSyncDB(db.NewTextDB(path), testOptions())

	done := make(chan error, 1)
	go func() {
		done <- d.ForEach(func(record *db.Record) bool {
			// writing from inside the callback must not deadlock
			_, err := db.Store(d, codec.String(record.Key()), "z", codec.String("3"))
			assert.NoError(t, err)
			return true
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("ForEach deadlocked")
	}

	var z codec.String
	assert.True(t, db.Load(d, codec.String("A"), "z", &z))
	assert.True(t, db.Load(d, codec.String("B"), "z", &z))
}
