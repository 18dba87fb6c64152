package lockmgr

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lockPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "perf.db.lock")
}

func TestAcquireRelease(t *testing.T) {
	key := lockPath(t)
	lm := NewLockManager()

	ok, owner, err := lm.AcquireLock(key, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, owner)

	content, err := os.ReadFile(key)
	require.NoError(t, err)
	assert.Equal(t, owner, content)

	// a second acquire must fail while the lock is held
	ok, other, err := NewLockManager().AcquireLock(key, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, other)

	ok, err = lm.ReleaseLock(key, owner)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoFileExists(t, key)

	// releasing a lock that does not exist succeeds
	ok, err = lm.ReleaseLock(key, owner)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseWrongOwner(t *testing.T) {
	key := lockPath(t)
	lm := NewLockManager()

	ok, owner, err := lm.AcquireLock(key, 0)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = lm.ReleaseLock(key, []byte("someone-else"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.FileExists(t, key)

	ok, err = lm.ReleaseLock(key, owner)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStaleLockIsBroken(t *testing.T) {
	key := lockPath(t)
	lm := &fileLockMgrImpl{now: time.Now}

	ok, _, err := lm.AcquireLock(key, 10)
	require.NoError(t, err)
	require.True(t, ok)

	// not stale yet
	ok, _, err = lm.AcquireLock(key, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	// never stale without timeout
	lm.now = func() time.Time { return time.Now().Add(time.Hour) }
	ok, _, err = lm.AcquireLock(key, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, owner, err := lm.AcquireLock(key, 10)
	require.NoError(t, err)
	require.True(t, ok)

	content, err := os.ReadFile(key)
	require.NoError(t, err)
	assert.Equal(t, owner, content)
}

func TestAcquireMissingDirectory(t *testing.T) {
	key := filepath.Join(t.TempDir(), "missing", "perf.db.lock")
	ok, _, err := NewLockManager().AcquireLock(key, 0)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestConcurrentAcquire(t *testing.T) {
	key := lockPath(t)

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := NewLockManager().AcquireLock(key, 0)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestGenerateOwnerID(t *testing.T) {
	a, err := generateOwnerID()
	require.NoError(t, err)
	b, err := generateOwnerID()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

// makeStale writes a lock file that was last touched an hour ago
func makeStale(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("crashed"), lockFileMode))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestLateBreakerKeepsFreshLock(t *testing.T) {
	key := lockPath(t)
	makeStale(t, key)

	// A breaks the stale lock and takes it
	ok, ownerA, err := NewLockManager().AcquireLock(key, 10)
	require.NoError(t, err)
	require.True(t, ok)

	// B saw the same stale lock before A replaced it and breaks only now
	b := &fileLockMgrImpl{now: time.Now}
	ownerB, err := generateOwnerID()
	require.NoError(t, err)
	ok, _, err = b.breakAndCreate(key, 10, ownerB)
	require.NoError(t, err)
	assert.False(t, ok)

	content, err := os.ReadFile(key)
	require.NoError(t, err)
	assert.Equal(t, ownerA, content, "the fresh lock of A must survive")
	assert.NoFileExists(t, key+breakSuffix)
}

func TestBreakGuardHeld(t *testing.T) {
	key := lockPath(t)
	makeStale(t, key)
	// another acquirer is breaking right now
	require.NoError(t, os.WriteFile(key+breakSuffix, []byte("other"), lockFileMode))

	ok, _, err := NewLockManager().AcquireLock(key, 10)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.FileExists(t, key+breakSuffix)

	// a guard left by a crashed breaker is removed, the next attempt succeeds
	makeStale(t, key+breakSuffix)
	ok, _, err = NewLockManager().AcquireLock(key, 10)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoFileExists(t, key+breakSuffix)

	ok, _, err = NewLockManager().AcquireLock(key, 10)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConcurrentStaleBreak(t *testing.T) {
	key := lockPath(t)
	makeStale(t, key)

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := NewLockManager().AcquireLock(key, 10)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
	assert.NoFileExists(t, key+breakSuffix)
}
