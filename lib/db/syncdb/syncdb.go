package syncdb

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/ValentinKolb/perfDB/lib/db"
	"github.com/ValentinKolb/perfDB/lib/db/codec"
	"github.com/ValentinKolb/perfDB/lib/lockmgr"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("syncdb")

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

const lockSuffix = ".lock"

// LockPath returns the path of the lock file that guards the database at dbPath.
func LockPath(dbPath string) string {
	return dbPath + lockSuffix
}

// Options configure the lock acquisition of a synchronized database.
type Options struct {
	// UseLockFile enables the lock file next to the database. Without it only
	// goroutines of this process are serialized.
	UseLockFile bool
	// LockTimeout is the age after which a lock file is considered stale.
	// Zero means lock files never expire.
	LockTimeout time.Duration
	// WaitTimeout is how long an operation waits for the lock file.
	WaitTimeout time.Duration
	// RetryInterval is the pause between two acquisition attempts.
	RetryInterval time.Duration
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		UseLockFile:   true,
		LockTimeout:   30 * time.Second,
		WaitTimeout:   10 * time.Second,
		RetryInterval: 10 * time.Millisecond,
	}
}

// --------------------------------------------------------------------------
// Core structure
// --------------------------------------------------------------------------

// fileMutexes holds one mutex per database path, shared by all wrappers of
// this process.
var fileMutexes = xsync.NewMapOf[string, *sync.Mutex]()

// mutexKey normalizes path so that different spellings of the same file
// ("perf.db", "./perf.db", "/abs/perf.db") share one mutex.
func mutexKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

type syncDBImpl struct {
	inner    db.IPerfDB
	mu       *sync.Mutex
	locks    lockmgr.ILockManager
	lockPath string
	opts     Options
}

// NewSyncDB wraps inner so that every operation runs exclusively: goroutines
// of this process are serialized by a per-path mutex, other processes by the
// lock file "<path>.lock" (if enabled in opts).
func NewSyncDB(inner db.IPerfDB, opts Options) db.IPerfDB {
	mu, _ := fileMutexes.LoadOrCompute(mutexKey(inner.Path()), func() *sync.Mutex {
		return &sync.Mutex{}
	})
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultOptions().RetryInterval
	}
	return &syncDBImpl{
		inner:    inner,
		mu:       mu,
		locks:    lockmgr.NewLockManager(),
		lockPath: LockPath(inner.Path()),
		opts:     opts,
	}
}

// --------------------------------------------------------------------------
// Locking
// --------------------------------------------------------------------------

// lock acquires the in-process mutex and the lock file. The returned function
// releases both.
func (s *syncDBImpl) lock() (func(), error) {
	s.mu.Lock()
	if !s.opts.UseLockFile {
		return s.mu.Unlock, nil
	}

	timeout := uint64(s.opts.LockTimeout / time.Second)
	if s.opts.LockTimeout > 0 && timeout == 0 {
		timeout = 1
	}
	deadline := time.Now().Add(s.opts.WaitTimeout)

	for {
		ok, ownerID, err := s.locks.AcquireLock(s.lockPath, timeout)
		if err != nil {
			s.mu.Unlock()
			return nil, db.WrapError(db.RetCIOError, "acquiring lock "+s.lockPath, err)
		}
		if ok {
			return func() {
				if released, err := s.locks.ReleaseLock(s.lockPath, ownerID); err != nil || !released {
					Logger.Errorf("releasing lock %s failed (released=%v): %v", s.lockPath, released, err)
				}
				s.mu.Unlock()
			}, nil
		}
		if !time.Now().Before(deadline) {
			s.mu.Unlock()
			return nil, db.NewError(db.RetCLockTimeout, "timeout waiting for lock "+s.lockPath)
		}
		time.Sleep(s.opts.RetryInterval)
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.IPerfDB)
// --------------------------------------------------------------------------

func (s *syncDBImpl) FindRecord(problemConfig codec.ISerializable) (*db.Record, bool, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, false, err
	}
	defer unlock()
	return s.inner.FindRecord(problemConfig)
}

func (s *syncDBImpl) FindRecordByKey(key string) (*db.Record, bool, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, false, err
	}
	defer unlock()
	return s.inner.FindRecordByKey(key)
}

// ForEach reads all records under the lock and calls fn after releasing it,
// so fn may use the database itself.
func (s *syncDBImpl) ForEach(fn func(record *db.Record) bool) error {
	var records []*db.Record
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	err = s.inner.ForEach(func(record *db.Record) bool {
		records = append(records, record)
		return true
	})
	unlock()
	if err != nil {
		return err
	}

	for _, record := range records {
		if !fn(record) {
			break
		}
	}
	return nil
}

func (s *syncDBImpl) Stats() (db.FileStats, error) {
	unlock, err := s.lock()
	if err != nil {
		return db.FileStats{}, err
	}
	defer unlock()
	stats, err := s.inner.Stats()
	stats.DbType = db.ImplSync
	return stats, err
}

func (s *syncDBImpl) StoreRecord(record *db.Record) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	return s.inner.StoreRecord(record)
}

func (s *syncDBImpl) UpdateRecord(record *db.Record) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	return s.inner.UpdateRecord(record)
}

func (s *syncDBImpl) Remove(problemConfig codec.ISerializable, id string) (bool, error) {
	unlock, err := s.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	return s.inner.Remove(problemConfig, id)
}

func (s *syncDBImpl) RemoveRecord(problemConfig codec.ISerializable) (bool, error) {
	unlock, err := s.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	return s.inner.RemoveRecord(problemConfig)
}

func (s *syncDBImpl) Path() string {
	return s.inner.Path()
}

func (s *syncDBImpl) Implementation() db.Implementation {
	return db.ImplSync
}
