package lockmgr

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("lockmgr")

const (
	lockFileMode = fs.FileMode(0o644)
	breakSuffix  = ".break"
)

type fileLockMgrImpl struct {
	now func() time.Time
}

// NewLockManager creates a lock manager that uses lock files. The key of a
// lock is the path of its lock file.
func NewLockManager() ILockManager {
	return &fileLockMgrImpl{
		now: time.Now,
	}
}

func (lm *fileLockMgrImpl) AcquireLock(key string, timeout uint64) (bool, []byte, error) {
	ownerID, err := generateOwnerID()
	if err != nil {
		return false, nil, err
	}

	ok, err := lm.create(key, ownerID)
	if err != nil || ok {
		return ok, ownerIDOrNil(ok, ownerID), err
	}

	// The lock is held by someone else, break it if it is stale
	if timeout == 0 || !lm.isStale(key, timeout) {
		return false, nil, nil
	}
	return lm.breakAndCreate(key, timeout, ownerID)
}

// breakAndCreate removes a stale lock and takes it, both while holding the
// break guard "<key>.break". Only one acquirer at a time may break a lock, and
// staleness is checked again under the guard, so a lock that another breaker
// has just re-created is never removed.
func (lm *fileLockMgrImpl) breakAndCreate(key string, timeout uint64, ownerID []byte) (bool, []byte, error) {
	guard := key + breakSuffix
	ok, err := lm.create(guard, ownerID)
	if err != nil {
		return false, nil, err
	}
	if !ok {
		// a breaker that crashed while holding the guard leaves it behind
		if lm.isStale(guard, timeout) {
			Logger.Warningf("removing stale break guard %s", guard)
			_ = os.Remove(guard)
		}
		return false, nil, nil
	}
	defer func() {
		if err := os.Remove(guard); err != nil && !errors.Is(err, fs.ErrNotExist) {
			Logger.Errorf("removing break guard %s failed: %v", guard, err)
		}
	}()

	if lm.isStale(key, timeout) {
		Logger.Warningf("breaking stale lock %s", key)
		if err := os.Remove(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return false, nil, err
		}
	}

	// Acquirers that do not break may still win the freed lock
	ok, err = lm.create(key, ownerID)
	return ok, ownerIDOrNil(ok, ownerID), err
}

func (lm *fileLockMgrImpl) ReleaseLock(key string, ownerID []byte) (bool, error) {
	// Check if the lock exists
	value, err := os.ReadFile(key)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	// Check if the lock is owned by us
	if !bytes.Equal(ownerID, value) {
		return false, nil
	}

	// Release the lock
	if err := os.Remove(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	return true, nil
}

// create atomically creates the lock file and writes the owner ID into it.
// Returns false without error if the file already exists.
func (lm *fileLockMgrImpl) create(key string, ownerID []byte) (bool, error) {
	file, err := os.OpenFile(key, os.O_WRONLY|os.O_CREATE|os.O_EXCL, lockFileMode)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, err = file.Write(ownerID)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(key)
		return false, err
	}
	return true, nil
}

func (lm *fileLockMgrImpl) isStale(key string, timeout uint64) bool {
	info, err := os.Stat(key)
	if err != nil {
		return false
	}
	return lm.now().Sub(info.ModTime()) > time.Duration(timeout)*time.Second
}

func ownerIDOrNil(ok bool, ownerID []byte) []byte {
	if ok {
		return ownerID
	}
	return nil
}
