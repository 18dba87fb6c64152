// Package syncdb provides an IPerfDB wrapper that makes a database safe for
// concurrent use by goroutines and, optionally, by several processes.
//
// Every operation of the wrapped database runs while holding
//   - a sync.Mutex that is shared by all wrappers of the same path in this
//     process (kept in a xsync.MapOf keyed by the database path), and
//   - a lock file "<path>.lock" managed by the lockmgr package.
//
// Acquiring the lock file is retried every Options.RetryInterval until
// Options.WaitTimeout has elapsed, after that the operation fails with
// db.RetCLockTimeout. Lock files older than Options.LockTimeout are
// considered left over by a crashed process and are broken.
//
// The wrapper only serializes whole operations. A FindRecord followed by a
// StoreRecord of the same caller is still two operations, use UpdateRecord
// (or db.Store) for read-modify-write.
package syncdb
